package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/oldnordic/odincode/internal/memory/graph"
)

// Artifact is one durable side-record belonging to an execution.
type Artifact struct {
	Type    string
	Content json.RawMessage
}

// Execution is the primary durable record: one tool invocation.
type Execution struct {
	ID            string
	ToolName      string
	Arguments     json.RawMessage
	TimestampMs   int64
	Success       bool
	ExitCode      *int
	DurationMs    *int64
	ErrorMessage  *string
}

func (s *Store) validateExecution(e Execution) error {
	if err := validateToolName(e.ToolName); err != nil {
		return err
	}
	if err := validateTimestamp(e.TimestampMs); err != nil {
		return err
	}
	if len(e.Arguments) == 0 {
		e.Arguments = json.RawMessage("{}")
	}
	if err := validateJSON(string(e.Arguments)); err != nil {
		return err
	}
	return nil
}

// RecordExecution writes the execution row only (no artifacts, no
// file edge). Best-effort creates the matching execution graph entity.
func (s *Store) RecordExecution(e Execution) error {
	if err := s.validateExecution(e); err != nil {
		return err
	}
	if err := s.insertExecution(s.db, e); err != nil {
		return err
	}
	s.bestEffortGraphEntity(e)
	return nil
}

// RecordExecutionWithArtifacts writes the execution row and all artifacts
// in a single transaction on the temporal store (write ordering steps
// 1-4), then best-effort creates the graph entity (steps 5-8).
func (s *Store) RecordExecutionWithArtifacts(e Execution, artifacts []Artifact) error {
	if err := s.validateExecution(e); err != nil {
		return err
	}
	for _, a := range artifacts {
		if err := validateArtifactType(a.Type); err != nil {
			return err
		}
		if err := validateJSON(string(a.Content)); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin execution tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertExecution(tx, e); err != nil {
		return err
	}
	for _, a := range artifacts {
		if _, err := tx.Exec(
			`INSERT INTO execution_artifacts (execution_id, artifact_type, content_json) VALUES (?, ?, ?)`,
			e.ID, a.Type, string(a.Content),
		); err != nil {
			return fmt.Errorf("insert artifact %s: %w", a.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit execution tx: %w", err)
	}

	s.bestEffortGraphEntity(e)
	return nil
}

// RecordExecutionOnFile is RecordExecution plus an EXECUTED_ON edge from
// the execution entity to an existing file entity. The edge write is
// best-effort: a graph failure never rolls back the temporal write.
func (s *Store) RecordExecutionOnFile(e Execution, filePath string) error {
	if err := s.validateExecution(e); err != nil {
		return err
	}
	if err := s.insertExecution(s.db, e); err != nil {
		return err
	}

	if !s.GraphAvailable() {
		return nil
	}
	entityID, err := graph.UpsertExecutionEntity(s.graph, e.ToolName, e.ID, e.TimestampMs, e.Success)
	if err != nil {
		log.Warn().Err(err).Str("execution_id", e.ID).Msg("graph entity write failed; continuing in degraded graph state")
		return nil
	}
	fileID, err := graph.FindFileEntity(s.graph, filePath)
	if err != nil {
		log.Warn().Err(err).Str("file_path", filePath).Msg("file entity not found; skipping EXECUTED_ON edge")
		return nil
	}
	if err := graph.CreateEdge(s.graph, entityID, fileID, graph.EdgeExecutedOn, map[string]any{
		"operation":    "read",
		"execution_id": e.ID,
	}); err != nil {
		log.Warn().Err(err).Msg("EXECUTED_ON edge write failed; continuing in degraded graph state")
	}
	return nil
}

func (s *Store) insertExecution(x execer, e Execution) error {
	if len(e.Arguments) == 0 {
		e.Arguments = json.RawMessage("{}")
	}
	_, err := x.Exec(
		`INSERT INTO executions (id, tool_name, arguments_json, timestamp, success, exit_code, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ToolName, string(e.Arguments), e.TimestampMs, e.Success, e.ExitCode, e.DurationMs, e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert execution %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) bestEffortGraphEntity(e Execution) {
	if !s.GraphAvailable() {
		return
	}
	if _, err := graph.UpsertExecutionEntity(s.graph, e.ToolName, e.ID, e.TimestampMs, e.Success); err != nil {
		log.Warn().Err(err).Str("execution_id", e.ID).Msg("graph entity write failed; continuing in degraded graph state")
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
