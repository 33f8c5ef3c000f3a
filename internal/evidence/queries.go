package evidence

import (
	"database/sql"
	"fmt"

	"github.com/oldnordic/odincode/internal/memory"
	"github.com/oldnordic/odincode/internal/memory/graph"
	"github.com/oldnordic/odincode/internal/odinerrors"
)

// mutationToolNames is the set of tools whose execution can plausibly
// "fix" a diagnostic, for Q8's temporal-adjacency join.
var mutationToolNames = []string{"file_write", "file_create", "file_edit", "splice_patch", "splice_plan"}

// Store answers the eight evidence queries against execution memory.
// It never mutates state: every method here is a SELECT.
type Store struct {
	mem *memory.Store
}

// New builds an evidence query layer over an already-open execution
// memory store.
func New(mem *memory.Store) *Store {
	return &Store{mem: mem}
}

func wrapQueryErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return odinerrors.Wrap(odinerrors.KindStorage, fmt.Sprintf("evidence query %s", name), err)
}

// Q1 lists executions for a tool, oldest first.
func (s *Store) ListExecutionsByTool(toolName string, limit int) ([]ExecutionSummary, error) {
	rows, err := s.mem.DB().Query(
		`SELECT id, tool_name, timestamp, success, exit_code, duration_ms, error_message
		 FROM executions WHERE tool_name = ? ORDER BY timestamp ASC, id ASC LIMIT ?`,
		toolName, limit,
	)
	if err != nil {
		return nil, wrapQueryErr("Q1", err)
	}
	defer rows.Close()

	var out []ExecutionSummary
	for rows.Next() {
		var r ExecutionSummary
		if err := rows.Scan(&r.ExecutionID, &r.ToolName, &r.TimestampMs, &r.Success, &r.ExitCode, &r.DurationMs, &r.ErrorMessage); err != nil {
			return nil, wrapQueryErr("Q1", err)
		}
		out = append(out, r)
	}
	return out, wrapQueryErr("Q1", rows.Err())
}

// Q2 lists only failed executions for a tool, most recent first.
// Invariant: every returned row has Success == false by construction.
func (s *Store) ListFailuresByTool(toolName string, limit int) ([]FailureSummary, error) {
	rows, err := s.mem.DB().Query(
		`SELECT id, tool_name, timestamp, exit_code, error_message
		 FROM executions WHERE tool_name = ? AND success = 0 ORDER BY timestamp DESC, id DESC LIMIT ?`,
		toolName, limit,
	)
	if err != nil {
		return nil, wrapQueryErr("Q2", err)
	}
	defer rows.Close()

	var out []FailureSummary
	for rows.Next() {
		var r FailureSummary
		if err := rows.Scan(&r.ExecutionID, &r.ToolName, &r.TimestampMs, &r.ExitCode, &r.ErrorMessage); err != nil {
			return nil, wrapQueryErr("Q2", err)
		}
		out = append(out, r)
	}
	return out, wrapQueryErr("Q2", rows.Err())
}

// Q3 finds every execution that reported a given diagnostic code, by
// exploding the "diagnostics" artifact's JSON array via json_each.
func (s *Store) FindExecutionsByDiagnosticCode(code string, limit int) ([]DiagnosticExecution, error) {
	rows, err := s.mem.DB().Query(`
		SELECT e.id, e.tool_name, e.timestamp,
		       json_extract(je.value, '$.code'), json_extract(je.value, '$.level'),
		       json_extract(je.value, '$.message'), json_extract(je.value, '$.file')
		FROM executions e
		JOIN execution_artifacts a ON a.execution_id = e.id AND a.artifact_type = 'diagnostics'
		JOIN json_each(a.content_json) je
		WHERE json_extract(je.value, '$.code') = ?
		ORDER BY e.timestamp ASC, e.id ASC
		LIMIT ?`,
		code, limit,
	)
	if err != nil {
		return nil, wrapQueryErr("Q3", err)
	}
	defer rows.Close()

	var out []DiagnosticExecution
	for rows.Next() {
		var r DiagnosticExecution
		if err := rows.Scan(&r.ExecutionID, &r.ToolName, &r.TimestampMs, &r.DiagnosticCode, &r.DiagnosticLevel, &r.DiagnosticMessage, &r.FileName); err != nil {
			return nil, wrapQueryErr("Q3", err)
		}
		out = append(out, r)
	}
	return out, wrapQueryErr("Q3", rows.Err())
}

// Q4 finds every execution associated with a file. Dispatches to the
// relational graph when available (precise EXECUTED_ON/AFFECTED/PRODUCED
// edges) and falls back to a temporal-log argument scan otherwise.
func (s *Store) FindExecutionsByFile(filePath string, limit int) ([]FileExecution, error) {
	if s.mem.GraphAvailable() {
		// A file with no graph entity yet, or any other graph read failure,
		// degrades to the fallback rather than failing the query outright —
		// consistent with this store's non-fatal treatment of graph gaps.
		if rows, err := s.findExecutionsByFileGraph(filePath, limit); err == nil {
			return rows, nil
		}
	}
	return s.findExecutionsByFileFallback(filePath, limit)
}

func (s *Store) findExecutionsByFileGraph(filePath string, limit int) ([]FileExecution, error) {
	fileID, err := graph.FindFileEntity(s.mem.GraphDB(), filePath)
	if err != nil {
		return nil, err
	}
	rows, err := s.mem.GraphDB().Query(`
		SELECT ge.id, json_extract(ge.data_json, '$.execution_id'), json_extract(ge.data_json, '$.tool'),
		       json_extract(ge.data_json, '$.timestamp'), json_extract(ge.data_json, '$.success'), edges.edge_type
		FROM graph_edges edges
		JOIN graph_entities ge ON ge.id = edges.from_id
		WHERE edges.to_id = ? AND ge.kind = 'execution'
		ORDER BY json_extract(ge.data_json, '$.timestamp') DESC, ge.id DESC
		LIMIT ?`,
		fileID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FileExecution
	for rows.Next() {
		var entityID int64
		var r FileExecution
		if err := rows.Scan(&entityID, &r.ExecutionID, &r.ToolName, &r.TimestampMs, &r.Success, &r.EdgeType); err != nil {
			return nil, err
		}
		r.DataSource = DataSourceGraph
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) findExecutionsByFileFallback(filePath string, limit int) ([]FileExecution, error) {
	rows, err := s.mem.DB().Query(
		`SELECT id, tool_name, timestamp, success FROM executions
		 WHERE arguments_json LIKE '%' || ? || '%'
		 ORDER BY timestamp DESC, id DESC LIMIT ?`,
		filePath, limit,
	)
	if err != nil {
		return nil, wrapQueryErr("Q4", err)
	}
	defer rows.Close()

	var out []FileExecution
	for rows.Next() {
		var r FileExecution
		if err := rows.Scan(&r.ExecutionID, &r.ToolName, &r.TimestampMs, &r.Success); err != nil {
			return nil, wrapQueryErr("Q4", err)
		}
		r.DataSource = DataSourceFallback
		out = append(out, r)
	}
	return out, wrapQueryErr("Q4", rows.Err())
}

// Q5 returns everything known about one execution: its row, its
// artifacts, and (when the graph is available) its entity and outgoing
// edges.
func (s *Store) GetExecutionDetails(executionID string) (*ExecutionDetails, error) {
	var d ExecutionDetails
	var exec ExecutionRecord
	err := s.mem.DB().QueryRow(
		`SELECT id, tool_name, arguments_json, timestamp, success, exit_code, duration_ms, error_message
		 FROM executions WHERE id = ?`,
		executionID,
	).Scan(&exec.ID, &exec.ToolName, &exec.ArgumentsJSON, &exec.TimestampMs, &exec.Success, &exec.ExitCode, &exec.DurationMs, &exec.ErrorMessage)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, odinerrors.New(odinerrors.KindExecutionNotFound, fmt.Sprintf("execution %s not found", executionID))
		}
		return nil, wrapQueryErr("Q5", err)
	}
	d.Execution = exec

	rows, err := s.mem.DB().Query(
		`SELECT artifact_type, content_json FROM execution_artifacts WHERE execution_id = ? ORDER BY artifact_type ASC`,
		executionID,
	)
	if err != nil {
		return nil, wrapQueryErr("Q5", err)
	}
	for rows.Next() {
		var a ArtifactRecord
		if err := rows.Scan(&a.ArtifactType, &a.ContentJSON); err != nil {
			rows.Close()
			return nil, wrapQueryErr("Q5", err)
		}
		d.Artifacts = append(d.Artifacts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("Q5", err)
	}

	if s.mem.GraphAvailable() {
		if err := s.attachGraphDetails(&d, exec.ToolName, executionID); err != nil {
			return nil, wrapQueryErr("Q5", err)
		}
	}
	return &d, nil
}

func (s *Store) attachGraphDetails(d *ExecutionDetails, toolName, executionID string) error {
	entityName := toolName + ":" + executionID
	var entity GraphEntityRecord
	err := s.mem.GraphDB().QueryRow(
		`SELECT id, kind, name, file_path, data_json FROM graph_entities WHERE kind = 'execution' AND name = ?`,
		entityName,
	).Scan(&entity.EntityID, &entity.Kind, &entity.Name, &entity.FilePath, &entity.Data)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	d.GraphEntity = &entity

	rows, err := s.mem.GraphDB().Query(`
		SELECT edges.id, edges.edge_type, target.id, target.kind, target.name
		FROM graph_edges edges
		JOIN graph_entities target ON target.id = edges.to_id
		WHERE edges.from_id = ?
		ORDER BY edges.edge_type ASC, edges.to_id ASC`,
		entity.EntityID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var e GraphEdgeRecord
		if err := rows.Scan(&e.EdgeID, &e.EdgeType, &e.TargetEntityID, &e.TargetKind, &e.TargetName); err != nil {
			return err
		}
		d.GraphEdges = append(d.GraphEdges, e)
	}
	return rows.Err()
}

// Q6 is Q4 narrowed to the single most recent outcome for a file.
func (s *Store) GetLatestOutcomeForFile(filePath string) (*LatestFileOutcome, error) {
	results, err := s.FindExecutionsByFile(filePath, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	r := results[0]
	return &LatestFileOutcome{
		ExecutionID: r.ExecutionID, ToolName: r.ToolName, TimestampMs: r.TimestampMs,
		Success: r.Success, EdgeType: r.EdgeType, DataSource: r.DataSource,
	}, nil
}

// Q7 finds (code, file) diagnostic pairs reported at least
// minOccurrences times across all diagnostics artifacts, most frequent
// first. Every reported entry counts, so one execution that reports
// the same pair twice contributes two occurrences.
func (s *Store) GetRecurringDiagnostics(minOccurrences, limit int) ([]RecurringDiagnostic, error) {
	rows, err := s.mem.DB().Query(`
		SELECT json_extract(je.value, '$.code') AS code, json_extract(je.value, '$.file') AS file,
		       COUNT(*) AS occurrences, MIN(e.timestamp), MAX(e.timestamp), GROUP_CONCAT(e.id)
		FROM executions e
		JOIN execution_artifacts a ON a.execution_id = e.id AND a.artifact_type = 'diagnostics'
		JOIN json_each(a.content_json) je
		GROUP BY code, file
		HAVING occurrences >= ?
		ORDER BY occurrences DESC, code ASC, file ASC
		LIMIT ?`,
		minOccurrences, limit,
	)
	if err != nil {
		return nil, wrapQueryErr("Q7", err)
	}
	defer rows.Close()

	var out []RecurringDiagnostic
	for rows.Next() {
		var r RecurringDiagnostic
		var idList string
		if err := rows.Scan(&r.DiagnosticCode, &r.FileName, &r.OccurrenceCount, &r.FirstSeenMs, &r.LastSeenMs, &idList); err != nil {
			return nil, wrapQueryErr("Q7", err)
		}
		r.ExecutionIDs = splitCSV(idList)
		out = append(out, r)
	}
	return out, wrapQueryErr("Q7", rows.Err())
}

// Q8 finds mutation executions that happened strictly after a given
// diagnostic-reporting execution, on the same file, ordered soonest
// first. This is temporal adjacency, never inferred causality: a
// returned row means "this mutation followed that diagnostic", nothing
// stronger.
func (s *Store) FindPriorFixesForDiagnostic(diagnosticExecutionID string, limit int) ([]PriorFix, error) {
	var diagTimestamp int64
	var diagFile sql.NullString
	err := s.mem.DB().QueryRow(`
		SELECT e.timestamp, json_extract(je.value, '$.file')
		FROM executions e
		JOIN execution_artifacts a ON a.execution_id = e.id AND a.artifact_type = 'diagnostics'
		JOIN json_each(a.content_json) je
		WHERE e.id = ?
		LIMIT 1`,
		diagnosticExecutionID,
	).Scan(&diagTimestamp, &diagFile)
	if err == sql.ErrNoRows {
		return nil, odinerrors.New(odinerrors.KindExecutionNotFound, fmt.Sprintf("diagnostic execution %s not found", diagnosticExecutionID))
	}
	if err != nil {
		return nil, wrapQueryErr("Q8", err)
	}
	if !diagFile.Valid {
		return nil, nil
	}

	placeholders := ""
	args := []any{diagTimestamp, "%" + diagFile.String + "%"}
	for i, name := range mutationToolNames {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, name)
	}
	args = append(args, limit)

	rows, err := s.mem.DB().Query(fmt.Sprintf(`
		SELECT id, tool_name, timestamp, success
		FROM executions
		WHERE timestamp > ? AND arguments_json LIKE ? AND tool_name IN (%s)
		ORDER BY timestamp ASC, id ASC
		LIMIT ?`, placeholders),
		args...,
	)
	if err != nil {
		return nil, wrapQueryErr("Q8", err)
	}
	defer rows.Close()

	var out []PriorFix
	for rows.Next() {
		var r PriorFix
		if err := rows.Scan(&r.ExecutionID, &r.ToolName, &r.TimestampMs, &r.Success); err != nil {
			return nil, wrapQueryErr("Q8", err)
		}
		r.DiagnosticExecutionID = diagnosticExecutionID
		r.TemporalGapMs = r.TimestampMs - diagTimestamp
		out = append(out, r)
	}
	return out, wrapQueryErr("Q8", rows.Err())
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
