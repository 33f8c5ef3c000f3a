// Package graph implements the relational graph store collaborator:
// execution/file/symbol entities and the typed, forbidden-pattern-checked
// edges between them. It is opened and owned by internal/memory and is
// never required — callers degrade to "graph-missing" mode when it is
// absent.
package graph

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Entity kinds, per the data model.
const (
	KindExecution   = "execution"
	KindFile        = "file"
	KindSymbol      = "Symbol"
	KindChatSession = "chat_session"
	KindChatMessage = "chat_message"
	KindChatSummary = "chat_summary"
)

// Edge types, per the data model.
const (
	EdgeExecutedOn   = "EXECUTED_ON"
	EdgeAffected     = "AFFECTED"
	EdgeProduced     = "PRODUCED"
	EdgeReferenced   = "REFERENCED"
	EdgeAskedAbout   = "ASKED_ABOUT"
	EdgeMentionsFile = "MENTIONED_FILE"
	EdgeCompactedTo  = "COMPACTED_TO"
)

var validEdgeTypes = map[string]bool{
	EdgeExecutedOn:   true,
	EdgeAffected:     true,
	EdgeProduced:     true,
	EdgeReferenced:   true,
	EdgeAskedAbout:   true,
	EdgeMentionsFile: true,
	EdgeCompactedTo:  true,
}

// ErrForbiddenEdge is returned when an edge would violate a forbidden
// kind-pair pattern.
type ErrForbiddenEdge struct {
	FromKind, ToKind string
}

func (e *ErrForbiddenEdge) Error() string {
	return fmt.Sprintf("forbidden edge pattern: %s -> %s", e.FromKind, e.ToKind)
}

// UpsertExecutionEntity creates an execution entity. Execution entities
// are write-once per execution id; this always inserts a new row, mirroring
// the original's "one entity per recorded execution" behavior.
func UpsertExecutionEntity(db *sql.DB, toolName, executionID string, timestampMs int64, success bool) (int64, error) {
	data, err := json.Marshal(map[string]any{
		"tool":         toolName,
		"timestamp":    timestampMs,
		"success":      success,
		"execution_id": executionID,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal execution entity data: %w", err)
	}
	name := fmt.Sprintf("%s:%s", toolName, executionID)
	res, err := db.Exec(
		`INSERT INTO graph_entities (kind, name, file_path, data_json) VALUES (?, ?, NULL, ?)`,
		KindExecution, name, string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("insert execution entity: %w", err)
	}
	return res.LastInsertId()
}

// FindFileEntity looks up an existing file entity by path.
func FindFileEntity(db *sql.DB, filePath string) (int64, error) {
	var id int64
	err := db.QueryRow(
		`SELECT id FROM graph_entities WHERE kind = ? AND name = ?`,
		KindFile, filePath,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("find file entity %s: %w", filePath, err)
	}
	return id, nil
}

func entityKind(db *sql.DB, id int64) (string, error) {
	var kind string
	err := db.QueryRow(`SELECT kind FROM graph_entities WHERE id = ?`, id).Scan(&kind)
	if err != nil {
		return "", fmt.Errorf("entity %d not found: %w", id, err)
	}
	return kind, nil
}

// CreateEdge validates the edge type and the forbidden-pattern rule, then
// inserts the edge. Forbidden: execution -> execution, Symbol -> execution,
// diagnostic -> execution (no "diagnostic" entity kind currently exists,
// so that arm is defensive rather than reachable).
func CreateEdge(db *sql.DB, fromID, toID int64, edgeType string, data map[string]any) error {
	if !validEdgeTypes[edgeType] {
		return fmt.Errorf("invalid edge_type: %s", edgeType)
	}

	fromKind, err := entityKind(db, fromID)
	if err != nil {
		return err
	}
	toKind, err := entityKind(db, toID)
	if err != nil {
		return err
	}
	if (fromKind == KindExecution && toKind == KindExecution) ||
		(fromKind == KindSymbol && toKind == KindExecution) ||
		(fromKind == "diagnostic" && toKind == KindExecution) {
		return &ErrForbiddenEdge{FromKind: fromKind, ToKind: toKind}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal edge data: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO graph_edges (from_id, to_id, edge_type, data_json) VALUES (?, ?, ?, ?)`,
		fromID, toID, edgeType, string(payload),
	); err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}
