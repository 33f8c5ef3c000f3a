package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordApprovalGranted writes a synthetic execution noting that the user
// approved a gated tool invocation.
func (s *Store) RecordApprovalGranted(sessionID, tool, scope string, args json.RawMessage) error {
	ts := time.Now().UnixMilli()
	execID := fmt.Sprintf("approval_granted_%s_%s_%d", sessionID, tool, ts)

	arguments, err := json.Marshal(map[string]any{
		"session_id": sessionID,
		"tool":       tool,
		"scope":      scope,
		"args":       json.RawMessage(orEmptyObject(args)),
	})
	if err != nil {
		return fmt.Errorf("marshal approval_granted arguments: %w", err)
	}
	artifact, err := json.Marshal(map[string]any{
		"session_id": sessionID,
		"tool":       tool,
		"scope":      scope,
		"timestamp":  ts,
	})
	if err != nil {
		return fmt.Errorf("marshal approval_granted artifact: %w", err)
	}

	return s.RecordExecutionWithArtifacts(
		Execution{ID: execID, ToolName: "approval_granted", Arguments: arguments, TimestampMs: ts, Success: true},
		[]Artifact{{Type: "approval_granted", Content: artifact}},
	)
}

// RecordApprovalDenied writes a synthetic execution noting that the user
// rejected a gated tool invocation, with the reason given.
func (s *Store) RecordApprovalDenied(sessionID, tool string, args json.RawMessage, reason string) error {
	ts := time.Now().UnixMilli()
	execID := fmt.Sprintf("approval_denied_%s_%s_%d", sessionID, tool, ts)

	arguments, err := json.Marshal(map[string]any{
		"session_id": sessionID,
		"tool":       tool,
		"args":       json.RawMessage(orEmptyObject(args)),
		"reason":     reason,
	})
	if err != nil {
		return fmt.Errorf("marshal approval_denied arguments: %w", err)
	}
	artifact, err := json.Marshal(map[string]any{
		"session_id": sessionID,
		"tool":       tool,
		"reason":     reason,
		"timestamp":  ts,
	})
	if err != nil {
		return fmt.Errorf("marshal approval_denied artifact: %w", err)
	}

	return s.RecordExecutionWithArtifacts(
		Execution{ID: execID, ToolName: "approval_denied", Arguments: arguments, TimestampMs: ts, Success: true},
		[]Artifact{{Type: "approval_denied", Content: artifact}},
	)
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}
