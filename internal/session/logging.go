package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oldnordic/odincode/internal/memory"
	"github.com/oldnordic/odincode/internal/router"
)

// LogPlanGeneration records one llm_plan execution: the user intent
// and a plan summary (plan id, intent, step count, evidence
// references), plus a validation_error artifact when validationError
// is non-empty. Logging succeeds even when the plan itself failed
// validation — the record of what was rejected, and why, is the point.
func LogPlanGeneration(mem *memory.Store, userIntent string, plan router.Plan, validationError string) error {
	ts := time.Now().UnixMilli()
	execID := fmt.Sprintf("llm_plan_%s", plan.PlanID)

	arguments, err := json.Marshal(map[string]any{
		"plan_id":        plan.PlanID,
		"intent":         plan.Intent,
		"step_count":     len(plan.Steps),
		"evidence_cited": len(plan.EvidenceReferenced),
	})
	if err != nil {
		return fmt.Errorf("marshal llm_plan arguments: %w", err)
	}

	promptArtifact, err := json.Marshal(map[string]any{
		"user_intent": userIntent,
		"intent":      plan.Intent,
		"timestamp":   ts,
	})
	if err != nil {
		return fmt.Errorf("marshal prompt artifact: %w", err)
	}
	planArtifact, err := json.Marshal(map[string]any{
		"plan_id":             plan.PlanID,
		"intent":              plan.Intent,
		"steps":               len(plan.Steps),
		"evidence_referenced": plan.EvidenceReferenced,
	})
	if err != nil {
		return fmt.Errorf("marshal plan artifact: %w", err)
	}

	artifacts := []memory.Artifact{
		{Type: "prompt", Content: promptArtifact},
		{Type: "plan", Content: planArtifact},
	}
	if validationError != "" {
		errArtifact, err := json.Marshal(map[string]any{"error": validationError})
		if err != nil {
			return fmt.Errorf("marshal validation_error artifact: %w", err)
		}
		artifacts = append(artifacts, memory.Artifact{Type: "validation_error", Content: errArtifact})
	}

	return mem.RecordExecutionWithArtifacts(
		memory.Execution{ID: execID, ToolName: "llm_plan", Arguments: arguments, TimestampMs: ts, Success: true},
		artifacts,
	)
}

// LogStreamChunk records one streaming fragment as an llm_plan_stream
// artifact under its own llm_plan execution row, associated with the
// turn's user intent rather than a specific plan (the plan doesn't
// exist yet while its text is still streaming in).
func LogStreamChunk(mem *memory.Store, userIntent, chunk string) error {
	now := time.Now()
	ts := now.UnixMilli()
	chunkID := fmt.Sprintf("llm_plan_stream_%x", now.UnixNano())

	arguments, err := json.Marshal(map[string]any{
		"user_intent":  userIntent,
		"chunk_length": len(chunk),
	})
	if err != nil {
		return fmt.Errorf("marshal llm_plan_stream arguments: %w", err)
	}
	artifact, err := json.Marshal(map[string]any{
		"chunk":     chunk,
		"timestamp": ts,
	})
	if err != nil {
		return fmt.Errorf("marshal llm_plan_stream artifact: %w", err)
	}

	return mem.RecordExecutionWithArtifacts(
		memory.Execution{ID: chunkID, ToolName: "llm_plan", Arguments: arguments, TimestampMs: ts, Success: true},
		[]memory.Artifact{{Type: "llm_plan_stream", Content: artifact}},
	)
}

// LogPlanEdit records a plan_edit artifact linking a re-proposed plan
// back to the original it replaced, with the user's stated reason.
func LogPlanEdit(mem *memory.Store, originalPlanID string, editedPlan router.Plan, editReason string) error {
	now := time.Now()
	ts := now.UnixMilli()
	editID := fmt.Sprintf("plan_edit_%x", now.UnixNano())

	arguments, err := json.Marshal(map[string]any{
		"original_plan_id": originalPlanID,
		"edited_plan_id":   editedPlan.PlanID,
		"edit_reason":      editReason,
	})
	if err != nil {
		return fmt.Errorf("marshal plan_edit arguments: %w", err)
	}
	artifact, err := json.Marshal(map[string]any{
		"original_plan_id": originalPlanID,
		"edited_plan":      editedPlan,
		"edit_reason":      editReason,
		"timestamp":        ts,
	})
	if err != nil {
		return fmt.Errorf("marshal plan_edit artifact: %w", err)
	}

	return mem.RecordExecutionWithArtifacts(
		memory.Execution{ID: editID, ToolName: "llm_plan", Arguments: arguments, TimestampMs: ts, Success: true},
		[]memory.Artifact{{Type: "plan_edit", Content: artifact}},
	)
}
