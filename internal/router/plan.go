package router

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/oldnordic/odincode/internal/odinerrors"
)

// ParsePlan turns a raw LLM response string into a Plan. Strategy,
// in order: empty input becomes a display_text/READ plan; a fenced
// code block is unwrapped; JSON-looking payloads are parsed as a
// structured plan (a parse failure downgrades to a display_text/
// EXPLAIN plan rather than erroring the turn); anything else is
// treated as prose and wrapped in a display_text plan.
func ParsePlan(raw string) (*Plan, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return displayTextPlan(IntentRead, ""), nil
	}

	trimmed = unwrapFence(trimmed)

	if strings.HasPrefix(trimmed, "{") {
		plan, err := parseJSONPlan(trimmed)
		if err != nil {
			return displayTextPlan(IntentExplain, trimmed), nil
		}
		return plan, nil
	}

	return displayTextPlan(IntentRead, trimmed), nil
}

func unwrapFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		// Drop an optional language tag on the opening fence line.
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func displayTextPlan(intent Intent, text string) *Plan {
	args := map[string]string{}
	if text != "" {
		args["text"] = text
	}
	return &Plan{
		PlanID: "plan_" + uuid.NewString(),
		Intent: intent,
		Steps: []Step{{
			StepID:               "step_1",
			Tool:                 "display_text",
			Arguments:            args,
			Precondition:         "",
			RequiresConfirmation: false,
		}},
		EvidenceReferenced: nil,
	}
}

// jsonPlan mirrors Plan's JSON shape but accepts arbitrary-typed
// argument values so they can be canonicalized to strings uniformly.
type jsonPlan struct {
	PlanID             string         `json:"plan_id"`
	Intent             string         `json:"intent"`
	Steps              []jsonPlanStep `json:"steps"`
	EvidenceReferenced []string       `json:"evidence_referenced"`
}

type jsonPlanStep struct {
	StepID               string         `json:"step_id"`
	Tool                 string         `json:"tool"`
	Arguments            map[string]any `json:"arguments"`
	Precondition         string         `json:"precondition"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
}

func parseJSONPlan(raw string) (*Plan, error) {
	var jp jsonPlan
	if err := json.Unmarshal([]byte(raw), &jp); err != nil {
		return nil, odinerrors.Wrap(odinerrors.KindPlanParse, "malformed plan JSON", err)
	}
	if jp.PlanID == "" {
		return nil, odinerrors.New(odinerrors.KindPlanParse, "plan missing plan_id")
	}
	intent, ok := ParseIntent(jp.Intent)
	if !ok {
		return nil, odinerrors.New(odinerrors.KindPlanParse, "plan has unknown intent: "+jp.Intent)
	}
	if len(jp.Steps) == 0 {
		return nil, odinerrors.New(odinerrors.KindPlanParse, "plan has no steps")
	}

	steps := make([]Step, 0, len(jp.Steps))
	for _, s := range jp.Steps {
		if s.StepID == "" || s.Tool == "" {
			return nil, odinerrors.New(odinerrors.KindPlanParse, "step missing step_id or tool")
		}
		steps = append(steps, Step{
			StepID:               s.StepID,
			Tool:                 s.Tool,
			Arguments:            canonicalizeArgs(s.Arguments),
			Precondition:         s.Precondition,
			RequiresConfirmation: s.RequiresConfirmation,
		})
	}

	return &Plan{
		PlanID:             jp.PlanID,
		Intent:             intent,
		Steps:              steps,
		EvidenceReferenced: jp.EvidenceReferenced,
	}, nil
}

func canonicalizeArgs(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
