package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oldnordic/odincode/internal/config"
	"github.com/oldnordic/odincode/internal/llmadapter"
	"github.com/oldnordic/odincode/internal/memory"
)

// PreflightOutcome is the result of one capability probe.
type PreflightOutcome struct {
	Provider  string
	Responded bool
	Err       error
}

// RunPreflight probes the configured adapter once at session start —
// a single trivial Generate call — to confirm the configured provider
// actually responds before the main loop is entered, and records the
// outcome as an llm_preflight execution. Unlike the main chat loop's
// llm_plan executions, a failed probe is still logged as Success:true
// (the probe itself ran to completion); Responded carries whether the
// adapter call succeeded.
//
// This replaces the original's interactive first-run configuration
// wizard (stdin prompts writing config.toml) with just the capability
// check: config.toml authoring is a CLI/UI concern outside this
// package, which only cares whether the adapter the config already
// names is reachable.
func RunPreflight(ctx context.Context, mem *memory.Store, cfg config.AdapterConfig) PreflightOutcome {
	outcome := PreflightOutcome{Provider: cfg.Provider}

	adapter, err := llmadapter.NewFromConfig(cfg)
	if err != nil {
		outcome.Err = err
	} else if _, genErr := adapter.Generate(ctx, "ping"); genErr != nil {
		outcome.Err = genErr
	} else {
		outcome.Responded = true
	}

	_ = logPreflightDecision(mem, outcome)
	return outcome
}

func logPreflightDecision(mem *memory.Store, outcome PreflightOutcome) error {
	decision := fmt.Sprintf("%s|%t", outcome.Provider, outcome.Responded)
	ts := time.Now().UnixMilli()
	execID := fmt.Sprintf("llm_preflight_%x", ts)

	var errMsg string
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}

	arguments, err := json.Marshal(map[string]any{
		"provider":  outcome.Provider,
		"responded": outcome.Responded,
	})
	if err != nil {
		return err
	}
	artifact, err := json.Marshal(map[string]any{
		"decision":  decision,
		"provider":  outcome.Provider,
		"responded": outcome.Responded,
		"error":     errMsg,
	})
	if err != nil {
		return err
	}

	return mem.RecordExecutionWithArtifacts(
		memory.Execution{ID: execID, ToolName: "llm_preflight", Arguments: arguments, TimestampMs: ts, Success: true},
		[]memory.Artifact{{Type: "llm_preflight", Content: artifact}},
	)
}
