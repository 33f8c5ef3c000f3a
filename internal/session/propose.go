package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/oldnordic/odincode/internal/evidence"
	"github.com/oldnordic/odincode/internal/llmadapter"
	"github.com/oldnordic/odincode/internal/router"
)

// buildUserPrompt assembles the text sent to the adapter: the user's
// stated intent, the optional file/diagnostic the UI has selected, and
// the evidence block the model must ground its plan in.
func buildUserPrompt(sessionCtx Context, evidenceSummary *evidence.EvidenceSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User intent: %s\n", sessionCtx.UserIntent)
	if sessionCtx.SelectedFile != nil {
		fmt.Fprintf(&b, "Selected file: %s\n", *sessionCtx.SelectedFile)
	}
	if sessionCtx.CurrentDiagnostic != nil {
		fmt.Fprintf(&b, "Current diagnostic: %s\n", *sessionCtx.CurrentDiagnostic)
	}
	if evidenceSummary != nil {
		b.WriteString("\n")
		b.WriteString(evidenceSummary.Render())
	}
	return b.String()
}

// ProposePlan generates one plan from the session's context and
// evidence. It returns the plan in memory only — the caller decides
// whether to execute it, and execution itself lives entirely outside
// this package.
func ProposePlan(ctx context.Context, adapter llmadapter.Adapter, sessionCtx Context, evidenceSummary *evidence.EvidenceSummary) (*router.Plan, error) {
	if adapter == nil {
		return nil, ErrLLMNotConfigured
	}

	prompt := buildUserPrompt(sessionCtx, evidenceSummary)
	response, err := adapter.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return router.ParsePlan(response)
}

// ProposePlanStreaming is ProposePlan's streaming counterpart: onChunk
// receives each incremental fragment as it arrives, for UI display
// during planning. The final plan is identical to the non-streamed
// version regardless of how the text arrived — streaming only affects
// UX, never semantics.
func ProposePlanStreaming(ctx context.Context, adapter llmadapter.Adapter, sessionCtx Context, evidenceSummary *evidence.EvidenceSummary, onChunk func(string)) (*router.Plan, error) {
	if adapter == nil {
		return nil, ErrLLMNotConfigured
	}

	prompt := buildUserPrompt(sessionCtx, evidenceSummary)
	response, err := adapter.GenerateStreaming(ctx, prompt, onChunk)
	if err != nil {
		return nil, err
	}
	return router.ParsePlan(response)
}
