package chatloop

import (
	"strings"

	"github.com/oldnordic/odincode/internal/router"
)

// targetFoundMarkers are the phrases an assistant's final text can
// carry to signal Explore mode found what it was looking for, ending
// the loop before the 3-call budget is reached.
var targetFoundMarkers = []string{"target found", "found it", "located at"}

// ShouldTerminate evaluates the hard, mode-specific termination rule
// for the state the loop is currently in. It never looks at step
// budgets (ShouldContinue already covers that) — only at the
// mode-specific shape of "this turn is done".
//
//   - QUERY: stops after one successful aggregate result.
//   - EXPLORE: stops at 3 tool calls, or sooner if the assistant's
//     text carries a target-found signal.
//   - MUTATION: stops on the first successful lsp_check that follows
//     the most recent mutation; a failing lsp_check keeps the loop
//     open for a retry.
//   - PRESENTATION: always stops — no tool call is valid in this mode.
func ShouldTerminate(s *LoopState, lastToolResult *ToolResultSummary, assistantText string) bool {
	switch s.CurrentPromptMode {
	case router.ModeQuery:
		return lastToolResult != nil && lastToolResult.Success
	case router.ModeExplore:
		if s.ToolCallsInMode >= 3 {
			return true
		}
		lower := strings.ToLower(assistantText)
		for _, marker := range targetFoundMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
		return false
	case router.ModeMutation:
		return lastToolResult != nil && lastToolResult.Tool == "lsp_check" && lastToolResult.Success && lastToolResult.FollowsMutation
	case router.ModePresentation:
		return true
	default:
		return false
	}
}

// ToolResultSummary is the minimal slice of a tool result the
// termination rule needs, decoupled from toolcontract.Result so
// callers can evaluate termination without round-tripping the full
// execution payload.
type ToolResultSummary struct {
	Tool            string
	Success         bool
	FollowsMutation bool
}
