package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oldnordic/odincode/internal/router"
)

// RenderPlanForUI is a pure function with no side effects: the caller
// displays its output to the user for review before any approval
// decision is made.
func RenderPlanForUI(plan router.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposed Plan: %s\n", plan.PlanID)
	fmt.Fprintf(&b, "Intent: %s\n\n", plan.Intent)

	for idx, step := range plan.Steps {
		fmt.Fprintf(&b, "Step %d: %s\n", idx+1, step.Tool)
		fmt.Fprintf(&b, "  Tool: %s\n", step.Tool)

		keys := make([]string, 0, len(step.Arguments))
		for k := range step.Arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, step.Arguments[k])
		}

		fmt.Fprintf(&b, "  Precondition: %s\n", step.Precondition)
		if step.RequiresConfirmation {
			b.WriteString("  Requires confirmation: YES\n")
		}
		b.WriteString("\n")
	}

	if len(plan.EvidenceReferenced) > 0 {
		fmt.Fprintf(&b, "Evidence cited: %s\n", strings.Join(plan.EvidenceReferenced, ", "))
	}

	return b.String()
}
