package router

import (
	"fmt"
	"strings"

	"github.com/oldnordic/odincode/internal/odinerrors"
)

var evidenceQueryNames = map[string]bool{
	"Q1": true, "Q2": true, "Q3": true, "Q4": true, "Q5": true, "Q6": true, "Q7": true, "Q8": true,
	"list_executions_by_tool":            true,
	"list_failures_by_tool":              true,
	"find_executions_by_diagnostic_code": true,
	"find_executions_by_file":            true,
	"get_execution_details":              true,
	"get_latest_outcome_for_file":        true,
	"get_recurring_diagnostics":          true,
	"find_prior_fixes_for_diagnostic":    true,
}

// requiredArgs is the minimal argument schema per tool: the argument
// names a step must supply for the tool to be dispatchable at all.
// Tools absent from this map require no specific argument by name.
var requiredArgs = map[string][]string{
	"file_read":    {"path"},
	"file_write":   {"path", "content"},
	"file_create":  {"path", "content"},
	"file_edit":    {"path"},
	"file_search":  {"pattern"},
	"file_glob":    {"pattern"},
	"splice_patch": {"path"},
	"splice_plan":  {"path"},
	"wc":           {"path"},
	"bash_exec":    {"command"},
}

// ValidateStep checks one step's tool membership, required arguments,
// and (for the "file exists" precondition specifically) the
// filesystem. Other preconditions are declarative only: they are
// surfaced to the user but this validator does not attempt every kind
// of existence check that would require broader repository context.
func ValidateStep(s Step) error {
	if !ToolIsAllowed(s.Tool) {
		return odinerrors.New(odinerrors.KindPlanValidation, fmt.Sprintf("step %s: tool %q is not whitelisted", s.StepID, s.Tool))
	}
	for _, name := range requiredArgs[s.Tool] {
		if _, ok := s.Arguments[name]; !ok {
			return odinerrors.New(odinerrors.KindPlanValidation, fmt.Sprintf("step %s: tool %q missing required argument %q", s.StepID, s.Tool, name))
		}
	}
	if s.Precondition == "file exists" {
		path, ok := s.Arguments["path"]
		if !ok {
			return odinerrors.New(odinerrors.KindPlanValidation, fmt.Sprintf("step %s: precondition %q needs a path argument to check", s.StepID, s.Precondition))
		}
		if !CheckFileExists(path) {
			return odinerrors.New(odinerrors.KindPlanValidation, fmt.Sprintf("step %s: precondition failed: file does not exist: %s", s.StepID, path))
		}
	}
	return nil
}

// ValidatePlan validates every step and every evidence reference. It
// stops at the first failure, mirroring "reject the whole plan on any
// violation" rather than partial execution.
func ValidatePlan(p *Plan) error {
	if p.PlanID == "" {
		return odinerrors.New(odinerrors.KindPlanValidation, "plan missing plan_id")
	}
	if len(p.Steps) == 0 {
		return odinerrors.New(odinerrors.KindPlanValidation, "plan has no steps")
	}
	for _, s := range p.Steps {
		if err := ValidateStep(s); err != nil {
			return err
		}
	}
	for _, ref := range p.EvidenceReferenced {
		if !evidenceQueryNames[strings.TrimSpace(ref)] {
			return odinerrors.New(odinerrors.KindPlanValidation, fmt.Sprintf("plan references unknown evidence query %q", ref))
		}
	}
	return nil
}
