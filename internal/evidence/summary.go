package evidence

import (
	"fmt"
	"strings"
)

// EvidenceSummary aggregates a fixed set of query results into the
// single deterministic block injected into prompts before a mutation
// step, so the model reasons from recorded fact rather than recall.
type EvidenceSummary struct {
	Tool              string
	RecentExecutions  []ExecutionSummary
	RecentFailures    []FailureSummary
	DiagnosticHits    []DiagnosticExecution
	FileHistory       []FileExecution
	LatestFileOutcome *LatestFileOutcome
	RecurringIssues   []RecurringDiagnostic
	PriorFixes        []PriorFix
}

// BuildFileFocusedSummary runs Q1, Q2, Q4, Q6 and Q7 for one tool/file
// pair, the shape used before a mutation tool is dispatched against a
// specific file.
func (s *Store) BuildFileFocusedSummary(toolName, filePath string, limit int) (*EvidenceSummary, error) {
	sum := &EvidenceSummary{Tool: toolName}

	var err error
	if sum.RecentExecutions, err = s.ListExecutionsByTool(toolName, limit); err != nil {
		return nil, err
	}
	if sum.RecentFailures, err = s.ListFailuresByTool(toolName, limit); err != nil {
		return nil, err
	}
	if sum.FileHistory, err = s.FindExecutionsByFile(filePath, limit); err != nil {
		return nil, err
	}
	if sum.LatestFileOutcome, err = s.GetLatestOutcomeForFile(filePath); err != nil {
		return nil, err
	}
	if sum.RecurringIssues, err = s.GetRecurringDiagnostics(2, limit); err != nil {
		return nil, err
	}
	return sum, nil
}

// BuildDiagnosticFocusedSummary runs Q3, Q7, Q8 for a diagnostic code,
// the shape used when a diagnostic is being investigated or a fix is
// proposed for it.
func (s *Store) BuildDiagnosticFocusedSummary(code string, limit int) (*EvidenceSummary, error) {
	sum := &EvidenceSummary{}

	var err error
	if sum.DiagnosticHits, err = s.FindExecutionsByDiagnosticCode(code, limit); err != nil {
		return nil, err
	}
	if sum.RecurringIssues, err = s.GetRecurringDiagnostics(2, limit); err != nil {
		return nil, err
	}
	for _, hit := range sum.DiagnosticHits {
		fixes, err := s.FindPriorFixesForDiagnostic(hit.ExecutionID, limit)
		if err != nil {
			return nil, err
		}
		sum.PriorFixes = append(sum.PriorFixes, fixes...)
	}
	return sum, nil
}

// Render produces a deterministic, fixed-shape text block. Sections
// with no results are omitted entirely rather than printed empty, so
// the rendered block's length tracks the evidence actually found.
func (s *EvidenceSummary) Render() string {
	var b strings.Builder
	b.WriteString("## Evidence\n")

	if len(s.RecentExecutions) > 0 {
		fmt.Fprintf(&b, "### Recent executions of %s\n", s.Tool)
		for _, e := range s.RecentExecutions {
			fmt.Fprintf(&b, "- %s at %d: success=%t\n", e.ExecutionID, e.TimestampMs, e.Success)
		}
	}
	if len(s.RecentFailures) > 0 {
		fmt.Fprintf(&b, "### Recent failures of %s\n", s.Tool)
		for _, f := range s.RecentFailures {
			msg := ""
			if f.ErrorMessage != nil {
				msg = *f.ErrorMessage
			}
			fmt.Fprintf(&b, "- %s at %d: %s\n", f.ExecutionID, f.TimestampMs, msg)
		}
	}
	if len(s.DiagnosticHits) > 0 {
		b.WriteString("### Executions reporting this diagnostic\n")
		for _, d := range s.DiagnosticHits {
			fmt.Fprintf(&b, "- %s (%s) at %d in %s: %s\n", d.ExecutionID, d.DiagnosticLevel, d.TimestampMs, d.FileName, d.DiagnosticMessage)
		}
	}
	if len(s.FileHistory) > 0 {
		b.WriteString("### File history\n")
		for _, f := range s.FileHistory {
			fmt.Fprintf(&b, "- %s (%s, source=%s) at %d: success=%t\n", f.ExecutionID, f.ToolName, f.DataSource, f.TimestampMs, f.Success)
		}
	}
	if s.LatestFileOutcome != nil {
		o := s.LatestFileOutcome
		fmt.Fprintf(&b, "### Latest outcome (source=%s)\n- %s (%s) at %d: success=%t\n", o.DataSource, o.ExecutionID, o.ToolName, o.TimestampMs, o.Success)
	}
	if len(s.RecurringIssues) > 0 {
		b.WriteString("### Recurring diagnostics\n")
		for _, r := range s.RecurringIssues {
			fmt.Fprintf(&b, "- %s in %s: seen %d times (first %d, last %d)\n", r.DiagnosticCode, r.FileName, r.OccurrenceCount, r.FirstSeenMs, r.LastSeenMs)
		}
	}
	if len(s.PriorFixes) > 0 {
		b.WriteString("### Prior fixes following a diagnostic\n")
		for _, p := range s.PriorFixes {
			fmt.Fprintf(&b, "- %s (%s) %dms after %s: success=%t\n", p.ExecutionID, p.ToolName, p.TemporalGapMs, p.DiagnosticExecutionID, p.Success)
		}
	}
	return b.String()
}
