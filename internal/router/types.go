package router

import "time"

// Intent is the planning-hint classification attached to a Plan. It is
// not a command and carries no authority of its own.
type Intent string

const (
	IntentRead    Intent = "READ"
	IntentMutate  Intent = "MUTATE"
	IntentQuery   Intent = "QUERY"
	IntentExplain Intent = "EXPLAIN"
)

// ParseIntent accepts exactly the four canonical spellings.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentRead, IntentMutate, IntentQuery, IntentExplain:
		return Intent(s), true
	default:
		return "", false
	}
}

// PromptMode is the internal, injected policy that constrains tool
// dispatch for the remainder of a loop turn. It is derived once from
// the user's utterance and never visible to the user directly.
type PromptMode string

const (
	ModeQuery        PromptMode = "QUERY"
	ModeExplore      PromptMode = "EXPLORE"
	ModeMutation     PromptMode = "MUTATION"
	ModePresentation PromptMode = "PRESENTATION"
)

var modeAllowedTools = map[PromptMode][]string{
	ModeQuery:        {"count_files", "count_lines", "fs_stats", "wc", "memory_query"},
	ModeExplore:      {"file_search", "file_glob", "symbols_in_file", "references_to_symbol_name", "references_from_file_to_symbol_name", "file_read"},
	ModeMutation:     {"memory_query", "magellan_query", "file_edit", "splice_patch", "lsp_check", "bash_exec"},
	ModePresentation: {},
}

var modeForbiddenTools = map[PromptMode][]string{
	ModeQuery: {
		"file_read", "file_search", "symbols_in_file", "references_to_symbol_name",
		"references_from_file_to_symbol_name", "splice_patch", "splice_plan",
		"file_edit", "file_write", "git_status", "git_diff", "git_log", "git_commit",
	},
	ModeExplore: {
		"splice_patch", "splice_plan", "file_edit", "file_write", "file_create",
		"git_commit", "bash_exec",
	},
	ModeMutation: {},
	ModePresentation: {
		"file_read", "file_write", "file_create", "file_search", "file_glob",
		"symbols_in_file", "references_to_symbol_name", "references_from_file_to_symbol_name",
		"splice_patch", "splice_plan", "file_edit", "lsp_check", "bash_exec",
		"git_status", "git_diff", "git_log", "git_commit", "memory_query",
		"count_files", "count_lines", "fs_stats", "wc",
	},
}

var modeMaxToolCalls = map[PromptMode]int{
	ModeQuery:        2,
	ModeExplore:      3,
	ModeMutation:     5,
	ModePresentation: 0,
}

// AllowedTools returns the tools this mode permits.
func (m PromptMode) AllowedTools() []string { return modeAllowedTools[m] }

// ForbiddenTools returns the tools this mode explicitly denies, which
// take precedence over AllowedTools when both would otherwise apply.
func (m PromptMode) ForbiddenTools() []string { return modeForbiddenTools[m] }

// MaxToolCalls is the per-turn tool-call budget for this mode.
func (m PromptMode) MaxToolCalls() int { return modeMaxToolCalls[m] }

// DisplayName is a human-facing label for the mode.
func (m PromptMode) DisplayName() string {
	switch m {
	case ModeQuery:
		return "Query Mode"
	case ModeExplore:
		return "Explore Mode"
	case ModeMutation:
		return "Mutation Mode"
	case ModePresentation:
		return "Presentation Mode"
	default:
		return string(m)
	}
}

// Step is one tool invocation within a Plan.
type Step struct {
	StepID               string            `json:"step_id"`
	Tool                 string            `json:"tool"`
	Arguments            map[string]string `json:"arguments"`
	Precondition         string            `json:"precondition"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
}

// Plan is the structured output an LLM response is parsed into before
// any tool runs. The system validates it; the LLM never executes
// anything directly.
type Plan struct {
	PlanID             string   `json:"plan_id"`
	Intent             Intent   `json:"intent"`
	Steps              []Step   `json:"steps"`
	EvidenceReferenced []string `json:"evidence_referenced"`
}

// AuthorizationStatus tracks user approval of a Plan.
type AuthorizationStatus string

const (
	AuthorizationPending  AuthorizationStatus = "pending"
	AuthorizationApproved AuthorizationStatus = "approved"
	AuthorizationRejected AuthorizationStatus = "rejected"
)

// PlanAuthorization is a plan's approval state. An LLM cannot cause
// execution without this reaching AuthorizationApproved.
type PlanAuthorization struct {
	PlanID string
	Status AuthorizationStatus
}

func NewPlanAuthorization(planID string) *PlanAuthorization {
	return &PlanAuthorization{PlanID: planID, Status: AuthorizationPending}
}

func (a *PlanAuthorization) IsApproved() bool { return a.Status == AuthorizationApproved }
func (a *PlanAuthorization) Approve()         { a.Status = AuthorizationApproved }
func (a *PlanAuthorization) Reject()          { a.Status = AuthorizationRejected }
func (a *PlanAuthorization) Revoke()          { a.Status = AuthorizationRejected }

// TimelinePosition tells the LLM where it is in execution history
// before it takes any action. This is database position, not
// conversational context.
type TimelinePosition struct {
	CurrentStep            int
	TotalExecutions        int
	LastExecutionID        string
	LastExecutionTool      string
	LastExecutionSuccess   bool
	LastExecutionError     *string
	LastExecutionTimestamp int64
	TimeSinceLastQueryMs   int64
	PendingFailureCount    int
}

// RequiresGrounding reports whether a mutation-tool step needs a fresh
// memory_query first: mutation tools must not run on stale history.
func (t TimelinePosition) RequiresGrounding(isMutation bool) bool {
	return isMutation && t.TimeSinceLastQueryMs > 10_000
}

// InitialTimelinePosition is the position before any execution exists.
func InitialTimelinePosition() TimelinePosition {
	now := time.Now().UnixMilli()
	return TimelinePosition{
		LastExecutionID:        "none",
		LastExecutionTool:      "none",
		LastExecutionSuccess:   true,
		LastExecutionTimestamp: now,
		TimeSinceLastQueryMs:   now,
	}
}
