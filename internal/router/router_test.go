package router

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitelistHasExpectedCount(t *testing.T) {
	assert.Len(t, ToolWhitelist, 20)
}

func TestToolIsAllowed(t *testing.T) {
	assert.True(t, ToolIsAllowed("file_read"))
	assert.True(t, ToolIsAllowed("lsp_check"))
	assert.False(t, ToolIsAllowed("unknown_tool"))
}

// TestPreconditionsDefined mirrors the original's test_preconditions_defined:
// every whitelisted tool has at least one precondition except display_text,
// which must have none.
func TestPreconditionsDefined(t *testing.T) {
	for _, tool := range ToolWhitelist {
		pre := PreconditionsForTool(tool)
		if tool == "display_text" {
			assert.Empty(t, pre, "display_text should have no preconditions")
		} else {
			assert.NotEmpty(t, pre, "tool %s must have preconditions", tool)
		}
	}
}

func TestClassifyPromptModeExploreBeatsQueryOnListFilesIn(t *testing.T) {
	// "list files in src/" contains both an Explore keyword ("list") and
	// could be misread as Query; Explore must win per priority order.
	assert.Equal(t, ModeExplore, ClassifyPromptMode("list files in src/"))
}

func TestClassifyPromptModePriorityOrder(t *testing.T) {
	assert.Equal(t, ModeExplore, ClassifyPromptMode("where is the main function"))
	assert.Equal(t, ModeMutation, ClassifyPromptMode("fix the off-by-one bug"))
	assert.Equal(t, ModeQuery, ClassifyPromptMode("how many lines of code are there"))
	assert.Equal(t, ModeExplore, ClassifyPromptMode("hello there"), "unmatched input defaults to Explore")
}

func TestToolAllowedInModeForbiddenWins(t *testing.T) {
	assert.False(t, ToolAllowedInMode("bash_exec", ModeExplore), "bash_exec is forbidden in Explore even though Mutation allows it")
	assert.True(t, ToolAllowedInMode("bash_exec", ModeMutation))
}

func TestToolsForIntent(t *testing.T) {
	assert.Contains(t, ToolsForIntent(IntentRead), "file_read")
	assert.Contains(t, ToolsForIntent(IntentMutate), "splice_patch")
	assert.Contains(t, ToolsForIntent(IntentQuery), "file_search")
}

func TestParsePlanEmptyInputSynthesizesDisplayText(t *testing.T) {
	plan, err := ParsePlan("   ")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "display_text", plan.Steps[0].Tool)
	assert.Equal(t, IntentRead, plan.Intent)
}

func TestParsePlanValidJSON(t *testing.T) {
	raw := `{"plan_id":"plan_1","intent":"READ","steps":[{"step_id":"s1","tool":"file_read","arguments":{"path":"a.go"},"precondition":"file exists","requires_confirmation":false}],"evidence_referenced":[]}`
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "plan_1", plan.PlanID)
	assert.Equal(t, IntentRead, plan.Intent)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "file_read", plan.Steps[0].Tool)
	assert.Equal(t, "a.go", plan.Steps[0].Arguments["path"])
}

func TestParsePlanUnwrapsFencedCodeBlock(t *testing.T) {
	raw := "```json\n{\"plan_id\":\"plan_2\",\"intent\":\"EXPLAIN\",\"steps\":[{\"step_id\":\"s1\",\"tool\":\"display_text\",\"arguments\":{},\"precondition\":\"\",\"requires_confirmation\":false}],\"evidence_referenced\":[]}\n```"
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "plan_2", plan.PlanID)
}

func TestParsePlanMalformedJSONDowngradesToExplainDisplayText(t *testing.T) {
	plan, err := ParsePlan(`{"plan_id": not valid json`)
	require.NoError(t, err)
	assert.Equal(t, IntentExplain, plan.Intent)
	assert.Equal(t, "display_text", plan.Steps[0].Tool)
}

func TestParsePlanProseWrapsInDisplayText(t *testing.T) {
	plan, err := ParsePlan("The answer is 42.")
	require.NoError(t, err)
	assert.Equal(t, "display_text", plan.Steps[0].Tool)
	assert.Equal(t, "The answer is 42.", plan.Steps[0].Arguments["text"])
}

func TestValidateStepRejectsUnwhitelistedTool(t *testing.T) {
	err := ValidateStep(Step{StepID: "s1", Tool: "rm_rf"})
	require.Error(t, err)
}

func TestValidateStepRejectsMissingRequiredArgument(t *testing.T) {
	err := ValidateStep(Step{StepID: "s1", Tool: "file_read", Arguments: map[string]string{}})
	require.Error(t, err)
}

func TestValidateStepChecksFileExistsPrecondition(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.go")

	err := ValidateStep(Step{
		StepID: "s1", Tool: "file_read", Precondition: "file exists",
		Arguments: map[string]string{"path": missing},
	})
	require.Error(t, err)
}

func TestValidatePlanRejectsUnknownEvidenceReference(t *testing.T) {
	plan := &Plan{
		PlanID: "plan_1",
		Steps:  []Step{{StepID: "s1", Tool: "display_text"}},
		EvidenceReferenced: []string{"Q99"},
	}
	err := ValidatePlan(plan)
	require.Error(t, err)
}

func TestValidatePlanAcceptsShortAndLongEvidenceNames(t *testing.T) {
	plan := &Plan{
		PlanID:             "plan_1",
		Steps:              []Step{{StepID: "s1", Tool: "display_text"}},
		EvidenceReferenced: []string{"Q1", "find_prior_fixes_for_diagnostic"},
	}
	require.NoError(t, ValidatePlan(plan))
}
