package chatloop

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/odincode/internal/llmadapter"
	"github.com/oldnordic/odincode/internal/memory"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/toolcontract"
)

// scriptedAdapter emits a single TOOL_CALL-bearing response (or plain
// text, for the no-call case) as one text-delta event followed by a
// finish event, ignoring the messages array — it exists to drive
// RunStep deterministically, not to exercise the real adapters.
type scriptedAdapter struct {
	replies []string
	calls   int
}

func (a *scriptedAdapter) next() string {
	if a.calls >= len(a.replies) {
		return a.replies[len(a.replies)-1]
	}
	r := a.replies[a.calls]
	a.calls++
	return r
}

func (a *scriptedAdapter) Generate(ctx context.Context, prompt string) (string, error) { return "", nil }
func (a *scriptedAdapter) GenerateStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return "", nil
}
func (a *scriptedAdapter) GenerateChatStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return "", nil
}
func (a *scriptedAdapter) GenerateChatStreamingEvents(ctx context.Context, messages []llmadapter.Message, onEvent func(llmadapter.StreamingEvent)) (string, error) {
	text := a.next()
	onEvent(llmadapter.StreamingEvent{Kind: llmadapter.EventTextDelta, Text: text})
	onEvent(llmadapter.StreamingEvent{Kind: llmadapter.EventFinish, FinishReason: "stop"})
	return text, nil
}
func (a *scriptedAdapter) SupportsStreaming() bool { return true }
func (a *scriptedAdapter) ProviderName() string    { return "scripted" }

// fakeExecutor returns a canned Result for whatever tool is asked,
// recording every call it received so tests can assert on them.
type fakeExecutor struct {
	result toolcontract.Result
	err    error
	calls  []string
}

func (e *fakeExecutor) Execute(tool string, args map[string]string) (toolcontract.Result, error) {
	e.calls = append(e.calls, tool)
	r := e.result
	r.Tool = tool
	return r, e.err
}

func openTestMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := memory.Open(filepath.Join(dir, "mem"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunStepNoToolCallTerminatesWithFinalText(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{"There are 3 files in this directory."}}
	s := New("session-1", "how many files are there", 5)
	s.CurrentPromptMode = router.ModeQuery

	outcome, err := RunStep(context.Background(), s, Deps{Adapter: adapter})
	require.NoError(t, err)
	assert.True(t, outcome.Terminated)
	assert.Equal(t, "There are 3 files in this directory.", outcome.FinalText)
	assert.False(t, s.Active)
}

func TestRunStepExecutesToolCallAndRecordsExecution(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{
		"Let me look.\n\nTOOL_CALL:\n  tool: file_read\n  args:\n    path: src/main.rs\n",
	}}
	exec := &fakeExecutor{result: toolcontract.Result{Success: true, OutputFull: "package main", Kind: toolcontract.KindFileContent}}
	mem := openTestMemoryStore(t)

	s := New("session-2", "show me src/main.rs", 5)
	s.CurrentPromptMode = router.ModeExplore

	outcome, err := RunStep(context.Background(), s, Deps{Adapter: adapter, Executor: exec, Memory: mem})
	require.NoError(t, err)
	require.NotNil(t, outcome.ToolCall)
	assert.Equal(t, "file_read", outcome.ToolCall.Tool)
	assert.Equal(t, "src/main.rs", outcome.ToolCall.Args["path"])
	require.NotNil(t, outcome.ToolResult)
	assert.True(t, outcome.ToolResult.Success)
	assert.Equal(t, []string{"file_read"}, exec.calls)
	assert.Equal(t, 1, s.Step)
	assert.Equal(t, 1, s.ToolCallsInMode)
}

func TestRunStepRejectsToolNotAllowedInMode(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{
		"TOOL_CALL:\n  tool: file_edit\n  args:\n    path: src/main.rs\n    content: x\n",
	}}
	exec := &fakeExecutor{result: toolcontract.Result{Success: true}}

	s := New("session-3", "what files exist", 5)
	s.CurrentPromptMode = router.ModeQuery // file_edit is not a QUERY-mode tool

	_, err := RunStep(context.Background(), s, Deps{Adapter: adapter, Executor: exec})
	require.Error(t, err)
	assert.Empty(t, exec.calls, "executor must not run a tool the mode forbids")
}

func TestRunStepPresentationModeForbidsToolCall(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{
		"TOOL_CALL:\n  tool: file_read\n  args:\n    path: a.go\n",
	}}
	exec := &fakeExecutor{}

	s := New("session-4", "explain what you found", 5)
	s.CurrentPromptMode = router.ModePresentation

	outcome, err := RunStep(context.Background(), s, Deps{Adapter: adapter, Executor: exec})
	require.Error(t, err)
	assert.True(t, outcome.Terminated)
	assert.Empty(t, exec.calls)
}

// TestRunStepMutationRequiresFreshGrounding exercises
// router.TimelinePosition.RequiresGrounding directly through the loop:
// a mutation-mode step whose timeline reports the last memory_query
// was more than 10 seconds ago must be refused before the executor is
// ever called.
func TestRunStepMutationRequiresFreshGrounding(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{
		"TOOL_CALL:\n  tool: file_edit\n  args:\n    path: src/main.rs\n    content: fixed\n",
	}}
	exec := &fakeExecutor{result: toolcontract.Result{Success: true}}

	s := New("session-5", "fix the bug", 5)
	s.CurrentPromptMode = router.ModeMutation

	stale := func() router.TimelinePosition {
		return router.TimelinePosition{TimeSinceLastQueryMs: 60_000}
	}

	_, err := RunStep(context.Background(), s, Deps{Adapter: adapter, Executor: exec, Timeline: stale})
	require.Error(t, err)
	assert.Empty(t, exec.calls, "a stale timeline must block the mutation before execution")
}

func TestRunStepMutationProceedsWithFreshGrounding(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{
		"TOOL_CALL:\n  tool: file_edit\n  args:\n    path: src/main.rs\n    content: fixed\n",
	}}
	exec := &fakeExecutor{result: toolcontract.Result{Success: true}}

	s := New("session-6", "fix the bug", 5)
	s.CurrentPromptMode = router.ModeMutation

	fresh := func() router.TimelinePosition {
		return router.TimelinePosition{TimeSinceLastQueryMs: 500}
	}

	// With fresh grounding the step passes the grounding check and
	// reaches the approval gate, since file_edit is a gated tool.
	outcome, err := RunStep(context.Background(), s, Deps{Adapter: adapter, Executor: exec, Timeline: fresh})
	require.NoError(t, err)
	require.NotNil(t, outcome.PendingGated)
	assert.Equal(t, "file_edit", outcome.PendingGated.Tool)
}

func TestRunStepGatedToolPausesWithoutExecuting(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{
		"TOOL_CALL:\n  tool: file_edit\n  args:\n    path: a.go\n    content: x\n",
	}}
	exec := &fakeExecutor{result: toolcontract.Result{Success: true}}

	s := New("session-7", "write a.go", 5)
	s.CurrentPromptMode = router.ModeMutation

	outcome, err := RunStep(context.Background(), s, Deps{
		Adapter:  adapter,
		Executor: exec,
		Timeline: func() router.TimelinePosition { return router.TimelinePosition{TimeSinceLastQueryMs: 0} },
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.PendingGated)
	assert.Equal(t, "file_edit", outcome.PendingGated.Tool)
	assert.True(t, s.Paused)
	assert.Empty(t, exec.calls, "a gated tool must not run before approval")
}

func TestResolveGatedApprovalApprovedExecutesAndResumes(t *testing.T) {
	adapter := &scriptedAdapter{}
	exec := &fakeExecutor{result: toolcontract.Result{Success: true, OutputFull: "wrote file"}}
	mem := openTestMemoryStore(t)

	s := New("session-8", "write a.go", 5)
	s.CurrentPromptMode = router.ModeMutation
	s.Pause(PendingGatedTool{Tool: "file_write", Args: map[string]string{"path": "a.go", "content": "x"}, Step: 0})

	outcome, err := ResolveGatedApproval(s, Deps{Adapter: adapter, Executor: exec, Memory: mem}, true, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"file_write"}, exec.calls)
	assert.False(t, s.Paused)
	assert.Nil(t, s.PendingGatedTool)
	require.NotNil(t, outcome.ToolResult)
	assert.True(t, outcome.ToolResult.Success)
}

func TestResolveGatedApprovalDeniedSkipsExecution(t *testing.T) {
	adapter := &scriptedAdapter{}
	exec := &fakeExecutor{result: toolcontract.Result{Success: true}}
	mem := openTestMemoryStore(t)

	s := New("session-9", "write a.go", 5)
	s.CurrentPromptMode = router.ModeMutation
	s.Pause(PendingGatedTool{Tool: "file_write", Args: map[string]string{"path": "a.go"}, Step: 0})

	outcome, err := ResolveGatedApproval(s, Deps{Adapter: adapter, Executor: exec, Memory: mem}, false, "not ready")
	require.NoError(t, err)
	assert.Empty(t, exec.calls, "a denied gated tool must never reach the executor")
	assert.False(t, s.Paused)
	require.NotNil(t, outcome.ToolResult)
	assert.False(t, outcome.ToolResult.Success)
}

func TestResolveGatedApprovalWithNoPendingToolErrors(t *testing.T) {
	s := New("session-10", "hello", 5)
	_, err := ResolveGatedApproval(s, Deps{}, true, "")
	assert.Error(t, err)
}

func TestRunStepHonorsStepCap(t *testing.T) {
	adapter := &scriptedAdapter{replies: []string{"done"}}
	s := New("session-11", "hi", 0)
	s.CurrentPromptMode = router.ModeQuery

	outcome, err := RunStep(context.Background(), s, Deps{Adapter: adapter})
	require.NoError(t, err)
	assert.True(t, outcome.Terminated)
	assert.False(t, s.Active)
}
