package chatloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/toolcontract"
)

func TestNewLoopStateSeedsFrameStackWithUserMessage(t *testing.T) {
	s := New("sess-1", "hello", 10)
	assert.Equal(t, "sess-1", s.SessionID)
	assert.Equal(t, 0, s.Step)
	assert.True(t, s.Active)
	assert.False(t, s.Paused)
	assert.Equal(t, 1, s.FrameStack.Len())
}

func TestShouldContinueRespectsStepCap(t *testing.T) {
	s := New("sess-1", "hello", 3)
	require.True(t, s.ShouldContinue())
	s.AdvanceStep()
	s.AdvanceStep()
	s.AdvanceStep()
	assert.False(t, s.ShouldContinue())
}

func TestPauseResumeCycle(t *testing.T) {
	s := New("sess-1", "fix the bug", 10)

	s.Pause(PendingGatedTool{Tool: "file_write", Args: map[string]string{"path": "a.go"}, Step: 1})
	assert.True(t, s.Paused)
	assert.False(t, s.ShouldContinue(), "a paused loop must not continue")
	require.NotNil(t, s.PendingGatedTool)
	assert.Equal(t, "file_write", s.PendingGatedTool.Tool)

	s.Resume()
	assert.False(t, s.Paused)
	assert.Nil(t, s.PendingGatedTool)
	assert.True(t, s.ShouldContinue())
}

func TestCompleteStopsTheLoop(t *testing.T) {
	s := New("sess-1", "hello", 10)
	s.Complete()
	assert.False(t, s.Active)
	assert.False(t, s.ShouldContinue())
}

func TestAddHiddenResultAppendsFrame(t *testing.T) {
	s := New("sess-1", "hello", 10)
	s.AddHiddenResult(toolcontract.Result{Tool: "file_read", Success: true, OutputFull: "contents", ExecutionID: "exec-1"})
	assert.Equal(t, 2, s.FrameStack.Len())
}

func TestIsGatedCoversMutationClassOnly(t *testing.T) {
	assert.True(t, IsGated("file_write"))
	assert.True(t, IsGated("bash_exec"))
	assert.False(t, IsGated("file_read"))
	assert.False(t, IsGated("display_text"))
}

func TestClassifyPromptModeFlowsIntoLoopState(t *testing.T) {
	s := New("sess-1", "fix the off-by-one bug", 10)
	assert.Equal(t, router.ModeMutation, s.CurrentPromptMode)
}
