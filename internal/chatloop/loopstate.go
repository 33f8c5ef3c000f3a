// Package chatloop implements the multi-step tool loop: a bounded
// step counter over a frame stack, gated-tool pause/resume, and the
// hard per-mode termination rules that keep the loop from running
// away regardless of what the model asks for next.
package chatloop

import (
	"github.com/oldnordic/odincode/internal/frame"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/toolcontract"
)

// GatedTools is the mutation-class tool set that always pauses the
// loop for explicit user approval before executing.
var GatedTools = map[string]bool{
	"file_write":   true,
	"file_create":  true,
	"file_edit":    true,
	"splice_patch": true,
	"splice_plan":  true,
	"bash_exec":    true,
}

// IsGated reports whether a tool requires pause/approve/resume.
func IsGated(tool string) bool { return GatedTools[tool] }

// PendingGatedTool records a gated tool call awaiting a user decision.
type PendingGatedTool struct {
	Tool string
	Args map[string]string
	Step int
}

// LoopState is one chat turn's running state: its frame history, step
// budget, pause state, and per-mode tool-call counter.
type LoopState struct {
	SessionID           string
	Step                int
	FrameStack          *frame.Stack
	OriginalUserMessage string
	LastResponse        *string
	Active              bool
	Paused              bool
	PendingGatedTool    *PendingGatedTool
	CurrentPromptMode   router.PromptMode
	ToolCallsInMode     int

	maxSteps int
}

// New classifies the prompt mode from the user's message, seeds the
// frame stack with it, and starts an active, unpaused loop.
func New(sessionID, originalUserMessage string, maxSteps int) *LoopState {
	fs := frame.New()
	fs.AddUser(originalUserMessage)

	return &LoopState{
		SessionID:           sessionID,
		FrameStack:          fs,
		OriginalUserMessage: originalUserMessage,
		Active:              true,
		CurrentPromptMode:   router.ClassifyPromptMode(originalUserMessage),
		maxSteps:            maxSteps,
	}
}

// ShouldContinue is false once the loop has completed, is paused
// awaiting approval, or has hit its step cap.
func (s *LoopState) ShouldContinue() bool {
	return s.Active && !s.Paused && s.Step < s.maxSteps
}

// AddHiddenResult appends a tool result frame without surfacing it as
// an assistant message.
func (s *LoopState) AddHiddenResult(r toolcontract.Result) {
	var execID *string
	if r.ExecutionID != "" {
		id := r.ExecutionID
		execID = &id
	}
	s.FrameStack.AddToolResult(r.Tool, r.Success, r.OutputFull, execID)
}

// AddAssistantResponse appends (or merges into) the trailing assistant
// frame.
func (s *LoopState) AddAssistantResponse(response string) {
	s.FrameStack.AddAssistant(response)
}

// CompleteAssistantFrame is a semantic marker; see frame.Stack.CompleteAssistant.
func (s *LoopState) CompleteAssistantFrame() { s.FrameStack.CompleteAssistant() }

// AdvanceStep increments the step counter.
func (s *LoopState) AdvanceStep() { s.Step++ }

// Complete ends the loop under normal termination.
func (s *LoopState) Complete() {
	s.Active = false
	s.Paused = false
}

// Pause stops the loop pending an explicit gated-tool decision.
func (s *LoopState) Pause(pending PendingGatedTool) {
	s.Paused = true
	s.PendingGatedTool = &pending
}

// Resume clears the pause state after a decision is recorded.
func (s *LoopState) Resume() {
	s.Paused = false
	s.PendingGatedTool = nil
}
