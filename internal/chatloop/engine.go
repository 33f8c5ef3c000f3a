package chatloop

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oldnordic/odincode/internal/frame"
	"github.com/oldnordic/odincode/internal/llmadapter"
	"github.com/oldnordic/odincode/internal/memory"
	"github.com/oldnordic/odincode/internal/odinerrors"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/toolcontract"
)

// Deps bundles the loop's external collaborators: the LLM adapter
// that turns a built message array into a streamed response, the tool
// executor that actually touches the repository, and the durable
// memory store executions and approvals are recorded against. Timeline
// supplies the current execution-history position for the mutation-
// mode fresh-grounding rule; a nil Timeline yields
// InitialTimelinePosition, whose time since the last query exceeds the
// grounding threshold, so every mutation-mode step is refused until a
// Timeline is supplied. OnChunk, if set, additionally receives each
// streamed text fragment for UI display.
type Deps struct {
	Adapter  llmadapter.Adapter
	Executor toolcontract.Executor
	Memory   *memory.Store
	Timeline func() router.TimelinePosition
	OnChunk  func(string)
}

// StepOutcome reports what one RunStep call did, for a caller (TUI,
// CLI, test) to react to.
type StepOutcome struct {
	// Terminated is true once the loop will not run another step:
	// either a mode's hard termination rule fired, the step cap was
	// reached, or the assistant answered with no TOOL_CALL block.
	Terminated bool
	// FinalText is the assistant's answer once Terminated and no tool
	// was invoked this step.
	FinalText string
	// PendingGated is set when this step paused on a gated tool,
	// awaiting ResolveGatedApproval.
	PendingGated *PendingGatedTool
	ToolCall     *ParsedToolCall
	ToolResult   *toolcontract.Result
}

// RunStep executes exactly one iteration of the multi-step tool loop:
// build the outgoing messages from the frame stack (with timeline
// grounding and the current mode's internal prompt), stream the
// adapter's response into the trailing assistant frame, parse a
// TOOL_CALL block from the final text (terminating with the text as
// the answer if none is present), validate the requested tool against
// the mode's allowed set and the global whitelist, enforce the
// mutation-mode fresh-grounding rule, pause for approval if the tool
// is gated, otherwise execute it, record the execution, append the
// result frame, and advance the step counter.
func RunStep(ctx context.Context, s *LoopState, deps Deps) (StepOutcome, error) {
	if !s.ShouldContinue() {
		s.Complete()
		return StepOutcome{Terminated: true}, nil
	}

	timeline := router.InitialTimelinePosition()
	if deps.Timeline != nil {
		timeline = deps.Timeline()
	}
	mode := s.CurrentPromptMode
	messages := s.FrameStack.BuildMessagesWithTimelineAndMode(&timeline, &mode)

	var responseText string
	onEvent := func(e llmadapter.StreamingEvent) {
		if e.Kind != llmadapter.EventTextDelta {
			return
		}
		s.AddAssistantResponse(e.Text)
		responseText += e.Text
		if deps.OnChunk != nil {
			deps.OnChunk(e.Text)
		}
	}

	full, err := deps.Adapter.GenerateChatStreamingEvents(ctx, messages, onEvent)
	if err != nil {
		return StepOutcome{}, err
	}
	s.CompleteAssistantFrame()
	if full == "" {
		full = responseText
	}

	call, hasCall := ParseToolCall(full)
	if !hasCall {
		s.Complete()
		return StepOutcome{Terminated: true, FinalText: full}, nil
	}

	if mode == router.ModePresentation {
		s.Complete()
		return StepOutcome{Terminated: true, FinalText: full},
			odinerrors.New(odinerrors.KindPlanValidation, "presentation mode forbids a TOOL_CALL")
	}
	if !router.ToolIsAllowed(call.Tool) {
		s.Complete()
		return StepOutcome{}, odinerrors.New(odinerrors.KindPlanValidation, fmt.Sprintf("tool %q is not whitelisted", call.Tool))
	}
	if !router.ToolAllowedInMode(call.Tool, mode) {
		s.Complete()
		return StepOutcome{}, odinerrors.New(odinerrors.KindPlanValidation, fmt.Sprintf("tool %q is not permitted in %s", call.Tool, mode.DisplayName()))
	}

	isMutation := mode == router.ModeMutation
	if timeline.RequiresGrounding(isMutation) {
		s.Complete()
		return StepOutcome{}, odinerrors.New(odinerrors.KindPlanValidation, "mutation step requires a fresh memory_query within the last 10 seconds")
	}

	if IsGated(call.Tool) {
		pending := PendingGatedTool{Tool: call.Tool, Args: call.Args, Step: s.Step}
		s.Pause(pending)
		return StepOutcome{PendingGated: &pending, ToolCall: &call}, nil
	}

	// A gated (mutating) tool that already succeeded earlier in this
	// loop makes this step one that follows a mutation.
	followsMutation := false
	for _, f := range s.FrameStack.Frames() {
		if f.Kind == frame.KindToolResult && f.Success && IsGated(f.Tool) {
			followsMutation = true
		}
	}

	result, execErr := deps.Executor.Execute(call.Tool, call.Args)
	if execErr != nil {
		errMsg := execErr.Error()
		result = toolcontract.Result{Tool: call.Tool, Success: false, ErrorMessage: &errMsg}
	}
	recordExecution(deps.Memory, call.Tool, call.Args, result)
	s.AddHiddenResult(result)
	s.ToolCallsInMode++
	s.AdvanceStep()

	summary := &ToolResultSummary{Tool: call.Tool, Success: result.Success, FollowsMutation: isMutation && followsMutation}
	if ShouldTerminate(s, summary, full) {
		s.Complete()
	}

	return StepOutcome{ToolCall: &call, ToolResult: &result, Terminated: !s.Active}, execErr
}

// ResolveGatedApproval applies the user's explicit decision on a
// paused gated tool call: approved runs the tool through the executor
// and records approval_granted before resuming; denied records
// approval_denied and resumes the loop without ever touching the
// executor, matching the gate's purpose of never letting a mutating
// tool run without an explicit yes.
func ResolveGatedApproval(s *LoopState, deps Deps, approved bool, denyReason string) (StepOutcome, error) {
	pending := s.PendingGatedTool
	if pending == nil {
		return StepOutcome{}, odinerrors.New(odinerrors.KindPlanValidation, "no gated tool call is pending")
	}

	argsJSON, err := json.Marshal(pending.Args)
	if err != nil {
		argsJSON = json.RawMessage("{}")
	}

	if !approved {
		if deps.Memory != nil {
			if err := deps.Memory.RecordApprovalDenied(s.SessionID, pending.Tool, argsJSON, denyReason); err != nil {
				log.Warn().Err(err).Str("tool", pending.Tool).Msg("chatloop: failed to record approval_denied")
			}
		}
		msg := fmt.Sprintf("user denied %s: %s", pending.Tool, denyReason)
		s.FrameStack.AddToolResult(pending.Tool, false, msg, nil)
		s.Resume()
		s.AdvanceStep()
		result := toolcontract.Result{Tool: pending.Tool, Success: false, OutputFull: msg}
		return StepOutcome{ToolResult: &result, Terminated: !s.Active}, nil
	}

	if deps.Memory != nil {
		if err := deps.Memory.RecordApprovalGranted(s.SessionID, pending.Tool, "chat_loop", argsJSON); err != nil {
			log.Warn().Err(err).Str("tool", pending.Tool).Msg("chatloop: failed to record approval_granted")
		}
	}

	result, execErr := deps.Executor.Execute(pending.Tool, pending.Args)
	if execErr != nil {
		errMsg := execErr.Error()
		result = toolcontract.Result{Tool: pending.Tool, Success: false, ErrorMessage: &errMsg}
	}
	recordExecution(deps.Memory, pending.Tool, pending.Args, result)
	s.AddHiddenResult(result)
	s.ToolCallsInMode++
	s.Resume()
	s.AdvanceStep()

	summary := &ToolResultSummary{Tool: pending.Tool, Success: result.Success, FollowsMutation: s.CurrentPromptMode == router.ModeMutation}
	if ShouldTerminate(s, summary, "") {
		s.Complete()
	}

	return StepOutcome{ToolCall: &ParsedToolCall{Tool: pending.Tool, Args: pending.Args}, ToolResult: &result, Terminated: !s.Active}, execErr
}

// recordExecution writes a toolcontract.Result to durable memory,
// routing through RecordExecutionOnFile when the result names an
// affected path so the execution graph gets its EXECUTED_ON edge.
// mem may be nil in tests that exercise the loop without a store.
func recordExecution(mem *memory.Store, tool string, args map[string]string, result toolcontract.Result) {
	if mem == nil {
		return
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		argsJSON = json.RawMessage("{}")
	}
	execID := result.ExecutionID
	if execID == "" {
		execID = fmt.Sprintf("chatloop_%s_%d", tool, time.Now().UnixNano())
	}
	exec := memory.Execution{
		ID:           execID,
		ToolName:     tool,
		Arguments:    argsJSON,
		TimestampMs:  time.Now().UnixMilli(),
		Success:      result.Success,
		ErrorMessage: result.ErrorMessage,
	}

	var recErr error
	if result.AffectedPath != nil {
		recErr = mem.RecordExecutionOnFile(exec, *result.AffectedPath)
	} else {
		recErr = mem.RecordExecution(exec)
	}
	if recErr != nil {
		log.Warn().Err(recErr).Str("tool", tool).Msg("chatloop: failed to record execution")
	}
}
