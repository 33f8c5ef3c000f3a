package frame

import (
	"fmt"

	"github.com/oldnordic/odincode/internal/llmadapter"
	"github.com/oldnordic/odincode/internal/router"
)

// ChatSystemPrompt is the fixed base system prompt every turn starts
// from. Kept narrow and data-only: the actual tool contract text lives
// with the router/tool-contract packages, not duplicated here.
const ChatSystemPrompt = "You are OdinCode, a grounded coding assistant. Every claim about prior work must be backed by execution memory, not recollection."

// InternalPrompt returns the mode-specific instruction injected after
// the timeline block, constraining what the model may attempt next.
func InternalPrompt(mode router.PromptMode) string {
	switch mode {
	case router.ModeQuery:
		return "QUERY MODE: answer with aggregate/statistical tools only. Do not read or modify file contents."
	case router.ModeExplore:
		return "EXPLORE MODE: locate information with a bounded number of search/read calls. Do not mutate anything."
	case router.ModeMutation:
		return "MUTATION MODE: ground with memory_query before editing, make one focused change, then verify with lsp_check."
	case router.ModePresentation:
		return "PRESENTATION MODE: explain the results already gathered. Call no tools."
	default:
		return ""
	}
}

func formatTimelinePosition(pos router.TimelinePosition) string {
	errText := "none"
	if pos.LastExecutionError != nil {
		errText = *pos.LastExecutionError
	}
	status := "FAILED"
	if pos.LastExecutionSuccess {
		status = "SUCCESS"
	}
	return fmt.Sprintf(
		"Current Step: %d | Total Executions: %d\nLast Execution: %s (%s) %s\nLast Error: %s\nTime Since Last Query: %dms ago\nPending Failures: %d",
		pos.CurrentStep, pos.TotalExecutions, pos.LastExecutionID, pos.LastExecutionTool, status, errText,
		pos.TimeSinceLastQueryMs, pos.PendingFailureCount,
	)
}

// BuildMessagesWithTimelineAndMode auto-compacts, then renders the
// full [System, ...Frames] message list: the system prompt, an
// optional timeline grounding block, an optional mode-specific
// instruction, then every frame rendered as its message.
func (s *Stack) BuildMessagesWithTimelineAndMode(timeline *router.TimelinePosition, mode *router.PromptMode) []llmadapter.Message {
	s.AutoCompactIfNeeded()

	system := ChatSystemPrompt
	if timeline != nil {
		system += fmt.Sprintf(
			"\n\n=== EXECUTION TIMELINE (GROUND TRUTH) ===\n%s\nREQUIRED: Before editing, call memory_query to see recent history.\nReference execution IDs, not memory.",
			formatTimelinePosition(*timeline),
		)
	}
	if mode != nil {
		system += "\n\n" + InternalPrompt(*mode)
	}

	messages := make([]llmadapter.Message, 0, len(s.frames)+1)
	messages = append(messages, llmadapter.Message{Role: llmadapter.RoleSystem, Content: system})

	for _, f := range s.frames {
		switch f.Kind {
		case KindUser:
			messages = append(messages, llmadapter.Message{Role: llmadapter.RoleUser, Content: f.Text})
		case KindAssistant:
			messages = append(messages, llmadapter.Message{Role: llmadapter.RoleAssistant, Content: f.Text})
		case KindToolResult:
			messages = append(messages, llmadapter.Message{Role: llmadapter.RoleUser, Content: toolResultContent(f)})
		}
	}
	return messages
}

func toolResultContent(f Frame) string {
	status := "FAILED"
	if f.Success {
		status = "OK"
	}
	if f.Compacted {
		execRef := ""
		if f.ExecutionID != nil {
			execRef = fmt.Sprintf(" (execution_id: %s)", *f.ExecutionID)
		}
		return fmt.Sprintf(
			"[Tool %s]: %s - [Old tool result content cleared%s. Use memory_query tool with session_id or execution_id to retrieve full details]",
			f.Tool, status, execRef,
		)
	}
	return fmt.Sprintf("[Tool %s]: %s\nResult: %s", f.Tool, status, f.Output)
}

// BuildMessages is the no-timeline, no-mode convenience wrapper.
func (s *Stack) BuildMessages() []llmadapter.Message {
	return s.BuildMessagesWithTimelineAndMode(nil, nil)
}
