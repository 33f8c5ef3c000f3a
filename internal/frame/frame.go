// Package frame implements the bounded conversation frame stack: the
// ordered User/Assistant/ToolResult history every LLM call is built
// from, so a multi-step tool loop never relies on model recall for
// what already happened.
package frame

import "fmt"

// MaxFrames bounds frame-stack growth; the oldest frame is evicted
// once this is exceeded.
const MaxFrames = 50

// Kind identifies a Frame's role.
type Kind string

const (
	KindUser       Kind = "User"
	KindAssistant  Kind = "Assistant"
	KindToolResult Kind = "ToolResult"
)

// Frame is one entry in the conversation history.
type Frame struct {
	Kind Kind

	// User, Assistant
	Text string

	// ToolResult
	Tool        string
	Success     bool
	Output      string
	Compacted   bool
	ExecutionID *string
}

// TypeName mirrors the original's display-name accessor.
func (f Frame) TypeName() string { return string(f.Kind) }

// Content renders a frame's text form, matching the original's
// compacted-vs-live ToolResult distinction.
func (f Frame) Content() string {
	switch f.Kind {
	case KindUser, KindAssistant:
		return f.Text
	case KindToolResult:
		status := "FAILED"
		if f.Success {
			status = "OK"
		}
		if f.Compacted {
			return fmt.Sprintf("[TOOL RESULT: %s %s - compacted, use memory_query to retrieve]", f.Tool, status)
		}
		return fmt.Sprintf("[TOOL RESULT: %s %s]\n%s", f.Tool, status, f.Output)
	default:
		return ""
	}
}

// EstimatedTokens is the same characters/4 rough estimator the
// original uses, with compacted tool results counted as a small fixed
// cost rather than their (suppressed) full output.
func (f Frame) EstimatedTokens() int {
	switch f.Kind {
	case KindUser, KindAssistant:
		return len(f.Text) / 4
	case KindToolResult:
		if f.Compacted {
			return (len(f.Tool) + 50) / 4
		}
		return (len(f.Tool) + len(f.Output)) / 4
	default:
		return 0
	}
}

// Stack is the bounded, ordered frame history.
type Stack struct {
	frames      []Frame
	totalTokens int
}

// New returns an empty stack.
func New() *Stack {
	return &Stack{frames: make([]Frame, 0, 16)}
}

// AddUser appends a User frame.
func (s *Stack) AddUser(message string) {
	s.push(Frame{Kind: KindUser, Text: message})
}

// AddAssistant appends to the tail Assistant frame if one is open
// (streaming merge), otherwise starts a new one.
func (s *Stack) AddAssistant(chunk string) {
	if n := len(s.frames); n > 0 && s.frames[n-1].Kind == KindAssistant {
		old := s.frames[n-1].Text
		s.totalTokens -= len(old) / 4
		s.frames[n-1].Text = old + chunk
		s.totalTokens += len(s.frames[n-1].Text) / 4
		return
	}
	s.push(Frame{Kind: KindAssistant, Text: chunk})
}

// CompleteAssistant is a semantic no-op: an assistant frame completes
// naturally once any non-assistant frame is added after it.
func (s *Stack) CompleteAssistant() {}

// AddToolResult appends a ToolResult frame, always un-compacted on
// arrival.
func (s *Stack) AddToolResult(tool string, success bool, output string, executionID *string) {
	s.push(Frame{Kind: KindToolResult, Tool: tool, Success: success, Output: output, ExecutionID: executionID})
}

func (s *Stack) push(f Frame) {
	s.frames = append(s.frames, f)
	s.totalTokens += f.EstimatedTokens()
	for len(s.frames) > MaxFrames {
		s.totalTokens -= s.frames[0].EstimatedTokens()
		s.frames = s.frames[1:]
	}
}

// TotalTokens returns the running token estimate.
func (s *Stack) TotalTokens() int { return s.totalTokens }

// Len returns the frame count.
func (s *Stack) Len() int { return len(s.frames) }

// IsEmpty reports whether the stack holds no frames.
func (s *Stack) IsEmpty() bool { return len(s.frames) == 0 }

// Frames returns the frame history, oldest first. Callers must not
// mutate the returned slice.
func (s *Stack) Frames() []Frame { return s.frames }

// LastAssistantResponse returns the most recent Assistant frame's
// text, if any.
func (s *Stack) LastAssistantResponse() (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == KindAssistant {
			return s.frames[i].Text, true
		}
	}
	return "", false
}

// Clear empties the stack.
func (s *Stack) Clear() {
	s.frames = s.frames[:0]
	s.totalTokens = 0
}

// CompactOldToolResults iterates newest-first and marks every
// ToolResult beyond the first keepRecent as compacted. The original
// output is retained in memory (reachable via memory_query) but is no
// longer emitted to the LLM once compacted.
func (s *Stack) CompactOldToolResults(keepRecent int) {
	seen := 0
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind != KindToolResult {
			continue
		}
		seen++
		if seen > keepRecent {
			s.frames[i].Compacted = true
		}
	}
}

// maxRecentToolResults is the auto-compaction trigger threshold.
const maxRecentToolResults = 3

// AutoCompactIfNeeded is called before every message build; it
// compacts once the live (non-compacted already) ToolResult count
// exceeds the threshold.
func (s *Stack) AutoCompactIfNeeded() {
	count := 0
	for _, f := range s.frames {
		if f.Kind == KindToolResult {
			count++
		}
	}
	if count > maxRecentToolResults {
		s.CompactOldToolResults(maxRecentToolResults)
	}
}

// ContextUsagePercent estimates usage against a conservative 128K
// token context window, capped at 100.
func (s *Stack) ContextUsagePercent() float64 {
	const maxContext = 128_000
	pct := float64(s.totalTokens) / float64(maxContext) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ContextUsageBar renders a fixed-width usage bar, e.g. "[####....] 45%".
func (s *Stack) ContextUsageBar(width int) string {
	pct := s.ContextUsagePercent()
	filled := int(float64(width)*pct/100 + 0.5)
	if filled > width {
		filled = width
	}
	empty := width - filled
	if empty < 0 {
		empty = 0
	}
	bar := ""
	for i := 0; i < filled; i++ {
		bar += "#"
	}
	for i := 0; i < empty; i++ {
		bar += "."
	}
	return fmt.Sprintf("[%s] %.0f%%", bar, pct)
}
