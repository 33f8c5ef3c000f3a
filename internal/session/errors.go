package session

import "errors"

// ErrLLMNotConfigured is returned by ProposePlan/ProposePlanStreaming
// when they are called with a nil adapter.
var ErrLLMNotConfigured = errors.New("llm not configured")

// ErrNotImplemented is returned by CompactSession: session-level
// summarization semantics are explicitly out of scope for this
// system (compaction here is the frame-stack ToolResult-elision
// kind, not a session-summary rewrite), matching the original
// implementation's own stub.
var ErrNotImplemented = errors.New("not implemented")
