package llmadapter

// StreamingEventKind identifies which branch of a StreamingEvent is
// populated.
type StreamingEventKind string

const (
	EventTextDelta        StreamingEventKind = "text_delta"
	EventToolCallStart    StreamingEventKind = "tool_call_start"
	EventToolCallDelta    StreamingEventKind = "tool_call_delta"
	EventToolCallComplete StreamingEventKind = "tool_call_complete"
	EventFinish           StreamingEventKind = "finish"
	EventUsage            StreamingEventKind = "usage"
)

// ToolCallDelta is one fragment of a provider-native tool call,
// indexed the way OpenAI's delta.tool_calls[i] and Ollama's
// message.tool_calls[i] both are: multiple tool calls can stream
// concurrently within one response, distinguished by Index.
type ToolCallDelta struct {
	Index             int
	ID                string
	Name              string
	ArgumentsFragment string
}

// Usage is the token accounting a provider reports on its final chunk.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamingEvent is the typed union a multi-turn streaming call emits:
// exactly one of Text, ToolCall, FinishReason, or Usage is meaningful,
// selected by Kind.
type StreamingEvent struct {
	Kind StreamingEventKind

	// EventTextDelta
	Text string

	// EventToolCallStart, EventToolCallDelta, EventToolCallComplete
	ToolCall *ToolCallDelta

	// EventFinish
	FinishReason string

	// EventUsage
	Usage *Usage
}
