package llmadapter

import (
	"encoding/json"
	"strings"

	"github.com/oldnordic/odincode/internal/odinerrors"
)

// ParseOpenAIChatCompletion extracts the assistant text from a
// non-streaming OpenAI-compatible chat completion body.
func ParseOpenAIChatCompletion(body string) (string, error) {
	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "decode chat completion", err)
	}
	if len(decoded.Choices) == 0 {
		return "", odinerrors.New(odinerrors.KindInvalidResponse, "missing choices[0].message.content")
	}
	return decoded.Choices[0].Message.Content, nil
}

// ParseOpenAISSEStream reads an OpenAI-compatible SSE body, invoking
// onChunk for each delta.content fragment and returning the
// concatenated text. A bare "[DONE]" sentinel ends the stream; lines
// that fail to parse as JSON are skipped rather than erroring, since a
// keep-alive comment line is valid SSE but not a data frame.
func ParseOpenAISSEStream(body string, onChunk func(string)) (string, error) {
	var full strings.Builder

	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(rawLine)
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		if text == "" {
			continue
		}
		onChunk(text)
		full.WriteString(text)
	}

	return full.String(), nil
}

// toolCallAccumulator tracks one in-flight tool call's id/name/
// arguments across however many deltas it arrives in.
type toolCallAccumulator struct {
	id      string
	name    string
	args    strings.Builder
	started bool
}

// ParseOpenAISSEStreamEvents reads an OpenAI-compatible SSE body the
// same way ParseOpenAISSEStream does, but in addition to text deltas
// it extracts index-tracked choices[0].delta.tool_calls[i].{id,
// function.name, function.arguments}, the terminal finish_reason, and
// a top-level usage object, surfacing each as a typed StreamingEvent.
// A ToolCallComplete event fires for every tracked tool-call index
// once finish_reason arrives, since OpenAI's wire format never marks
// an individual tool call as done mid-stream.
func ParseOpenAISSEStreamEvents(body string, onEvent func(StreamingEvent)) (string, error) {
	var full strings.Builder
	calls := map[int]*toolCallAccumulator{}
	var order []int

	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(rawLine)
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content   string `json:"content"`
					ToolCalls []struct {
						Index    int    `json:"index"`
						ID       string `json:"id"`
						Function struct {
							Name      string `json:"name"`
							Arguments string `json:"arguments"`
						} `json:"function"`
					} `json:"tool_calls"`
				} `json:"delta"`
				FinishReason *string `json:"finish_reason"`
			} `json:"choices"`
			Usage *struct {
				PromptTokens     int `json:"prompt_tokens"`
				CompletionTokens int `json:"completion_tokens"`
				TotalTokens      int `json:"total_tokens"`
			} `json:"usage"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		if chunk.Usage != nil {
			onEvent(StreamingEvent{Kind: EventUsage, Usage: &Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}})
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			onEvent(StreamingEvent{Kind: EventTextDelta, Text: choice.Delta.Content})
			full.WriteString(choice.Delta.Content)
		}

		for _, tc := range choice.Delta.ToolCalls {
			acc, seen := calls[tc.Index]
			if !seen {
				acc = &toolCallAccumulator{}
				calls[tc.Index] = acc
				order = append(order, tc.Index)
			}
			if tc.ID != "" {
				acc.id = tc.ID
			}
			if tc.Function.Name != "" {
				acc.name = tc.Function.Name
			}
			if !acc.started && (acc.id != "" || acc.name != "") {
				acc.started = true
				onEvent(StreamingEvent{Kind: EventToolCallStart, ToolCall: &ToolCallDelta{
					Index: tc.Index, ID: acc.id, Name: acc.name,
				}})
			}
			if tc.Function.Arguments != "" {
				acc.args.WriteString(tc.Function.Arguments)
				onEvent(StreamingEvent{Kind: EventToolCallDelta, ToolCall: &ToolCallDelta{
					Index: tc.Index, ID: acc.id, Name: acc.name, ArgumentsFragment: tc.Function.Arguments,
				}})
			}
		}

		if choice.FinishReason != nil {
			for _, idx := range order {
				acc := calls[idx]
				onEvent(StreamingEvent{Kind: EventToolCallComplete, ToolCall: &ToolCallDelta{
					Index: idx, ID: acc.id, Name: acc.name, ArgumentsFragment: acc.args.String(),
				}})
			}
			onEvent(StreamingEvent{Kind: EventFinish, FinishReason: *choice.FinishReason})
		}
	}

	return full.String(), nil
}

// ParseOllamaChatCompletion extracts the assistant text from a
// non-streaming Ollama /api/chat response.
func ParseOllamaChatCompletion(body string) (string, error) {
	var decoded struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "decode chat completion", err)
	}
	if decoded.Message.Content == "" {
		return "", odinerrors.New(odinerrors.KindInvalidResponse, "missing message.content")
	}
	return decoded.Message.Content, nil
}

// ParseOllamaNDJSONStream reads an Ollama NDJSON body, one JSON object
// per line, invoking onChunk for each message.content fragment and
// stopping at the first line with done=true (content on that same
// line is still delivered before stopping).
func ParseOllamaNDJSONStream(body string, onChunk func(string)) (string, error) {
	var full strings.Builder

	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		var chunk struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Done bool `json:"done"`
		}
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Message.Content != "" {
			onChunk(chunk.Message.Content)
			full.WriteString(chunk.Message.Content)
		}
		if chunk.Done {
			break
		}
	}

	return full.String(), nil
}

// ParseOllamaNDJSONStreamEvents is ParseOllamaNDJSONStream's typed-
// event counterpart. Unlike OpenAI, Ollama reports each tool call
// whole rather than as argument fragments, so every tool_calls entry
// is emitted as a Start immediately followed by a Complete carrying
// its full (already-assembled) arguments.
func ParseOllamaNDJSONStreamEvents(body string, onEvent func(StreamingEvent)) (string, error) {
	var full strings.Builder

	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		var chunk struct {
			Message struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					Function struct {
						Name      string          `json:"name"`
						Arguments json.RawMessage `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
			Done bool `json:"done"`
		}
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}

		if chunk.Message.Content != "" {
			onEvent(StreamingEvent{Kind: EventTextDelta, Text: chunk.Message.Content})
			full.WriteString(chunk.Message.Content)
		}
		for i, tc := range chunk.Message.ToolCalls {
			onEvent(StreamingEvent{Kind: EventToolCallStart, ToolCall: &ToolCallDelta{Index: i, Name: tc.Function.Name}})
			onEvent(StreamingEvent{Kind: EventToolCallComplete, ToolCall: &ToolCallDelta{
				Index: i, Name: tc.Function.Name, ArgumentsFragment: string(tc.Function.Arguments),
			}})
		}
		if chunk.Done {
			onEvent(StreamingEvent{Kind: EventFinish, FinishReason: "stop"})
			break
		}
	}

	return full.String(), nil
}

// StripReasoningContent removes provider-emitted reasoning text that
// some OpenAI-compatible backends (GLM's extended-reasoning mode in
// particular) interleave into the assistant-visible stream: fenced
// <reasoning>...</reasoning> and [REASONING]...[/REASONING] blocks,
// plus any line that opens with a bare "Thinking:"/"Thought:"/
// "Reasoning:" label.
func StripReasoningContent(content string) string {
	content = stripTagPair(content, "<reasoning>", "</reasoning>")
	content = stripTagPair(content, "[REASONING]", "[/REASONING]")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Thinking:") ||
			strings.HasPrefix(trimmed, "Thought:") ||
			strings.HasPrefix(trimmed, "Reasoning:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func stripTagPair(content, open, close string) string {
	var result strings.Builder
	pos := 0
	for {
		start := strings.Index(content[pos:], open)
		if start < 0 {
			break
		}
		tagStart := pos + start
		result.WriteString(content[pos:tagStart])

		end := strings.Index(content[tagStart:], close)
		if end < 0 {
			return result.String()
		}
		pos = tagStart + end + len(close)
	}
	result.WriteString(content[pos:])
	return result.String()
}

// NormalizeForOpenAICompatible renders messages into the JSON array
// body every OpenAI-compatible provider expects, stripping reasoning
// content from assistant turns before it ever reaches the wire.
func NormalizeForOpenAICompatible(messages []Message) ([]byte, error) {
	type wireMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	wire := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		content := m.Content
		if m.Role == RoleAssistant {
			content = StripReasoningContent(content)
		}
		wire = append(wire, wireMessage{Role: string(m.Role), Content: content})
	}
	return json.Marshal(wire)
}
