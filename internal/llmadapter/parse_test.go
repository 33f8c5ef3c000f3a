package llmadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOpenAIChatCompletionValid(t *testing.T) {
	content, err := ParseOpenAIChatCompletion(`{"choices":[{"message":{"content":"test content"}}]}`)
	require.NoError(t, err)
	assert.Equal(t, "test content", content)
}

func TestParseOpenAIChatCompletionMissingChoices(t *testing.T) {
	_, err := ParseOpenAIChatCompletion(`{"model":"gpt-4"}`)
	assert.Error(t, err)
}

func TestParseOpenAISSEStream(t *testing.T) {
	sse := "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n" +
		"data: [DONE]\n"

	var chunks []string
	full, err := ParseOpenAISSEStream(sse, func(c string) { chunks = append(chunks, c) })
	require.NoError(t, err)
	assert.Equal(t, "Hello world", full)
	assert.Equal(t, []string{"Hello", " world"}, chunks)
}

func TestParseOpenAISSEStopsAtDone(t *testing.T) {
	sse := "data: {\"choices\":[{\"delta\":{\"content\":\"first\"}}]}\n" +
		"data: [DONE]\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"after\"}}]}\n"

	full, err := ParseOpenAISSEStream(sse, func(string) {})
	require.NoError(t, err)
	assert.NotContains(t, full, "after")
}

func TestParseOllamaChatCompletionValid(t *testing.T) {
	content, err := ParseOllamaChatCompletion(`{"message":{"content":"ollama test"}}`)
	require.NoError(t, err)
	assert.Equal(t, "ollama test", content)
}

func TestParseOllamaChatCompletionMissingMessage(t *testing.T) {
	_, err := ParseOllamaChatCompletion(`{"model":"codellama"}`)
	assert.Error(t, err)
}

func TestParseOllamaNDJSONStream(t *testing.T) {
	ndjson := `{"message":{"content":"Hello"},"done":false}
{"message":{"content":" world"},"done":false}
{"message":{"content":"!"},"done":true}
{"message":{"content":"after"},"done":true}`

	var chunks []string
	full, err := ParseOllamaNDJSONStream(ndjson, func(c string) { chunks = append(chunks, c) })
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", full)
	assert.NotContains(t, joinChunks(chunks), "after")
}

func joinChunks(ss []string) string {
	out := ""
	for _, s := range ss {
		out += s
	}
	return out
}

func TestParseOllamaNDJSONStopsAtDone(t *testing.T) {
	ndjson := `{"message":{"content":"first"},"done":false}
{"message":{"content":"second"},"done":true}
{"message":{"content":"third"},"done":true}`

	full, err := ParseOllamaNDJSONStream(ndjson, func(string) {})
	require.NoError(t, err)
	assert.NotContains(t, full, "third")
}

func TestParseOpenAISSEStreamEventsTextOnly(t *testing.T) {
	sse := "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\" world\"},\"finish_reason\":\"stop\"}]}\n" +
		"data: [DONE]\n"

	var events []StreamingEvent
	full, err := ParseOpenAISSEStreamEvents(sse, func(e StreamingEvent) { events = append(events, e) })
	require.NoError(t, err)
	assert.Equal(t, "Hello world", full)

	var finish *StreamingEvent
	for i := range events {
		if events[i].Kind == EventFinish {
			finish = &events[i]
		}
	}
	require.NotNil(t, finish)
	assert.Equal(t, "stop", finish.FinishReason)
}

func TestParseOpenAISSEStreamEventsAccumulatesToolCallArguments(t *testing.T) {
	sse := `data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"file_read","arguments":""}}]}}]}
data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"path\":"}}]}}]}
data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"a.go\"}"}}]},"finish_reason":"tool_calls"}]}
data: [DONE]
`

	var completed *ToolCallDelta
	_, err := ParseOpenAISSEStreamEvents(sse, func(e StreamingEvent) {
		if e.Kind == EventToolCallComplete {
			completed = e.ToolCall
		}
	})
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, "file_read", completed.Name)
	assert.Equal(t, `{"path":"a.go"}`, completed.ArgumentsFragment)
}

func TestParseOllamaNDJSONStreamEventsEmitsToolCallWhole(t *testing.T) {
	ndjson := `{"message":{"content":"","tool_calls":[{"function":{"name":"file_read","arguments":{"path":"a.go"}}}]},"done":true}`

	var kinds []StreamingEventKind
	var toolName string
	_, err := ParseOllamaNDJSONStreamEvents(ndjson, func(e StreamingEvent) {
		kinds = append(kinds, e.Kind)
		if e.Kind == EventToolCallComplete {
			toolName = e.ToolCall.Name
		}
	})
	require.NoError(t, err)
	assert.Contains(t, kinds, EventToolCallStart)
	assert.Contains(t, kinds, EventToolCallComplete)
	assert.Contains(t, kinds, EventFinish)
	assert.Equal(t, "file_read", toolName)
}

func TestStripReasoningContentRemovesTagPair(t *testing.T) {
	in := "before<reasoning>hidden thoughts</reasoning>after"
	assert.Equal(t, "beforeafter", StripReasoningContent(in))
}

func TestStripReasoningContentRemovesBracketTagPair(t *testing.T) {
	in := "before[REASONING]hidden[/REASONING]after"
	assert.Equal(t, "beforeafter", StripReasoningContent(in))
}

func TestStripReasoningContentRemovesLabeledLines(t *testing.T) {
	in := "line one\nThinking: pondering\nline two\nThought: more\nReasoning: why\nline three"
	out := StripReasoningContent(in)
	assert.Contains(t, out, "line one")
	assert.Contains(t, out, "line two")
	assert.Contains(t, out, "line three")
	assert.NotContains(t, out, "pondering")
	assert.NotContains(t, out, "Reasoning:")
}

func TestNormalizeForOpenAICompatibleStripsAssistantReasoning(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "<reasoning>thinking</reasoning>visible answer"},
	}
	out, err := NormalizeForOpenAICompatible(msgs)
	require.NoError(t, err)
	assert.Contains(t, string(out), "visible answer")
	assert.NotContains(t, string(out), "thinking")
}
