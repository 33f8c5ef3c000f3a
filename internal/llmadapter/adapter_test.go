package llmadapter

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatibleAdapterGenerate(t *testing.T) {
	fake := newFakeTransport(`{"choices":[{"message":{"content":"test plan"}}]}`)
	adapter := newOpenAICompatibleAdapter("openai", "https://api.openai.com/v1", "gpt-4", "sk-test", fake)

	out, err := adapter.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "test plan", out)
	assert.Equal(t, "openai", adapter.ProviderName())
	assert.True(t, adapter.SupportsStreaming())
}

func TestOpenAICompatibleAdapterGenerateStreaming(t *testing.T) {
	fake := newFakeTransport("data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\ndata: [DONE]\n")
	adapter := newOpenAICompatibleAdapter("glm", "https://api.z.ai/v4", "GLM-4.7", "sk-test", fake)

	var chunks []string
	out, err := adapter.GenerateStreaming(context.Background(), "hello", func(c string) { chunks = append(chunks, c) })
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
	assert.Equal(t, []string{"Hello"}, chunks)
}

func TestOllamaAdapterGenerate(t *testing.T) {
	fake := newFakeTransport(`{"message":{"content":"ollama test"}}`)
	adapter := newOllamaAdapter("127.0.0.1", "11434", "codellama", fake)

	out, err := adapter.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ollama test", out)
	assert.Equal(t, "ollama", adapter.ProviderName())
}

func TestOllamaAdapterURLUsesHostAndPort(t *testing.T) {
	adapter := newOllamaAdapter("127.0.0.1", "11434", "codellama", newFakeTransport(""))
	assert.Equal(t, "http://127.0.0.1:11434/api/chat", adapter.url())
}

func TestStubAdapterReturnsDefaultPlan(t *testing.T) {
	adapter := NewStubAdapter("")
	out, err := adapter.Generate(context.Background(), "test prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "plan_id")
	assert.Contains(t, out, "plan_stub_001")
}

func TestStubAdapterCustomResponse(t *testing.T) {
	adapter := NewStubAdapter("custom response")
	out, err := adapter.Generate(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "custom response", out)
}

func TestStubAdapterStreamingEmitsChunks(t *testing.T) {
	adapter := NewStubAdapter("")
	var chunks []string
	out, err := adapter.GenerateStreaming(context.Background(), "test", func(c string) { chunks = append(chunks, c) })
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	assert.Contains(t, out, "plan_id")
}

func TestStubAdapterChatStreamingIsConversational(t *testing.T) {
	adapter := NewStubAdapter("")
	out, err := adapter.GenerateChatStreaming(context.Background(), "hi", func(string) {})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "assistant") || strings.Contains(out, "help"))
	assert.Equal(t, "stub", adapter.ProviderName())
}

func TestStubAdapterGenerateChatStreamingEventsEmitsTextThenFinish(t *testing.T) {
	adapter := NewStubAdapter("")
	messages := []Message{
		{Role: RoleSystem, Content: "system"},
		{Role: RoleUser, Content: "hi"},
	}

	var events []StreamingEvent
	out, err := adapter.GenerateChatStreamingEvents(context.Background(), messages, func(e StreamingEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	require.NotEmpty(t, events)
	assert.Equal(t, EventTextDelta, events[0].Kind)
	assert.Equal(t, EventFinish, events[len(events)-1].Kind)
	assert.Equal(t, "stop", events[len(events)-1].FinishReason)
}

// TestOpenAICompatibleAdapterGenerateChatStreamingEventsBuildsFullMessageArray
// exercises Testable Property #8: a multi-turn conversation (system +
// two user/assistant turns) must produce an outgoing messages array
// longer than the 2-message single-prompt shape.
func TestOpenAICompatibleAdapterGenerateChatStreamingEventsBuildsFullMessageArray(t *testing.T) {
	fake := newFakeTransport("data: {\"choices\":[{\"delta\":{\"content\":\"ack\"},\"finish_reason\":null}]}\ndata: [DONE]\n")
	adapter := newOpenAICompatibleAdapter("openai", "https://api.openai.com/v1", "gpt-4", "sk-test", fake)

	messages := []Message{
		{Role: RoleSystem, Content: "system prompt"},
		{Role: RoleUser, Content: "first turn"},
		{Role: RoleAssistant, Content: "[Tool file_read]: OK\nResult: package main"},
		{Role: RoleUser, Content: "second turn"},
	}
	reqBody, err := adapter.buildRequestFromMessages(messages, true)
	require.NoError(t, err)
	var wire struct {
		Messages []json.RawMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(reqBody), &wire))
	require.Greater(t, len(wire.Messages), 2)

	var chunks []string
	out, err := adapter.GenerateChatStreamingEvents(context.Background(), messages, func(e StreamingEvent) {
		if e.Kind == EventTextDelta {
			chunks = append(chunks, e.Text)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "ack", out)
	assert.Equal(t, []string{"ack"}, chunks)
}

func TestOpenAICompatibleAdapterGenerateChatStreamingEventsExtractsToolCallAndUsage(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"file_read","arguments":""}}]},"finish_reason":null}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"path\":\"a.go\"}"}}]},"finish_reason":null}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`,
		"data: [DONE]",
		"",
	}, "\n")
	fake := newFakeTransport(body)
	adapter := newOpenAICompatibleAdapter("openai", "https://api.openai.com/v1", "gpt-4", "sk-test", fake)

	var events []StreamingEvent
	_, err := adapter.GenerateChatStreamingEvents(context.Background(), []Message{{Role: RoleUser, Content: "read a.go"}}, func(e StreamingEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	var sawStart, sawDelta, sawComplete, sawUsage, sawFinish bool
	for _, e := range events {
		switch e.Kind {
		case EventToolCallStart:
			sawStart = true
			assert.Equal(t, "file_read", e.ToolCall.Name)
		case EventToolCallDelta:
			sawDelta = true
		case EventToolCallComplete:
			sawComplete = true
			assert.Contains(t, e.ToolCall.ArgumentsFragment, "a.go")
		case EventUsage:
			sawUsage = true
			assert.Equal(t, 15, e.Usage.TotalTokens)
		case EventFinish:
			sawFinish = true
			assert.Equal(t, "tool_calls", e.FinishReason)
		}
	}
	assert.True(t, sawStart, "expected a ToolCallStart event")
	assert.True(t, sawDelta, "expected a ToolCallDelta event")
	assert.True(t, sawComplete, "expected a ToolCallComplete event")
	assert.True(t, sawUsage, "expected a Usage event")
	assert.True(t, sawFinish, "expected a Finish event")
}
