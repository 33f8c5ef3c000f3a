package llmadapter

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/oldnordic/odincode/internal/observability"
	"github.com/oldnordic/odincode/internal/odinerrors"
)

// Adapter is the provider-agnostic interface every concrete LLM
// backend implements. The chat loop and session layer call through
// this interface only — they never see GLM, OpenAI, or Ollama request
// shapes directly.
type Adapter interface {
	// Generate returns one full, non-streaming completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateStreaming streams a planning-mode completion, invoking
	// onChunk for each fragment as it arrives and returning the full
	// concatenated text. Adapters that cannot stream natively still
	// satisfy this by calling onChunk once with the whole response.
	GenerateStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error)
	// GenerateChatStreaming is the chat-mode counterpart to
	// GenerateStreaming: same streaming contract, different system
	// framing (conversational, no evidence/plan-format requirement).
	GenerateChatStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error)
	// GenerateChatStreamingEvents is the multi-turn streaming
	// entrypoint: it builds the chat-completions request from the full
	// messages array a frame.Stack assembles (system prompt, timeline
	// grounding, mode instruction, every prior frame) rather than a
	// single prompt string, and streams back typed events — incremental
	// text, provider-native tool-call deltas, the terminal
	// finish_reason, and usage accounting. A chat loop holding a full
	// conversation history calls this, never Generate/GenerateStreaming.
	GenerateChatStreamingEvents(ctx context.Context, messages []Message, onEvent func(StreamingEvent)) (string, error)
	// SupportsStreaming reports whether this adapter streams natively
	// or falls back to a single GenerateStreaming callback.
	SupportsStreaming() bool
	// ProviderName identifies the adapter for logging.
	ProviderName() string
}

// logRequestBody emits a redacted debug log of an outgoing request
// body, mirroring the teacher's own RawJSON(observability.RedactJSON(...))
// logging around its provider calls.
func logRequestBody(provider, url string, body string) {
	log.Debug().Str("provider", provider).Str("url", url).
		RawJSON("request", observability.RedactJSON(json.RawMessage(body))).
		Msg("llmadapter_request")
}

// logResponseError emits a redacted error log for a failed provider
// call, so a raw API key or bearer token accidentally echoed back in
// an error body never reaches the log file unredacted.
func logResponseError(provider string, err error) {
	if err == nil {
		return
	}
	msg, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return
	}
	log.Error().Str("provider", provider).
		RawJSON("response", observability.RedactJSON(msg)).
		Msg("llmadapter_response_error")
}

// openAICompatibleAdapter speaks the OpenAI chat-completions wire
// format over SSE. OpenAI and GLM are the same adapter with different
// base_url/model/api_key, since GLM's "coding/paas" endpoint mirrors
// the OpenAI request and SSE shape exactly.
type openAICompatibleAdapter struct {
	name      string
	baseURL   string
	model     string
	apiKey    string
	transport Transport
}

func newOpenAICompatibleAdapter(name, baseURL, model, apiKey string, transport Transport) *openAICompatibleAdapter {
	return &openAICompatibleAdapter{name: name, baseURL: baseURL, model: model, apiKey: apiKey, transport: transport}
}

func (a *openAICompatibleAdapter) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.apiKey}
}

func (a *openAICompatibleAdapter) buildRequest(system, prompt string, stream bool) (string, error) {
	messages, err := NormalizeForOpenAICompatible([]Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: prompt},
	})
	if err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "build request body", err)
	}

	body := struct {
		Model    string          `json:"model"`
		Messages json.RawMessage `json:"messages"`
		Stream   bool            `json:"stream"`
	}{Model: a.model, Messages: messages, Stream: stream}

	out, err := json.Marshal(body)
	if err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "marshal request body", err)
	}
	return string(out), nil
}

func (a *openAICompatibleAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := a.buildRequest(planningSystemPrompt, prompt, false)
	if err != nil {
		return "", err
	}
	resp, err := a.transport.PostJSON(ctx, a.baseURL+"/chat/completions", a.headers(), reqBody)
	if err != nil {
		return "", err
	}
	return ParseOpenAIChatCompletion(resp)
}

func (a *openAICompatibleAdapter) generateStreamingWithSystem(ctx context.Context, system, prompt string, onChunk func(string)) (string, error) {
	reqBody, err := a.buildRequest(system, prompt, true)
	if err != nil {
		return "", err
	}

	var sseBody string
	_, err = a.transport.PostStream(ctx, a.baseURL+"/chat/completions", a.headers(), reqBody, func(line string) {
		sseBody += line + "\n"
	})
	if err != nil {
		return "", err
	}
	return ParseOpenAISSEStream(sseBody, onChunk)
}

func (a *openAICompatibleAdapter) GenerateStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return a.generateStreamingWithSystem(ctx, planningSystemPrompt, prompt, onChunk)
}

func (a *openAICompatibleAdapter) GenerateChatStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return a.generateStreamingWithSystem(ctx, chatSystemPrompt, prompt, onChunk)
}

func (a *openAICompatibleAdapter) buildRequestFromMessages(messages []Message, stream bool) (string, error) {
	wire, err := NormalizeForOpenAICompatible(messages)
	if err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "build request body", err)
	}
	body := struct {
		Model    string          `json:"model"`
		Messages json.RawMessage `json:"messages"`
		Stream   bool            `json:"stream"`
	}{Model: a.model, Messages: wire, Stream: stream}

	out, err := json.Marshal(body)
	if err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "marshal request body", err)
	}
	return string(out), nil
}

func (a *openAICompatibleAdapter) GenerateChatStreamingEvents(ctx context.Context, messages []Message, onEvent func(StreamingEvent)) (string, error) {
	url := a.baseURL + "/chat/completions"
	reqBody, err := a.buildRequestFromMessages(messages, true)
	if err != nil {
		return "", err
	}
	logRequestBody(a.name, url, reqBody)

	var sseBody string
	_, err = a.transport.PostStream(ctx, url, a.headers(), reqBody, func(line string) {
		sseBody += line + "\n"
	})
	if err != nil {
		logResponseError(a.name, err)
		return "", err
	}
	return ParseOpenAISSEStreamEvents(sseBody, onEvent)
}

func (a *openAICompatibleAdapter) SupportsStreaming() bool { return true }
func (a *openAICompatibleAdapter) ProviderName() string    { return a.name }

// ollamaAdapter speaks Ollama's /api/chat NDJSON wire format.
type ollamaAdapter struct {
	host      string
	port      string
	model     string
	transport Transport
}

func newOllamaAdapter(host, port, model string, transport Transport) *ollamaAdapter {
	return &ollamaAdapter{host: host, port: port, model: model, transport: transport}
}

func (a *ollamaAdapter) url() string {
	return "http://" + a.host + ":" + a.port + "/api/chat"
}

func (a *ollamaAdapter) buildRequest(system, prompt string, stream bool) (string, error) {
	body := struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
		Stream   bool      `json:"stream"`
	}{
		Model: a.model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: prompt},
		},
		Stream: stream,
	}
	out, err := json.Marshal(body)
	if err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "marshal request body", err)
	}
	return string(out), nil
}

func (a *ollamaAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := a.buildRequest(planningSystemPrompt, prompt, false)
	if err != nil {
		return "", err
	}
	resp, err := a.transport.PostJSON(ctx, a.url(), nil, reqBody)
	if err != nil {
		return "", err
	}
	return ParseOllamaChatCompletion(resp)
}

func (a *ollamaAdapter) generateStreamingWithSystem(ctx context.Context, system, prompt string, onChunk func(string)) (string, error) {
	reqBody, err := a.buildRequest(system, prompt, true)
	if err != nil {
		return "", err
	}

	var ndjsonBody string
	_, err = a.transport.PostStream(ctx, a.url(), nil, reqBody, func(line string) {
		ndjsonBody += line + "\n"
	})
	if err != nil {
		return "", err
	}
	return ParseOllamaNDJSONStream(ndjsonBody, onChunk)
}

func (a *ollamaAdapter) GenerateStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return a.generateStreamingWithSystem(ctx, planningSystemPrompt, prompt, onChunk)
}

func (a *ollamaAdapter) GenerateChatStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return a.generateStreamingWithSystem(ctx, chatSystemPrompt, prompt, onChunk)
}

func (a *ollamaAdapter) buildRequestFromMessages(messages []Message, stream bool) (string, error) {
	body := struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
		Stream   bool      `json:"stream"`
	}{Model: a.model, Messages: messages, Stream: stream}
	out, err := json.Marshal(body)
	if err != nil {
		return "", odinerrors.Wrap(odinerrors.KindInvalidResponse, "marshal request body", err)
	}
	return string(out), nil
}

func (a *ollamaAdapter) GenerateChatStreamingEvents(ctx context.Context, messages []Message, onEvent func(StreamingEvent)) (string, error) {
	reqBody, err := a.buildRequestFromMessages(messages, true)
	if err != nil {
		return "", err
	}
	logRequestBody("ollama", a.url(), reqBody)

	var ndjsonBody string
	_, err = a.transport.PostStream(ctx, a.url(), nil, reqBody, func(line string) {
		ndjsonBody += line + "\n"
	})
	if err != nil {
		logResponseError("ollama", err)
		return "", err
	}
	return ParseOllamaNDJSONStreamEvents(ndjsonBody, onEvent)
}

func (a *ollamaAdapter) SupportsStreaming() bool { return true }
func (a *ollamaAdapter) ProviderName() string    { return "ollama" }

// stubAdapter returns canned responses without touching the network,
// for integration tests and for operation when no provider is
// configured.
type stubAdapter struct {
	response string
}

// NewStubAdapter builds a stub that always returns response.
func NewStubAdapter(response string) Adapter {
	if response == "" {
		response = defaultStubPlan
	}
	return &stubAdapter{response: response}
}

const defaultStubPlan = `{"plan_id":"plan_stub_001","intent":"READ","steps":[{"step_id":"step_1","tool":"file_read","arguments":{"path":"README.md"},"precondition":"file exists","requires_confirmation":false}],"evidence_referenced":[]}`

func (a *stubAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	return a.response, nil
}

func (a *stubAdapter) emitInChunks(text string, onChunk func(string)) string {
	const chunkSize = 20
	runes := []rune(text)
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		onChunk(string(runes[i:end]))
	}
	return text
}

func (a *stubAdapter) GenerateStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return a.emitInChunks(a.response, onChunk), nil
}

const defaultStubChatResponse = "Hello! I'm your programming assistant. How can I help you today?"

func (a *stubAdapter) GenerateChatStreaming(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return a.emitInChunks(defaultStubChatResponse, onChunk), nil
}

// GenerateChatStreamingEvents ignores the messages array (the stub
// never inspects conversation history) and emits the same canned
// response as text-delta events, terminated by a Finish event with no
// tool call — matching how a turn with no TOOL_CALL block ends.
func (a *stubAdapter) GenerateChatStreamingEvents(ctx context.Context, messages []Message, onEvent func(StreamingEvent)) (string, error) {
	var full string
	a.emitInChunks(defaultStubChatResponse, func(chunk string) {
		full += chunk
		onEvent(StreamingEvent{Kind: EventTextDelta, Text: chunk})
	})
	onEvent(StreamingEvent{Kind: EventFinish, FinishReason: "stop"})
	return full, nil
}

func (a *stubAdapter) SupportsStreaming() bool { return true }
func (a *stubAdapter) ProviderName() string    { return "stub" }

const (
	planningSystemPrompt = "You are an audit-grade repository assistant. Respond with a single JSON plan object using only whitelisted tools, grounded in evidence query results."
	chatSystemPrompt     = "You are a concise, helpful repository assistant having a conversation. No structured plan is required."
)
