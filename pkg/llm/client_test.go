package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ok\": true}"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

type capturedRequest struct {
	path   string
	query  string
	apiKey string
	body   map[string]any
}

func newCompletionServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.apiKey = r.Header.Get("api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestNewClient_RequiresEndpointAndModel(t *testing.T) {
	_, err := NewClient(&Config{Model: "gpt-4o"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient(&Config{Endpoint: "http://localhost"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient(&Config{Provider: "bedrock", Endpoint: "http://localhost", Model: "m"}, zap.NewNop())
	assert.Error(t, err)
}

func TestClient_GenerateResponse_OpenAICompatible(t *testing.T) {
	srv, captured := newCompletionServer(t, http.StatusOK, completionBody)

	client, err := NewClient(&Config{Endpoint: srv.URL + "/v1/", Model: "gpt-4o", APIKey: "sk-test", JSONMode: true}, zap.NewNop())
	require.NoError(t, err)

	result, err := client.GenerateResponse(context.Background(), "prompt", "system", 0.2, false)
	require.NoError(t, err)

	assert.Equal(t, `{"ok": true}`, result.Content)
	assert.Equal(t, 12, result.PromptTokens)
	assert.Equal(t, 4, result.CompletionTokens)
	assert.Equal(t, 16, result.TotalTokens)

	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "gpt-4o", captured.body["model"])
	assert.Contains(t, captured.body, "chat_template_kwargs")
	assert.Equal(t, map[string]any{"type": "json_object"}, captured.body["response_format"])

	messages, ok := captured.body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "prompt", messages[1].(map[string]any)["content"])
}

func TestClient_GenerateResponse_Azure(t *testing.T) {
	srv, captured := newCompletionServer(t, http.StatusOK, completionBody)

	client, err := NewClient(&Config{
		Provider:   ProviderAzure,
		Endpoint:   srv.URL,
		Model:      "validator-gpt4o",
		APIKey:     "azure-key",
		APIVersion: "2024-06-01",
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "prompt", "system", 0, true)
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/validator-gpt4o/chat/completions", captured.path)
	assert.Equal(t, "api-version=2024-06-01", captured.query)
	assert.Equal(t, "azure-key", captured.apiKey)
	assert.NotContains(t, captured.body, "chat_template_kwargs")
	assert.NotContains(t, captured.body, "response_format")
}

func TestClient_GenerateResponse_RateLimited(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusTooManyRequests,
		`{"error": {"message": "Rate limit reached for requests", "type": "requests", "code": "rate_limit_exceeded"}}`)

	client, err := NewClient(&Config{Endpoint: srv.URL, Model: "gpt-4o"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "prompt", "system", 0, false)
	require.Error(t, err)

	assert.True(t, IsRateLimited(err))
	assert.True(t, IsRetryable(err))

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, 429, llmErr.StatusCode)
	assert.Equal(t, "gpt-4o", llmErr.Model)
}

func TestClient_GenerateResponse_AuthFailure(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusUnauthorized,
		`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`)

	client, err := NewClient(&Config{Endpoint: srv.URL, Model: "gpt-4o"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "prompt", "system", 0, false)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeAuth, GetErrorType(err))
	assert.False(t, IsRetryable(err))
}

func TestClient_GenerateResponse_NoChoices(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusOK, `{"id": "x", "choices": [], "usage": {}}`)

	client, err := NewClient(&Config{Endpoint: srv.URL, Model: "gpt-4o"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "prompt", "system", 0, false)
	assert.Error(t, err)
}

func TestNewClientFromConfig(t *testing.T) {
	c, err := NewClientFromConfig(&Config{Provider: "OpenAI", Endpoint: "http://localhost:8000/v1", Model: "qwen"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Client{}, c)
	assert.Equal(t, "qwen", c.GetModel())

	c, err = NewClientFromConfig(&Config{Provider: "anthropic", APIKey: "k", Model: "claude-sonnet-4-5"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)
	assert.Empty(t, c.GetEndpoint())

	_, err = NewClientFromConfig(&Config{Provider: "anthropic", Model: "claude-sonnet-4-5"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClientFromConfig(&Config{Provider: "cohere", Model: "x"}, zap.NewNop())
	assert.Error(t, err)
}
