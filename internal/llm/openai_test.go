package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

func newTestOpenAI(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClient(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-3.5-turbo",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestOpenAIClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4" {
			t.Errorf("expected request model gpt-4, got %s", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "Die Antwort.",
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestOpenAI(t, server.URL)
	out, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
		Model:    "gpt-4",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "Die Antwort." {
		t.Errorf("unexpected reply: %q", out)
	}
}

func TestOpenAIClient_Complete_DefaultModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-3.5-turbo" {
			t.Errorf("expected the configured default model, got %s", req.Model)
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "ok"}},
			},
		})
	}))
	defer server.Close()

	client := newTestOpenAI(t, server.URL)
	if _, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestOpenAIClient_Complete_RateLimitIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	client := newTestOpenAI(t, server.URL)
	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsTransient(err) {
		t.Errorf("rate limit should be transient, got %v", err)
	}
}

func TestOpenAIClient_Complete_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := newTestOpenAI(t, server.URL)
	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsTransient(err) {
		t.Errorf("server error should be transient, got %v", err)
	}
}

func TestOpenAIClient_Complete_AuthErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestOpenAI(t, server.URL)
	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if IsTransient(err) {
		t.Errorf("auth errors must not be retried, got %v", err)
	}
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(model.LLMConfig{}); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestClassifyOpenAIError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"api 429", &openai.APIError{HTTPStatusCode: 429}, true},
		{"api 503", &openai.APIError{HTTPStatusCode: 503}, true},
		{"api 400", &openai.APIError{HTTPStatusCode: 400}, false},
		{"request 500", &openai.RequestError{HTTPStatusCode: 500, Err: errors.New("boom")}, true},
		{"cancelled", context.Canceled, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"other", errors.New("something else"), false},
	}
	for _, c := range cases {
		got := ClassifyOpenAIError(c.err)
		if IsTransient(got) != c.transient {
			t.Errorf("%s: transient = %v, want %v", c.name, IsTransient(got), c.transient)
		}
		if !c.transient && !errors.Is(got, c.err) {
			t.Errorf("%s: fatal errors must pass through unchanged", c.name)
		}
	}
}
