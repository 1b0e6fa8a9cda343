package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

func TestOllamaClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama3" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.System != "Du bist ein Assistent." {
			t.Errorf("system message not split out: %q", req.System)
		}
		if req.Prompt != "Frage?" {
			t.Errorf("unexpected prompt: %q", req.Prompt)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    req.Model,
			Response: "Die Antwort.",
			Done:     true,
		})
	}))
	defer server.Close()

	client, err := NewOllamaClient(model.LLMConfig{BaseURL: server.URL, Model: "llama3"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	out, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "Du bist ein Assistent."},
			{Role: RoleUser, Content: "Frage?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "Die Antwort." {
		t.Errorf("unexpected reply: %q", out)
	}
}

func TestOllamaClient_Complete_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "loading model"})
	}))
	defer server.Close()

	client, err := NewOllamaClient(model.LLMConfig{BaseURL: server.URL, Model: "llama3"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsTransient(err) {
		t.Errorf("5xx should be transient, got %v", err)
	}
}

func TestOllamaClient_Complete_ClientErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not found"})
	}))
	defer server.Close()

	client, err := NewOllamaClient(model.LLMConfig{BaseURL: server.URL, Model: "missing"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if IsTransient(err) {
		t.Errorf("4xx must not be retried, got %v", err)
	}
}

func TestOllamaClient_ConnectionErrorIsTransient(t *testing.T) {
	// Closed server: the dial fails.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewOllamaClient(model.LLMConfig{BaseURL: server.URL, Model: "llama3"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Frage?"}},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsTransient(err) {
		t.Errorf("connection failures should be transient, got %v", err)
	}
}

func TestOllamaClient_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewOllamaClient(model.LLMConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if !client.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Close()
	if client.IsAvailable(context.Background()) {
		t.Error("Expected available to be false after shutdown")
	}
}
