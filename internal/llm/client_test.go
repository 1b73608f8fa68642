package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081", "test-key", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client == nil || client.client.Timeout != defaultTimeout {
		t.Error("NewClient() should configure an HTTP client with a timeout")
	}
}

func replyWith(content string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ChatResponse{
			ID:     "test-id",
			Object: "chat.completion",
			Choices: []ChatChoice{
				{Message: Message{Role: "assistant", Content: content}, FinishReason: "stop"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestClient_Complete(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
		errIs      error
		errContain string
	}{
		{
			name:       "successful completion",
			serverResp: replyWith("1. Why do you believe this?"),
			wantReply:  "1. Why do you believe this?",
		},
		{
			name: "no choices returned",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []ChatChoice{}})
			},
			wantErr: true,
			errIs:   ErrNoChoices,
		},
		{
			name: "server error carries status and body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte("rate limited"))
			},
			wantErr:    true,
			errContain: "bad status 429: rate limited",
		},
		{
			name: "malformed body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{"))
			},
			wantErr:    true,
			errContain: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			reply, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "Hello"}}, ChatParams{})

			if tt.wantErr {
				if err == nil {
					t.Fatal("Complete() expected error, got nil")
				}
				if tt.errIs != nil && !errors.Is(err, tt.errIs) {
					t.Errorf("Complete() error = %v, want %v", err, tt.errIs)
				}
				if tt.errContain != "" && !strings.Contains(err.Error(), tt.errContain) {
					t.Errorf("Complete() error = %v, want it to contain %q", err, tt.errContain)
				}
				return
			}

			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if reply != tt.wantReply {
				t.Errorf("Complete() reply = %v, want %v", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_Complete_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "custom-model" {
			t.Errorf("model = %s, want custom-model", req.Model)
		}
		if req.MaxTokens != 1024 {
			t.Errorf("max_tokens = %d, want 1024", req.MaxTokens)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want system then user", req.Messages)
		}

		replyWith("ok")(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	messages := []Message{
		{Role: "system", Content: "You are a Socratic questioner"},
		{Role: "user", Content: "Hello"},
	}

	if _, err := client.Complete(context.Background(), messages, ChatParams{Model: "custom-model", MaxTokens: 1024}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestClient_Complete_DefaultsAndOmissions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if raw["model"] != "test-model" {
			t.Errorf("model = %v, want client default test-model", raw["model"])
		}
		for _, field := range []string{"max_tokens", "temperature"} {
			if _, ok := raw[field]; ok {
				t.Errorf("%s should be omitted when zero", field)
			}
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("Authorization header should be omitted without an API key")
		}
		replyWith("ok")(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "test-model")
	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "Hello"}}, ChatParams{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestClient_Complete_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(replyWith("late")))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "test-key", "test-model")
	if _, err := client.Complete(ctx, []Message{{Role: "user", Content: "Hello"}}, ChatParams{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Complete() error = %v, want context.Canceled", err)
	}
}
