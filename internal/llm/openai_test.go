package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/hilal/internal/model"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: 1677652288,
			Model:   "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{
				TotalTokens: 100,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Summarize_Success(t *testing.T) {
	server := chatServer(t, "Shawwal 1438 began on 2017-06-25 in Saudi Arabia.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
		Strict:  true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{
		AllowedDates: []string{"2017-06-25"},
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if resp.Summary != "Shawwal 1438 began on 2017-06-25 in Saudi Arabia." {
		t.Errorf("Unexpected summary: %s", resp.Summary)
	}
	if len(resp.CitedDates) != 1 || resp.CitedDates[0] != "2017-06-25" {
		t.Errorf("Unexpected cited dates: %v", resp.CitedDates)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Expected 100 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Summarize_DateLeak(t *testing.T) {
	server := chatServer(t, "Morocco started on 2017-06-26.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5, Strict: true})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Summarize(context.Background(), SummarizeRequest{
		AllowedDates: []string{"2017-06-25"},
	})
	if err == nil || !strings.Contains(err.Error(), "DATE LEAK") {
		t.Fatalf("Expected date leak error, got %v", err)
	}
}

func TestOpenAIProvider_Summarize_NotStrict(t *testing.T) {
	server := chatServer(t, "Morocco started on 2017-06-26.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{})
	if err != nil {
		t.Fatalf("Expected lenient mode to accept the summary, got %v", err)
	}
	if len(resp.CitedDates) != 1 {
		t.Errorf("Expected cited dates to be reported, got %v", resp.CitedDates)
	}
}

func TestOpenAIProvider_Summarize_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Summarize(context.Background(), SummarizeRequest{Report: model.RunReport{RunID: "test"}})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Summarize_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Summarize(context.Background(), SummarizeRequest{})
	if err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestOpenAIProvider_Summarize_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	// The caller's deadline wins over the provider timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Summarize(ctx, SummarizeRequest{}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestOpenAIProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestNewOpenAIProvider_MissingKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("Expected nil provider for empty name, got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "anthropic"}); err == nil {
		t.Error("Expected error for unsupported provider")
	}

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	if err != nil {
		t.Fatalf("Expected openai provider, got %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Expected openai, got %s", p.Name())
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(
		model.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", Timeout: 10, MaxTokens: 500, Strict: true},
		model.HTTPConfig{HTTPProxy: "http://proxy:3128", NoProxy: "localhost"},
	)
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" || !cfg.Strict {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.HTTPProxy != "http://proxy:3128" || cfg.NoProxy != "localhost" {
		t.Errorf("Expected proxy settings to carry over, got %+v", cfg)
	}
}

func TestVerifyDates(t *testing.T) {
	allowed := []string{"2017-06-25", "2017-06-26"}
	if err := verifyDates([]string{"2017-06-25"}, allowed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := verifyDates(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := verifyDates([]string{"2017-06-24", "2017-06-26", "2017-06-27"}, allowed)
	var leak *UnverifiedDatesError
	if !errors.As(err, &leak) {
		t.Fatalf("want *UnverifiedDatesError, got %v", err)
	}
	if strings.Join(leak.Dates, ",") != "2017-06-24,2017-06-27" {
		t.Errorf("leaked = %v", leak.Dates)
	}
}

func TestChatRequest_Defaults(t *testing.T) {
	p := &OpenAIProvider{config: Config{}}
	req := p.chatRequest(SummarizeRequest{Prompt: "digest"})
	if req.Model != openai.GPT4oMini || req.MaxTokens != defaultMaxTokens {
		t.Errorf("defaults not applied: %s %d", req.Model, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[1].Content != "digest" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}

	p = &OpenAIProvider{config: Config{Model: "gpt-4o", MaxTokens: 300}}
	req = p.chatRequest(SummarizeRequest{Model: "local-model"})
	if req.Model != "local-model" || req.MaxTokens != 300 {
		t.Errorf("override order wrong: %s %d", req.Model, req.MaxTokens)
	}
	if !strings.Contains(req.Messages[1].Content, "Hijri month-start reconciliation run") {
		t.Error("default prompt not used when Prompt is empty")
	}
}
