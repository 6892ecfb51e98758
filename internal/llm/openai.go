package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/hilal/internal/util"
)

// OpenAIProvider produces run digests through an OpenAI-compatible
// chat completions endpoint
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required (llm.api_key or OPENAI_API_KEY)")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: util.NewTransport(false, config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable probes the endpoint with a model listing
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		slog.Warn("llm endpoint unreachable", "provider", p.Name(), "base_url", p.config.BaseURL, "error", err)
		return false
	}
	return true
}

const (
	defaultMaxTokens = 800
	defaultTimeout   = 30 * time.Second

	systemPrompt = "You summarize Hijri calendar reconciliation runs and never state a date that is not in the provided records."
)

// UnverifiedDatesError lists dates a digest cited that are not reconciled
// start dates
type UnverifiedDatesError struct {
	Dates []string
}

func (e *UnverifiedDatesError) Error() string {
	return fmt.Sprintf("DATE LEAK: digest cites dates outside the reconciled set: %s", strings.Join(e.Dates, ", "))
}

// verifyDates returns an *UnverifiedDatesError when any cited date is
// missing from allowed
func verifyDates(cited, allowed []string) error {
	var leaked []string
	for _, d := range cited {
		if !contains(allowed, d) {
			leaked = append(leaked, d)
		}
	}
	if len(leaked) == 0 {
		return nil
	}
	return &UnverifiedDatesError{Dates: leaked}
}

// chatRequest builds the completion request, falling back from the request
// to the provider config to package defaults
func (p *OpenAIProvider) chatRequest(req SummarizeRequest) openai.ChatCompletionRequest {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.Records)
	}
	return openai.ChatCompletionRequest{
		Model: firstNonEmpty(req.Model, p.config.Model, openai.GPT4oMini),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   firstPositive(req.MaxTokens, p.config.MaxTokens, defaultMaxTokens),
		Temperature: 0.2,
	}
}

// Summarize asks the chat completions endpoint for a run digest. In strict
// mode a digest citing an unreconciled date is rejected.
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := p.chatRequest(req)
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: no choices returned")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	cited := extractDates(summary)
	if p.config.Strict {
		if err := verifyDates(cited, req.AllowedDates); err != nil {
			return nil, err
		}
	}

	return &SummarizeResponse{
		Summary:    summary,
		CitedDates: cited,
		Model:      chatReq.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
