package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/hilal/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "":
		// No provider configured - LLM disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", config.Provider)
	}
}

// ConfigFromModel converts model configuration to llm.Config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:   llmCfg.Provider,
		Model:      llmCfg.Model,
		APIKey:     llmCfg.APIKey,
		BaseURL:    llmCfg.BaseURL,
		Timeout:    llmCfg.Timeout,
		Strict:     llmCfg.Strict,
		MaxTokens:  llmCfg.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}
}
