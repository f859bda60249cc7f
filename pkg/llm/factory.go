package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewClientFromConfig builds the client for cfg.Provider. An empty provider
// means an OpenAI-compatible endpoint.
func NewClientFromConfig(cfg *Config, logger *zap.Logger) (LLMClient, error) {
	c := *cfg
	c.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch c.Provider {
	case "", ProviderOpenAI, ProviderAzure:
		return NewClient(&c, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(&c, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
