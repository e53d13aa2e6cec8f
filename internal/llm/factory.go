package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates an oracle provider based on configuration. An empty
// provider name yields (nil, nil): the oracle is disabled and callers must
// apply their documented fallback policy.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
