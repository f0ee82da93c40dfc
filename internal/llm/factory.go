package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/aidmatch/internal/model"
)

const defaultOllamaURL = "http://localhost:11434/v1"

// NewProvider creates an LLM provider from configuration. An empty provider
// name returns nil, meaning drafting is disabled.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		// Ollama serves an OpenAI-compatible API and ignores the key
		if config.BaseURL == "" {
			config.BaseURL = defaultOllamaURL
		}
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		if config.Model == "" {
			config.Model = "llama3.1"
		}
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		p.name = "ollama"
		return p, nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:       c.Provider,
		Model:          c.Model,
		APIKey:         c.APIKey,
		BaseURL:        c.BaseURL,
		Timeout:        c.Timeout,
		StrictEvidence: c.StrictEvidence,
		MaxTokens:      c.MaxTokens,
		HTTPProxy:      c.HTTPProxy,
		HTTPSProxy:     c.HTTPSProxy,
	}
}
