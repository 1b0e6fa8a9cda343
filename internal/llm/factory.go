package llm

import (
	"fmt"
	"strings"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

// NewClient creates a chat model client based on configuration, wrapped with
// the bounded retry policy.
func NewClient(config model.LLMConfig) (Client, error) {
	var (
		inner Client
		err   error
	)

	switch strings.ToLower(config.Provider) {
	case "openai", "":
		inner, err = NewOpenAIClient(config)
	case "ollama":
		inner, err = NewOllamaClient(config)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewRetrying(inner, PolicyFromConfig(config)), nil
}
