// Package llm generates answers through an external language model
// provider. One Generator interface covers all vendors; the variant is
// selected by configuration, so prompt assembly, caching and cost
// logging stay shared.
package llm

import (
	"context"
	"fmt"
)

// Reply is one generated answer with the token usage needed for cost
// accounting.
type Reply struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator produces an answer to a citizen question under a system
// prompt. The answer text is opaque to the engine.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, question string) (*Reply, error)
}

// Config selects and configures a generation provider.
type Config struct {
	Provider  string // "anthropic", "openai", or "ollama"
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// NewGenerator builds the provider named in the config.
func NewGenerator(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicGenerator(cfg)
	case "openai":
		return NewOpenAIGenerator(cfg)
	case "ollama":
		return NewOllamaGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %q", cfg.Provider)
	}
}
