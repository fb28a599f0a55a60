// Package llm provides generation and embedding capabilities behind
// provider-agnostic interfaces, with one implementation per backend.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EmbedKind selects the embedding mode: indexing documents or searching.
type EmbedKind string

const (
	EmbedDocument EmbedKind = "document"
	EmbedQuery    EmbedKind = "query"
)

// Embedder converts text into a vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string, kind EmbedKind) ([]float32, error)
	Dimensions() int
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error)
}

// Provider bundles the generation and embedding capabilities of one backend.
type Provider interface {
	Embedder
	Generator
	Close() error
}

// Config selects and configures an LLM provider.
type Config struct {
	Provider        string
	BaseURL         string
	APIKey          string
	GenerationModel string
	EmbeddingModel  string
	Dimensions      int
	MaxInputChars   int
	MaxOutputTokens int
	Timeout         time.Duration
}

// Provider keys accepted by NewProvider.
const (
	ProviderOpenAI = "openai"
	ProviderCohere = "cohere"
	ProviderMock   = "mock"
)

// NewProvider creates the provider selected by cfg.Provider. The rest of the
// pipeline depends only on the interfaces, so the backend is chosen exactly
// once, at startup.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg)
	case ProviderCohere:
		return NewCohere(cfg)
	case ProviderMock:
		return NewMock(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai, cohere, mock)", cfg.Provider)
	}
}

// clip bounds provider input to max characters. Providers reject nothing;
// oversized prompts are cut to the configured input budget.
func clip(s string, max int) string {
	if max > 0 && len(s) > max {
		s = s[:max]
	}
	return strings.TrimSpace(s)
}

func applyDefaults(cfg *Config) {
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = 8000
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 1000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
}
