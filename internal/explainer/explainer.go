// Package explainer produces detailed explanations of text passages,
// optionally enriched with surrounding context.
package explainer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/llm"
	"github.com/hyperjump/ronbun/internal/prompts"
)

const explainTemperature = 0.6

// Explainer generates explanations for arbitrary text.
type Explainer struct {
	generator llm.Generator
	prompts   *prompts.Registry
	logger    *zap.Logger
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Explainer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an explainer.
func New(generator llm.Generator, registry *prompts.Registry, opts ...Option) *Explainer {
	e := &Explainer{
		generator: generator,
		prompts:   registry,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explain generates an explanation of text. When extra is non-empty it is
// supplied to the model as surrounding context.
func (e *Explainer) Explain(ctx context.Context, text, extra string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to explain")
	}

	system, err := e.prompts.Get(prompts.GroupExplainer, "system_prompt", nil)
	if err != nil {
		return "", err
	}
	docKey := "document_prompt"
	vars := map[string]string{"text": text}
	if extra != "" {
		docKey = "document_prompt_with_context"
		vars["context"] = extra
	}
	document, err := e.prompts.Get(prompts.GroupExplainer, docKey, vars)
	if err != nil {
		return "", err
	}
	footer, err := e.prompts.Get(prompts.GroupExplainer, "footer_prompt", nil)
	if err != nil {
		return "", err
	}

	explanation, err := e.generator.Generate(ctx, document+"\n\n"+footer, system, explainTemperature)
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		return "", fmt.Errorf("empty explanation from provider")
	}
	e.logger.Debug("text explained", zap.Int("input_chars", len(text)))
	return explanation, nil
}
