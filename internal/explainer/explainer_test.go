package explainer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/ronbun/internal/prompts"
)

type generatorFunc func(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error)

func (f generatorFunc) Generate(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error) {
	return f(ctx, userPrompt, systemPrompt, temperature)
}

func newRegistry() *prompts.Registry { return prompts.NewRegistry("en") }

func TestExplainPromptAssembly(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, userPrompt, systemPrompt string, temp float64) (string, error) {
		if temp != explainTemperature {
			t.Errorf("temperature = %f", temp)
		}
		if !strings.Contains(systemPrompt, "expert educator") {
			t.Error("system prompt missing")
		}
		if !strings.Contains(userPrompt, "attention is all you need") {
			t.Error("user prompt missing the text")
		}
		if strings.Contains(userPrompt, "Context:") {
			t.Error("context block must be absent without context")
		}
		return "  a thorough explanation  ", nil
	})
	e := New(gen, newRegistry())
	got, err := e.Explain(context.Background(), "attention is all you need", "")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "a thorough explanation" {
		t.Errorf("got %q", got)
	}
}

func TestExplainWithContext(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, userPrompt, _ string, _ float64) (string, error) {
		if !strings.Contains(userPrompt, "Context: the surrounding section") {
			t.Error("context missing from prompt")
		}
		if !strings.Contains(userPrompt, "Text: softmax scaling") {
			t.Error("text missing from prompt")
		}
		return "explained with context", nil
	})
	e := New(gen, newRegistry())
	got, err := e.Explain(context.Background(), "softmax scaling", "the surrounding section")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "explained with context" {
		t.Errorf("got %q", got)
	}
}

func TestExplainEmptyTextRejected(t *testing.T) {
	e := New(generatorFunc(func(context.Context, string, string, float64) (string, error) {
		t.Error("generator must not be called for empty text")
		return "", nil
	}), newRegistry())
	if _, err := e.Explain(context.Background(), "   ", ""); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestExplainGenerationFailure(t *testing.T) {
	e := New(generatorFunc(func(context.Context, string, string, float64) (string, error) {
		return "", fmt.Errorf("provider down")
	}), newRegistry())
	if _, err := e.Explain(context.Background(), "some text", ""); err == nil {
		t.Error("expected error on generation failure")
	}
}

func TestExplainEmptyGenerationIsError(t *testing.T) {
	e := New(generatorFunc(func(context.Context, string, string, float64) (string, error) {
		return "   ", nil
	}), newRegistry())
	if _, err := e.Explain(context.Background(), "some text", ""); err == nil {
		t.Error("expected error on blank generation")
	}
}
