package translator

import (
	"context"
	"errors"
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

func TestTranslatePromptAssembly(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, userPrompt, systemPrompt string, temp float64) (string, error) {
		if temp != translateTemperature {
			t.Errorf("temperature = %f", temp)
		}
		if !strings.Contains(systemPrompt, "translated text only") {
			t.Error("system prompt missing")
		}
		if !strings.Contains(userPrompt, "The target language: German") {
			t.Error("target language missing from prompt")
		}
		if !strings.Contains(userPrompt, "good morning") {
			t.Error("text missing from prompt")
		}
		return " Guten Morgen ", nil
	})
	tr := New(gen, newRegistry())
	got, err := tr.Translate(context.Background(), "good morning", "German")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Guten Morgen" {
		t.Errorf("got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tr := New(nil, newRegistry())
	tests := []struct {
		name   string
		text   string
		target string
		want   error
	}{
		{"valid", "hello", "Spanish", nil},
		{"empty text", "  ", "Spanish", ErrEmptyText},
		{"too long", strings.Repeat("a", 5001), "Spanish", ErrTextTooLong},
		{"unsupported language", "hello", "Klingon", ErrUnsupportedLanguage},
		{"code not accepted directly", "hello", "es", ErrUnsupportedLanguage},
	}
	for _, tt := range tests {
		if got := tr.Validate(tt.text, tt.target); !errors.Is(got, tt.want) {
			t.Errorf("%s: Validate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTranslateRejectsInvalidRequest(t *testing.T) {
	tr := New(generatorFunc(func(context.Context, string, string, float64) (string, error) {
		t.Error("generator must not be called for invalid input")
		return "", nil
	}), newRegistry())
	if _, err := tr.Translate(context.Background(), "", "Spanish"); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestTranslateGenerationFailure(t *testing.T) {
	tr := New(generatorFunc(func(context.Context, string, string, float64) (string, error) {
		return "", fmt.Errorf("provider down")
	}), newRegistry())
	if _, err := tr.Translate(context.Background(), "hello", "French"); err == nil {
		t.Error("expected error on generation failure")
	}
}

func TestMapLanguage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"ES", "Spanish"},
		{"ja", "Japanese"},
		{"xx", "English"},
		{"", "English"},
	}
	for _, tt := range tests {
		if got := MapLanguage(tt.code); got != tt.want {
			t.Errorf("MapLanguage(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
