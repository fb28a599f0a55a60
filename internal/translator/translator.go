// Package translator translates text passages into a fixed set of supported
// languages.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/llm"
	"github.com/hyperjump/ronbun/internal/prompts"
)

const (
	translateTemperature = 0.1
	maxInputChars        = 5000
)

// Validation errors returned by Validate.
var (
	ErrEmptyText           = errors.New("text is empty")
	ErrTextTooLong         = errors.New("text exceeds the translation length limit")
	ErrUnsupportedLanguage = errors.New("unsupported target language")
)

// supportedLanguages are the target languages translation accepts.
var supportedLanguages = []string{"English", "Spanish", "French", "German", "Arabic", "Italian"}

// languageNames maps ISO 639-1 codes to language names for MapLanguage.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"ar": "Arabic",
	"zh": "Chinese",
	"ja": "Japanese",
	"ru": "Russian",
	"pt": "Portuguese",
	"hi": "Hindi",
	"ko": "Korean",
	"tr": "Turkish",
}

// MapLanguage resolves a language code to its name. Unknown codes resolve to
// English.
func MapLanguage(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return "English"
}

// Translator generates translations of arbitrary text.
type Translator struct {
	generator llm.Generator
	prompts   *prompts.Registry
	logger    *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a translator.
func New(generator llm.Generator, registry *prompts.Registry, opts ...Option) *Translator {
	t := &Translator{
		generator: generator,
		prompts:   registry,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Validate checks that text and targetLanguage form an acceptable request.
func (t *Translator) Validate(text, targetLanguage string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if len(text) > maxInputChars {
		return ErrTextTooLong
	}
	for _, lang := range supportedLanguages {
		if lang == targetLanguage {
			return nil
		}
	}
	return ErrUnsupportedLanguage
}

// Translate translates text into targetLanguage. The request must pass
// Validate.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if err := t.Validate(text, targetLanguage); err != nil {
		return "", err
	}

	system, err := t.prompts.Get(prompts.GroupTranslator, "system_prompt", nil)
	if err != nil {
		return "", err
	}
	document, err := t.prompts.Get(prompts.GroupTranslator, "document_prompt", map[string]string{
		"text":            text,
		"target_language": targetLanguage,
	})
	if err != nil {
		return "", err
	}
	footer, err := t.prompts.Get(prompts.GroupTranslator, "footer_prompt", nil)
	if err != nil {
		return "", err
	}

	translation, err := t.generator.Generate(ctx, document+"\n\n"+footer, system, translateTemperature)
	if err != nil {
		return "", fmt.Errorf("generate translation: %w", err)
	}
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return "", fmt.Errorf("empty translation from provider")
	}
	t.logger.Debug("text translated", zap.String("target_language", targetLanguage))
	return translation, nil
}
