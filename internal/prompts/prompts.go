// Package prompts provides the static prompt template registry, keyed by
// locale, group, and key, with $var placeholder interpolation.
package prompts

import (
	"fmt"
	"os"
)

// DefaultLocale is used when the requested locale or template is missing.
const DefaultLocale = "en"

// Template groups.
const (
	GroupRAG        = "rag"
	GroupSummarizer = "summarizer"
	GroupExplainer  = "explainer"
	GroupTranslator = "translator"
)

// Registry resolves prompt templates for a locale, falling back to the
// default locale when a locale or an individual template is absent.
type Registry struct {
	locale string
}

// NewRegistry creates a registry for locale. Unknown locales fall back to
// the default locale immediately.
func NewRegistry(locale string) *Registry {
	if _, ok := locales[locale]; !ok {
		locale = DefaultLocale
	}
	return &Registry{locale: locale}
}

// Locale returns the active locale.
func (r *Registry) Locale() string { return r.locale }

// Get returns the template for (group, key) with $var placeholders replaced
// from vars. Unknown variables expand to the empty string. Returns an error
// when the template does not exist in the active or default locale.
func (r *Registry) Get(group, key string, vars map[string]string) (string, error) {
	tmpl, ok := lookup(r.locale, group, key)
	if !ok {
		tmpl, ok = lookup(DefaultLocale, group, key)
	}
	if !ok {
		return "", fmt.Errorf("prompt template %s/%s not found", group, key)
	}
	return os.Expand(tmpl, func(name string) string {
		return vars[name]
	}), nil
}

func lookup(locale, group, key string) (string, bool) {
	groups, ok := locales[locale]
	if !ok {
		return "", false
	}
	templates, ok := groups[group]
	if !ok {
		return "", false
	}
	tmpl, ok := templates[key]
	return tmpl, ok
}
