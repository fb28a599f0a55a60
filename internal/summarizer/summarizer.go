// Package summarizer generates paper summaries from stored chunks, either
// section by section (map-reduce) or in a single pass.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/llm"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/prompts"
)

// Summarization modes.
const (
	ModeHierarchical = "hierarchical"
	ModeFlat         = "flat"
)

const summarizeTemperature = 0.3

// Summarizer produces markdown summaries of papers.
type Summarizer struct {
	generator llm.Generator
	prompts   *prompts.Registry
	mode      string
	delay     time.Duration
	logger    *zap.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithMode selects the summarization mode.
func WithMode(mode string) Option {
	return func(s *Summarizer) {
		if mode == ModeHierarchical || mode == ModeFlat {
			s.mode = mode
		}
	}
}

// WithDelay sets the pause between per-section generation calls, for rate
// limited providers. No pause follows the last section.
func WithDelay(d time.Duration) Option {
	return func(s *Summarizer) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a summarizer. The default mode is hierarchical.
func New(generator llm.Generator, registry *prompts.Registry, opts ...Option) *Summarizer {
	s := &Summarizer{
		generator: generator,
		prompts:   registry,
		mode:      ModeHierarchical,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize produces a markdown summary of the paper whose chunks are given
// grouped by section. Returns an error only when nothing could be summarized.
func (s *Summarizer) Summarize(ctx context.Context, sections []*models.SectionChunks) (string, error) {
	if len(sections) == 0 {
		return "", fmt.Errorf("nothing to summarize")
	}
	if s.mode == ModeFlat {
		return s.summarizeFlat(ctx, sections)
	}
	return s.summarizeHierarchical(ctx, sections)
}

// summarizeHierarchical summarizes each section independently, then merges
// the per-section summaries into one document. A failing section is skipped,
// not fatal; a failing merge falls back to the concatenated sections.
func (s *Summarizer) summarizeHierarchical(ctx context.Context, sections []*models.SectionChunks) (string, error) {
	system, err := s.prompts.Get(prompts.GroupSummarizer, "system_prompt", nil)
	if err != nil {
		return "", err
	}

	var blocks []string
	for i, section := range sections {
		text, err := s.summarizeSection(ctx, system, section)
		if err != nil {
			s.logger.Warn("section summarization failed, skipping",
				zap.String("section", section.Title),
				zap.Error(err))
		} else {
			blocks = append(blocks, fmt.Sprintf("### %s\n\n%s", section.Title, text))
		}
		if i < len(sections)-1 && s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("all %d sections failed to summarize", len(sections))
	}

	joined := strings.Join(blocks, "\n\n")
	reduced, err := s.reduce(ctx, system, joined)
	if err != nil {
		s.logger.Warn("summary merge failed, returning section summaries", zap.Error(err))
		return joined, nil
	}
	return reduced, nil
}

// summarizeFlat summarizes the whole paper in one generation call.
func (s *Summarizer) summarizeFlat(ctx context.Context, sections []*models.SectionChunks) (string, error) {
	system, err := s.prompts.Get(prompts.GroupSummarizer, "system_prompt", nil)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, section := range sections {
		b.WriteString("## ")
		b.WriteString(section.Title)
		b.WriteString("\n\n")
		b.WriteString(sectionText(section))
		b.WriteString("\n\n")
	}
	prompt, err := s.prompts.Get(prompts.GroupSummarizer, "map_prompt", map[string]string{
		"text": strings.TrimSpace(b.String()),
	})
	if err != nil {
		return "", err
	}
	text, err := s.generator.Generate(ctx, prompt, system, summarizeTemperature)
	if err != nil {
		return "", fmt.Errorf("summarize paper: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (s *Summarizer) summarizeSection(ctx context.Context, system string, section *models.SectionChunks) (string, error) {
	prompt, err := s.prompts.Get(prompts.GroupSummarizer, "map_prompt", map[string]string{
		"text": sectionText(section),
	})
	if err != nil {
		return "", err
	}
	text, err := s.generator.Generate(ctx, prompt, system, summarizeTemperature)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty section summary")
	}
	return text, nil
}

func (s *Summarizer) reduce(ctx context.Context, system, joined string) (string, error) {
	prompt, err := s.prompts.Get(prompts.GroupSummarizer, "reduce_prompt", map[string]string{
		"sections": joined,
	})
	if err != nil {
		return "", err
	}
	footer, err := s.prompts.Get(prompts.GroupSummarizer, "footer_prompt", nil)
	if err != nil {
		return "", err
	}
	text, err := s.generator.Generate(ctx, prompt+"\n\n"+footer, system, summarizeTemperature)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty merged summary")
	}
	return text, nil
}

// sectionText joins a section's chunk texts in reading order.
func sectionText(section *models.SectionChunks) string {
	parts := make([]string, len(section.Chunks))
	for i, chunk := range section.Chunks {
		parts[i] = chunk.Text
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
