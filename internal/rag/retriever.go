package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/llm"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/prompts"
	"github.com/hyperjump/ronbun/internal/vectordb"
)

// Retrieval defaults, overridable per Retriever.
const (
	DefaultMinScore    = 0.7
	DefaultNumQueries  = 3
	DefaultSearchLimit = 10

	multiQueryTemperature = 0.7
	answerTemperature     = 0.5
)

// Retriever answers queries against a project's collection. With fusion
// enabled it searches several generated phrasings of the query and merges the
// hit lists.
type Retriever struct {
	provider   llm.Provider
	gateway    *Gateway
	prompts    *prompts.Registry
	minScore   float64
	numQueries int
	logger     *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithMinScore overrides the similarity floor.
func WithMinScore(score float64) RetrieverOption {
	return func(r *Retriever) {
		if score > 0 {
			r.minScore = score
		}
	}
}

// WithNumQueries overrides how many query variants fusion uses.
func WithNumQueries(n int) RetrieverOption {
	return func(r *Retriever) {
		if n > 0 {
			r.numQueries = n
		}
	}
}

// WithRetrieverLogger attaches a logger.
func WithRetrieverLogger(logger *zap.Logger) RetrieverOption {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetriever creates a retriever.
func NewRetriever(provider llm.Provider, gateway *Gateway, registry *prompts.Registry, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		provider:   provider,
		gateway:    gateway,
		prompts:    registry,
		minScore:   DefaultMinScore,
		numQueries: DefaultNumQueries,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// QueryVariants asks the generator for count alternative phrasings of query.
// The original query is always included first. Generation failure degrades to
// just the original query, never to an error.
func (r *Retriever) QueryVariants(ctx context.Context, query string, count int) []string {
	system, err := r.prompts.Get(prompts.GroupRAG, "multi_query_system_prompt", nil)
	if err != nil {
		r.logger.Warn("multi-query prompt missing", zap.Error(err))
		return []string{query}
	}
	body, err := r.prompts.Get(prompts.GroupRAG, "multi_query_document_prompt", map[string]string{
		"num_queries": strconv.Itoa(count),
		"user_query":  query,
	})
	if err != nil {
		return []string{query}
	}
	footer, err := r.prompts.Get(prompts.GroupRAG, "multi_query_footer_prompt", nil)
	if err != nil {
		return []string{query}
	}

	raw, err := r.provider.Generate(ctx, body+"\n\n"+footer, system, multiQueryTemperature)
	if err != nil {
		r.logger.Warn("query variant generation failed", zap.Error(err))
		return []string{query}
	}

	variants := []string{query}
	for _, line := range strings.Split(raw, "\n") {
		variant := strings.Trim(line, "-• \t")
		if variant == "" || variant == query {
			continue
		}
		variants = append(variants, variant)
		if len(variants) > count {
			break
		}
	}
	return variants
}

// Search retrieves up to limit chunks relevant to query. With fusion, hit
// lists from each query variant are merged: duplicate texts keep their best
// score, results are ordered best first, and ties keep first-seen order.
func (r *Retriever) Search(ctx context.Context, projectID, query string, limit int, fusion bool) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	queries := []string{query}
	if fusion {
		queries = r.QueryVariants(ctx, query, r.numQueries)
	}

	name := CollectionName(projectID)
	type entry struct {
		result models.SearchResult
		order  int
	}
	merged := make(map[string]*entry)
	var seq int
	searched := 0

	for _, q := range queries {
		vector, err := r.provider.Embed(ctx, q, llm.EmbedQuery)
		if err != nil {
			r.logger.Warn("query embedding failed, skipping variant",
				zap.String("variant", q),
				zap.Error(err))
			continue
		}
		hits, err := r.gateway.Search(ctx, name, vector, limit, r.minScore)
		if err != nil {
			// A project with nothing indexed has no collection yet; that is
			// an empty result, not a failure.
			if errors.Is(err, vectordb.ErrCollectionNotFound) {
				searched++
				continue
			}
			return nil, fmt.Errorf("search %s: %w", name, err)
		}
		searched++
		for _, hit := range hits {
			key := strings.TrimSpace(hit.Text)
			if existing, ok := merged[key]; ok {
				if hit.Score > existing.result.Score {
					existing.result.Score = hit.Score
				}
				continue
			}
			merged[key] = &entry{
				result: models.SearchResult{
					Score:    hit.Score,
					Text:     hit.Text,
					Metadata: hit.Metadata,
				},
				order: seq,
			}
			seq++
		}
	}
	if searched == 0 {
		return nil, fmt.Errorf("no query variant could be embedded")
	}

	entries := make([]*entry, 0, len(merged))
	for _, e := range merged {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].result.Score != entries[j].result.Score {
			return entries[i].result.Score > entries[j].result.Score
		}
		return entries[i].order < entries[j].order
	})
	if limit < len(entries) {
		entries = entries[:limit]
	}
	results := make([]models.SearchResult, len(entries))
	for i, e := range entries {
		results[i] = e.result
	}
	return results, nil
}

// Answer retrieves grounding for query and generates an answer from it.
// When retrieval returns nothing, no generation happens and a nil answer is
// returned: the caller decides how to phrase "nothing found". Generation
// failure also yields a nil answer alongside the retrieved results.
func (r *Retriever) Answer(ctx context.Context, projectID, query string, limit int, fusion bool) (*models.Answer, []models.SearchResult, error) {
	results, err := r.Search(ctx, projectID, query, limit, fusion)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		r.logger.Info("no grounding found",
			zap.String("project_id", projectID),
			zap.String("query", query))
		return nil, results, nil
	}

	system, err := r.prompts.Get(prompts.GroupRAG, "system_prompt", nil)
	if err != nil {
		return nil, nil, err
	}
	var b strings.Builder
	for i, result := range results {
		metadata, err := json.Marshal(result.Metadata)
		if err != nil {
			metadata = []byte("{}")
		}
		doc, err := r.prompts.Get(prompts.GroupRAG, "document_prompt", map[string]string{
			"doc_num":        strconv.Itoa(i + 1),
			"chunk_text":     result.Text,
			"chunk_metadata": string(metadata),
		})
		if err != nil {
			return nil, nil, err
		}
		b.WriteString(doc)
		b.WriteString("\n\n")
	}
	footer, err := r.prompts.Get(prompts.GroupRAG, "footer_prompt", map[string]string{"query": query})
	if err != nil {
		return nil, nil, err
	}
	b.WriteString(footer)
	fullPrompt := b.String()

	text, err := r.provider.Generate(ctx, fullPrompt, system, answerTemperature)
	if err != nil {
		r.logger.Warn("answer generation failed",
			zap.String("project_id", projectID),
			zap.Error(err))
		return nil, results, nil
	}
	return &models.Answer{Text: text, FullPrompt: fullPrompt}, results, nil
}
