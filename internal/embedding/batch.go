// Package embedding runs embedding requests in bounded-concurrency batches.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/ronbun/internal/llm"
)

// DefaultConcurrency bounds in-flight embedding requests per batch.
const DefaultConcurrency = 8

// BatchRunner embeds slices of texts concurrently while preserving input
// order. A batch either succeeds for every text or fails as a whole, so
// callers never index half a paper.
type BatchRunner struct {
	embedder    llm.Embedder
	concurrency int
	logger      *zap.Logger
}

// Option configures a BatchRunner.
type Option func(*BatchRunner)

// WithConcurrency overrides the in-flight request bound.
func WithConcurrency(n int) Option {
	return func(r *BatchRunner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *BatchRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewBatchRunner creates a runner over embedder.
func NewBatchRunner(embedder llm.Embedder, opts ...Option) *BatchRunner {
	r := &BatchRunner{
		embedder:    embedder,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EmbedBatch embeds texts and returns vectors in the same order. The first
// failure cancels the remaining work and fails the whole batch. An empty
// input yields an empty result without calling the embedder.
func (r *BatchRunner) EmbedBatch(ctx context.Context, texts []string, kind llm.EmbedKind) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := r.embedder.Embed(gctx, text, kind)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			if len(vec) == 0 {
				return fmt.Errorf("embed text %d: empty vector", i)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Warn("embedding batch failed",
			zap.Int("texts", len(texts)),
			zap.Error(err))
		return nil, err
	}

	r.logger.Debug("embedding batch complete",
		zap.Int("texts", len(texts)),
		zap.Int("dimensions", len(vectors[0])))
	return vectors, nil
}
