// Package rag ties retrieval together: collection management, the paper
// ingestion pipeline, and fusion search with grounded answering.
package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/vectordb"
)

// DefaultUpsertBatchSize bounds how many records go to the vector store in
// one request.
const DefaultUpsertBatchSize = 50

const collectionPrefix = "collection_"

// CollectionName returns the vector collection name owned by a project.
// One project maps to exactly one collection.
func CollectionName(projectID string) string {
	return collectionPrefix + strings.TrimSpace(projectID)
}

// Gateway wraps a vector store with the collection conventions used by the
// rest of the system.
type Gateway struct {
	store     vectordb.Store
	batchSize int
	logger    *zap.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithUpsertBatchSize overrides the upsert batch size.
func WithUpsertBatchSize(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithGatewayLogger attaches a logger.
func WithGatewayLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway creates a gateway over store.
func NewGateway(store vectordb.Store, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:     store,
		batchSize: DefaultUpsertBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnsureCollection makes sure name exists with the given vector width.
// With reset set, an existing collection is dropped and recreated, discarding
// its records. Without reset, an existing collection is left untouched.
func (g *Gateway) EnsureCollection(ctx context.Context, name string, dimensions int, reset bool) error {
	exists, err := g.store.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if exists && reset {
		if err := g.store.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("reset collection %s: %w", name, err)
		}
		g.logger.Info("collection reset", zap.String("collection", name))
		exists = false
	}
	if exists {
		return nil
	}
	if err := g.store.CreateCollection(ctx, name, dimensions); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	g.logger.Info("collection created",
		zap.String("collection", name),
		zap.Int("dimensions", dimensions))
	return nil
}

// UpsertRecords writes records into name in bounded batches. Batches are
// written in order; a failure stops at the failing batch.
func (g *Gateway) UpsertRecords(ctx context.Context, name string, records []vectordb.Record) error {
	for start := 0; start < len(records); start += g.batchSize {
		end := start + g.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := g.store.Upsert(ctx, name, records[start:end]); err != nil {
			return fmt.Errorf("upsert batch %d-%d into %s: %w", start, end, name, err)
		}
	}
	g.logger.Debug("records upserted",
		zap.String("collection", name),
		zap.Int("records", len(records)))
	return nil
}

// Search queries name and returns scored hits.
func (g *Gateway) Search(ctx context.Context, name string, vector []float32, limit int, minScore float64) ([]vectordb.SearchHit, error) {
	return g.store.Search(ctx, name, vector, limit, minScore)
}

// DropCollection removes a project's collection.
func (g *Gateway) DropCollection(ctx context.Context, name string) error {
	return g.store.DeleteCollection(ctx, name)
}
