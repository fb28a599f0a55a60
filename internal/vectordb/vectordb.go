// Package vectordb abstracts named vector collections behind a store
// interface, with a remote Qdrant backend and an in-memory backend.
package vectordb

import (
	"context"
	"errors"
	"fmt"
)

// ErrCollectionNotFound is returned when an operation targets a collection
// that does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

// Record is one point in a collection: a vector plus the text it encodes and
// its metadata payload.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// SearchHit is one scored match from a collection.
type SearchHit struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}

// Store manages named vector collections.
type Store interface {
	// CollectionExists reports whether name exists.
	CollectionExists(ctx context.Context, name string) (bool, error)
	// CreateCollection creates name with the given vector width.
	CreateCollection(ctx context.Context, name string, dimensions int) error
	// DeleteCollection removes name and all its records.
	DeleteCollection(ctx context.Context, name string) error
	// Upsert inserts records into name, overwriting records with the same ID.
	Upsert(ctx context.Context, name string, records []Record) error
	// Search returns up to limit records of name scoring at least minScore
	// against vector, best first.
	Search(ctx context.Context, name string, vector []float32, limit int, minScore float64) ([]SearchHit, error)
	// Close releases backend resources.
	Close() error
}

// Store type keys accepted by New.
const (
	TypeQdrant = "qdrant"
	TypeMemory = "memory"
)

// Config selects and configures a vector store backend.
type Config struct {
	Type   string
	URL    string
	APIKey string
}

// New creates the store selected by cfg.Type.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeQdrant, "":
		return NewQdrant(cfg.URL, cfg.APIKey)
	case TypeMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %s (supported: qdrant, memory)", cfg.Type)
	}
}
