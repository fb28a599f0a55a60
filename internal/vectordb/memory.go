package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is an in-memory store using brute-force cosine search. Suitable for
// tests and small corpora where running a vector database is overkill.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimensions int
	order      []string
	records    map[string]Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memoryCollection)}
}

func (m *Memory) CollectionExists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *Memory) CreateCollection(_ context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return fmt.Errorf("collection %s already exists", name)
	}
	m.collections[name] = &memoryCollection{
		dimensions: dimensions,
		records:    make(map[string]Record),
	}
	return nil
}

func (m *Memory) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		return fmt.Errorf("delete collection %s: %w", name, ErrCollectionNotFound)
	}
	delete(m.collections, name)
	return nil
}

// Upsert inserts records, overwriting by ID. Insertion order is kept so equal
// scores rank deterministically.
func (m *Memory) Upsert(_ context.Context, name string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[name]
	if !ok {
		return fmt.Errorf("upsert into %s: %w", name, ErrCollectionNotFound)
	}
	for _, rec := range records {
		if len(rec.Vector) != coll.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(rec.Vector), coll.dimensions)
		}
		vec := make([]float32, coll.dimensions)
		copy(vec, rec.Vector)
		rec.Vector = vec
		if _, seen := coll.records[rec.ID]; !seen {
			coll.order = append(coll.order, rec.ID)
		}
		coll.records[rec.ID] = rec
	}
	return nil
}

func (m *Memory) Search(_ context.Context, name string, vector []float32, limit int, minScore float64) ([]SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("search %s: %w", name, ErrCollectionNotFound)
	}
	if len(vector) != coll.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), coll.dimensions)
	}
	if limit <= 0 {
		return nil, nil
	}

	hits := make([]SearchHit, 0, len(coll.order))
	for _, id := range coll.order {
		rec := coll.records[id]
		score := cosine(vector, rec.Vector)
		if score < minScore {
			continue
		}
		hits = append(hits, SearchHit{
			ID:       rec.ID,
			Score:    score,
			Text:     rec.Text,
			Metadata: rec.Metadata,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Size returns the number of records in a collection, zero if absent.
func (m *Memory) Size(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[name]
	if !ok {
		return 0
	}
	return len(coll.records)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
