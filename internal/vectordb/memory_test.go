package vectordb

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	exists, err := m.CollectionExists(ctx, "c")
	if err != nil || exists {
		t.Fatalf("expected missing collection, exists=%v err=%v", exists, err)
	}
	if err := m.CreateCollection(ctx, "c", 3); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.CreateCollection(ctx, "c", 3); err == nil {
		t.Error("expected error creating duplicate collection")
	}
	exists, _ = m.CollectionExists(ctx, "c")
	if !exists {
		t.Error("collection should exist after create")
	}
	if err := m.DeleteCollection(ctx, "c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteCollection(ctx, "c"); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestMemoryUpsertOverwritesByID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.CreateCollection(ctx, "c", 2); err != nil {
		t.Fatal(err)
	}
	recs := []Record{
		{ID: "a", Vector: []float32{1, 0}, Text: "first"},
		{ID: "b", Vector: []float32{0, 1}, Text: "second"},
	}
	if err := m.Upsert(ctx, "c", recs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.Upsert(ctx, "c", []Record{{ID: "a", Vector: []float32{0, 1}, Text: "replaced"}}); err != nil {
		t.Fatalf("upsert overwrite: %v", err)
	}
	if m.Size("c") != 2 {
		t.Errorf("expected 2 records after overwrite, got %d", m.Size("c"))
	}
	hits, err := m.Search(ctx, "c", []float32{0, 1}, 10, 0.9)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, h := range hits {
		if h.ID == "a" && h.Text != "replaced" {
			t.Errorf("record a not overwritten: %q", h.Text)
		}
	}
}

func TestMemorySearchScoreFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.CreateCollection(ctx, "c", 2); err != nil {
		t.Fatal(err)
	}
	recs := []Record{
		{ID: "ortho", Vector: []float32{0, 1}, Text: "orthogonal"},
		{ID: "close", Vector: []float32{0.9, 0.1}, Text: "close"},
		{ID: "exact", Vector: []float32{1, 0}, Text: "exact"},
	}
	if err := m.Upsert(ctx, "c", recs); err != nil {
		t.Fatal(err)
	}
	hits, err := m.Search(ctx, "c", []float32{1, 0}, 10, 0.7)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above threshold, got %d", len(hits))
	}
	if hits[0].ID != "exact" || hits[1].ID != "close" {
		t.Errorf("unexpected order: %s, %s", hits[0].ID, hits[1].ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits must be ordered best first")
	}

	hits, _ = m.Search(ctx, "c", []float32{1, 0}, 1, 0)
	if len(hits) != 1 || hits[0].ID != "exact" {
		t.Errorf("limit not applied: %+v", hits)
	}
}

func TestMemorySearchMissingCollection(t *testing.T) {
	m := NewMemory()
	if _, err := m.Search(context.Background(), "nope", []float32{1}, 5, 0); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestMemoryDimensionChecks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.CreateCollection(ctx, "c", 0); err == nil {
		t.Error("expected error for zero dimensions")
	}
	if err := m.CreateCollection(ctx, "c", 3); err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, "c", []Record{{ID: "a", Vector: []float32{1, 2}}}); err == nil {
		t.Error("expected dimension mismatch on upsert")
	}
	if _, err := m.Search(ctx, "c", []float32{1, 2}, 5, 0); err == nil {
		t.Error("expected dimension mismatch on search")
	}
}
