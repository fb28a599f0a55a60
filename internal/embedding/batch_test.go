package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/ronbun/internal/llm"
)

// countingEmbedder records in-flight call counts and fails on demand.
type countingEmbedder struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	delay    time.Duration
	failOn   string
}

func (e *countingEmbedder) Embed(ctx context.Context, text string, _ llm.EmbedKind) ([]float32, error) {
	e.mu.Lock()
	e.inFlight++
	if e.inFlight > e.maxSeen {
		e.maxSeen = e.inFlight
	}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
	}()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, fmt.Errorf("refused to embed %q", text)
	}
	return []float32{float32(len(text)), 1}, nil
}

func (e *countingEmbedder) Dimensions() int { return 2 }

func TestEmbedBatchPreservesOrder(t *testing.T) {
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}
	r := NewBatchRunner(&countingEmbedder{})
	vectors, err := r.EmbedBatch(context.Background(), texts, llm.EmbedDocument)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if int(vec[0]) != i+1 {
			t.Errorf("vector %d out of order: first component %f", i, vec[0])
		}
	}
}

func TestEmbedBatchConcurrencyBound(t *testing.T) {
	e := &countingEmbedder{delay: 20 * time.Millisecond}
	r := NewBatchRunner(e, WithConcurrency(3))
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	if _, err := r.EmbedBatch(context.Background(), texts, llm.EmbedDocument); err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if e.maxSeen > 3 {
		t.Errorf("concurrency bound exceeded: saw %d in flight", e.maxSeen)
	}
	if e.maxSeen < 2 {
		t.Errorf("expected overlapping requests, saw max %d", e.maxSeen)
	}
}

func TestEmbedBatchAllOrNothing(t *testing.T) {
	e := &countingEmbedder{failOn: "text 7"}
	r := NewBatchRunner(e, WithConcurrency(4))
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	vectors, err := r.EmbedBatch(context.Background(), texts, llm.EmbedDocument)
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if vectors != nil {
		t.Error("failed batch must not return partial vectors")
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	e := &countingEmbedder{}
	r := NewBatchRunner(e)
	vectors, err := r.EmbedBatch(context.Background(), nil, llm.EmbedDocument)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected empty result, got %d", len(vectors))
	}
	if e.maxSeen != 0 {
		t.Error("embedder should not be called for empty input")
	}
}

func TestEmbedBatchRejectsEmptyVector(t *testing.T) {
	r := NewBatchRunner(emptyVectorEmbedder{})
	if _, err := r.EmbedBatch(context.Background(), []string{"a"}, llm.EmbedDocument); err == nil {
		t.Error("expected error for empty vector")
	}
}

type emptyVectorEmbedder struct{}

func (emptyVectorEmbedder) Embed(context.Context, string, llm.EmbedKind) ([]float32, error) {
	return []float32{}, nil
}

func (emptyVectorEmbedder) Dimensions() int { return 0 }
