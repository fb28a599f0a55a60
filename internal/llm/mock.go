package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"

	"github.com/hyperjump/ronbun/pkg/utils"
)

// Mock is a deterministic in-process provider for tests and offline runs.
// Embeddings are unit vectors seeded from the input text, so identical texts
// always map to identical vectors and similar runs stay reproducible.
type Mock struct {
	dims int

	// GenerateFunc overrides generation when set. The default echoes a
	// truncated form of the prompt.
	GenerateFunc func(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error)

	mu            sync.Mutex
	embedCalls    int
	generateCalls int
}

// NewMock creates a mock provider with the given embedding width.
// Zero dims defaults to 64.
func NewMock(dims int) *Mock {
	if dims <= 0 {
		dims = 64
	}
	return &Mock{dims: dims}
}

// Embed returns a deterministic unit vector derived from text.
func (m *Mock) Embed(_ context.Context, text string, _ EmbedKind) ([]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("mock embed: empty text")
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	vec := make([]float32, m.dims)
	for i := range vec {
		vec[i] = rng.Float32()*2 - 1
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// Generate runs GenerateFunc when set, otherwise echoes the prompt.
func (m *Mock) Generate(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error) {
	m.mu.Lock()
	m.generateCalls++
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, userPrompt, systemPrompt, temperature)
	}
	return "mock: " + utils.Truncate(userPrompt, 80), nil
}

// Dimensions returns the embedding width.
func (m *Mock) Dimensions() int { return m.dims }

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// EmbedCalls reports how many Embed calls were made.
func (m *Mock) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

// GenerateCalls reports how many Generate calls were made.
func (m *Mock) GenerateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls
}
