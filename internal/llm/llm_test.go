package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewProviderSelection(t *testing.T) {
	p, err := NewProvider(Config{Provider: ProviderMock, Dimensions: 8})
	if err != nil {
		t.Fatalf("mock provider: %v", err)
	}
	if _, ok := p.(*Mock); !ok {
		t.Errorf("expected *Mock, got %T", p)
	}

	if _, err := NewProvider(Config{Provider: "watson"}); err == nil {
		t.Error("expected error for unknown provider")
	}

	if _, err := NewProvider(Config{Provider: ProviderOpenAI}); err == nil {
		t.Error("expected error for missing api key")
	}
}

func TestMockEmbedDeterministic(t *testing.T) {
	m := NewMock(32)
	a, err := m.Embed(context.Background(), "attention is all you need", EmbedDocument)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := m.Embed(context.Background(), "attention is all you need", EmbedQuery)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 dims, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should embed to the same vector")
		}
	}

	c, _ := m.Embed(context.Background(), "a different sentence", EmbedDocument)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts should embed to different vectors")
	}

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("expected unit vector, squared norm %f", norm)
	}
}

func TestMockEmbedEmptyText(t *testing.T) {
	m := NewMock(8)
	if _, err := m.Embed(context.Background(), "   ", EmbedDocument); err == nil {
		t.Error("expected error for blank text")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "  the answer  "}}},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k", GenerationModel: "gpt-test"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	got, err := p.Generate(context.Background(), "question", "be brief", 0.5)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "the answer" {
		t.Errorf("got %q", got)
	}
	if gotAuth != "Bearer k" {
		t.Errorf("auth header %q", gotAuth)
	}
}

func TestOpenAIEmbedLearnsDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(embeddingsResponse{
			Data: []struct {
				Embedding []float32 `json:"embedding"`
			}{{Embedding: []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k", EmbeddingModel: "embed-test"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if p.Dimensions() != 0 {
		t.Errorf("dims should be unknown before first embed, got %d", p.Dimensions())
	}
	vec, err := p.Embed(context.Background(), "hello", EmbedDocument)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || p.Dimensions() != 3 {
		t.Errorf("vec len %d, dims %d", len(vec), p.Dimensions())
	}
}

func TestOpenAIClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, _ := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "bad"})
	if _, err := p.Generate(context.Background(), "q", "", 0.5); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("4xx should not be retried, got %d calls", calls)
	}
}

func TestOpenAIServerErrorRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Content: "ok"}}},
		})
	}))
	defer srv.Close()

	p, _ := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k"})
	got, err := p.Generate(context.Background(), "q", "", 0.5)
	if err != nil {
		t.Fatalf("Generate after retry: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestCohereEmbedInputType(t *testing.T) {
	var gotInputType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req cohereEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		gotInputType = req.InputType
		var resp cohereEmbedResponse
		resp.Embeddings.Float = [][]float32{{0.5, 0.5}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := NewCohere(Config{BaseURL: srv.URL, APIKey: "k", EmbeddingModel: "embed-test"})
	if err != nil {
		t.Fatalf("NewCohere: %v", err)
	}
	if _, err := p.Embed(context.Background(), "doc text", EmbedDocument); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if gotInputType != "search_document" {
		t.Errorf("document input_type %q", gotInputType)
	}
	if _, err := p.Embed(context.Background(), "query text", EmbedQuery); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if gotInputType != "search_query" {
		t.Errorf("query input_type %q", gotInputType)
	}
	if p.Dimensions() != 2 {
		t.Errorf("dims %d", p.Dimensions())
	}
}

func TestCohereGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(cohereChatResponse{Text: "reply"})
	}))
	defer srv.Close()

	p, err := NewCohere(Config{BaseURL: srv.URL, APIKey: "k", GenerationModel: "command-test"})
	if err != nil {
		t.Fatalf("NewCohere: %v", err)
	}
	got, err := p.Generate(context.Background(), "q", "sys", 0.3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "reply" {
		t.Errorf("got %q", got)
	}
}
