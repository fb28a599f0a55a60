package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const defaultCohereBaseURL = "https://api.cohere.com/v1"

// Cohere talks to the Cohere v1 API. Unlike OpenAI, its embedding endpoint
// distinguishes document and query inputs, which matters for retrieval models.
type Cohere struct {
	cfg    Config
	client *http.Client
	dims   int
}

// NewCohere creates a Cohere provider.
func NewCohere(cfg Config) (*Cohere, error) {
	applyDefaults(&cfg)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCohereBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: api key is required")
	}
	return &Cohere{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		dims:   cfg.Dimensions,
	}, nil
}

type cohereChatRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Preamble    string  `json:"preamble,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type cohereChatResponse struct {
	Text    string `json:"text"`
	Message string `json:"message,omitempty"`
}

type cohereEmbedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type cohereEmbedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
	Message string `json:"message,omitempty"`
}

// Generate sends a chat request and returns the reply text.
func (c *Cohere) Generate(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error) {
	req := cohereChatRequest{
		Model:       c.cfg.GenerationModel,
		Message:     clip(userPrompt, c.cfg.MaxInputChars),
		Preamble:    clip(systemPrompt, c.cfg.MaxInputChars),
		Temperature: temperature,
		MaxTokens:   c.cfg.MaxOutputTokens,
	}
	var resp cohereChatResponse
	if err := c.post(ctx, "/chat", req, &resp); err != nil {
		return "", fmt.Errorf("cohere generate: %w", err)
	}
	if resp.Text == "" {
		if resp.Message != "" {
			return "", fmt.Errorf("cohere generate: %s", resp.Message)
		}
		return "", fmt.Errorf("cohere generate: empty response")
	}
	return strings.TrimSpace(resp.Text), nil
}

// Embed returns the embedding for text. kind selects the input_type so the
// model can optimize document and query vectors separately.
func (c *Cohere) Embed(ctx context.Context, text string, kind EmbedKind) ([]float32, error) {
	inputType := "search_document"
	if kind == EmbedQuery {
		inputType = "search_query"
	}
	req := cohereEmbedRequest{
		Model:          c.cfg.EmbeddingModel,
		Texts:          []string{clip(text, c.cfg.MaxInputChars)},
		InputType:      inputType,
		EmbeddingTypes: []string{"float"},
	}
	var resp cohereEmbedResponse
	if err := c.post(ctx, "/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}
	if len(resp.Embeddings.Float) == 0 || len(resp.Embeddings.Float[0]) == 0 {
		if resp.Message != "" {
			return nil, fmt.Errorf("cohere embed: %s", resp.Message)
		}
		return nil, fmt.Errorf("cohere embed: empty embedding")
	}
	vec := resp.Embeddings.Float[0]
	if c.dims == 0 {
		c.dims = len(vec)
	}
	return vec, nil
}

// Dimensions returns the embedding width, once known.
func (c *Cohere) Dimensions() int { return c.dims }

// Close releases idle connections.
func (c *Cohere) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Cohere) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
			}
			if err := json.Unmarshal(data, out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}
