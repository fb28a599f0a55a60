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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI talks to an OpenAI-compatible API (chat completions + embeddings).
// Any server that speaks the same wire format works through BaseURL.
type OpenAI struct {
	cfg    Config
	client *http.Client
	dims   int
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	applyDefaults(&cfg)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	return &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		dims:   cfg.Dimensions,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type embeddingsRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Generate sends a chat completion request and returns the first choice.
func (o *OpenAI) Generate(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error) {
	req := chatRequest{
		Model:       o.cfg.GenerationModel,
		Temperature: temperature,
		MaxTokens:   o.cfg.MaxOutputTokens,
	}
	if systemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: clip(systemPrompt, o.cfg.MaxInputChars)})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: clip(userPrompt, o.cfg.MaxInputChars)})

	var resp chatResponse
	if err := o.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai generate: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed returns the embedding vector for text. The document/query distinction
// is not part of the OpenAI wire format, so kind is accepted and ignored.
func (o *OpenAI) Embed(ctx context.Context, text string, _ EmbedKind) ([]float32, error) {
	req := embeddingsRequest{
		Model: o.cfg.EmbeddingModel,
		Input: clip(text, o.cfg.MaxInputChars),
	}
	var resp embeddingsResponse
	if err := o.post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai embed: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embed: empty embedding")
	}
	vec := resp.Data[0].Embedding
	if o.dims == 0 {
		o.dims = len(vec)
	}
	return vec, nil
}

// Dimensions returns the embedding width, once known. Configured explicitly or
// learned from the first successful Embed call.
func (o *OpenAI) Dimensions() int { return o.dims }

// Close releases idle connections.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// post issues a JSON request with retries on rate limiting and server errors.
func (o *OpenAI) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

			resp, err := o.client.Do(req)
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
