package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const payloadTextKey = "text"

// Qdrant is a store backed by a Qdrant server over its REST API.
// Point payloads carry the chunk text under "text" plus the chunk metadata.
type Qdrant struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewQdrant creates a client for the Qdrant server at url.
func NewQdrant(url, apiKey string) (*Qdrant, error) {
	if url == "" {
		return nil, fmt.Errorf("qdrant: url is required")
	}
	return &Qdrant{
		baseURL: strings.TrimRight(url, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (q *Qdrant) CollectionExists(ctx context.Context, name string) (bool, error) {
	status, _, err := q.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return false, fmt.Errorf("qdrant check collection: %w", err)
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant check collection: status %d", status)
	}
}

func (q *Qdrant) CreateCollection(ctx context.Context, name string, dimensions int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	status, data, err := q.do(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant create collection: status %d: %s", status, data)
	}
	return nil
}

func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	status, data, err := q.do(ctx, http.MethodDelete, "/collections/"+name, nil)
	if err != nil {
		return fmt.Errorf("qdrant delete collection: %w", err)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("qdrant delete collection %s: %w", name, ErrCollectionNotFound)
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant delete collection: status %d: %s", status, data)
	}
	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, rec := range records {
		payload := map[string]any{payloadTextKey: rec.Text}
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		points[i] = map[string]any{
			"id":      rec.ID,
			"vector":  rec.Vector,
			"payload": payload,
		}
	}
	status, data, err := q.do(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true", map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("qdrant upsert into %s: %w", name, ErrCollectionNotFound)
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant upsert: status %d: %s", status, data)
	}
	return nil
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
	Status json.RawMessage `json:"status"`
}

func (q *Qdrant) Search(ctx context.Context, name string, vector []float32, limit int, minScore float64) ([]SearchHit, error) {
	body := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": minScore,
	}
	status, data, err := q.do(ctx, http.MethodPost, "/collections/"+name+"/points/search", body)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("qdrant search %s: %w", name, ErrCollectionNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant search: status %d: %s", status, data)
	}

	var resp qdrantSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: decode response: %w", err)
	}
	hits := make([]SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := SearchHit{
			ID:       fmt.Sprintf("%v", r.ID),
			Score:    r.Score,
			Metadata: make(map[string]string),
		}
		for k, v := range r.Payload {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if k == payloadTextKey {
				hit.Text = s
				continue
			}
			hit.Metadata[k] = s
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases idle connections.
func (q *Qdrant) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *Qdrant) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}
