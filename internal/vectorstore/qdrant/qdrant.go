package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"librarian/internal/domain"
	"librarian/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// Storage is a minimal REST client to one Qdrant collection.
// It uses cosine distance; point IDs must be UUIDs.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Storage) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, url.PathEscape(s.collection))
}

func (s *Storage) Exists(ctx context.Context) (bool, error) {
	status, err := s.do(ctx, http.MethodGet, s.collectionURL(), nil, nil)
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, storeErr("qdrant.Exists", err)
	}
	return true, nil
}

// Init creates the collection. Qdrant needs the vector size at creation, so a zero
// dimension creates nothing and Upsert creates the collection from its first entry.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension < 0 {
		return storeErr("qdrant.Init", errors.New("invalid dimension"))
	}
	if dimension == 0 {
		return nil
	}
	if err := s.create(ctx, dimension); err != nil {
		return storeErr("qdrant.Init", err)
	}
	return nil
}

func (s *Storage) create(ctx context.Context, dimension int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	_, err := s.do(ctx, http.MethodPut, s.collectionURL(), body, nil)
	return err
}

func (s *Storage) Dimension(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodGet, s.collectionURL(), nil, &resp)
	if status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("qdrant.Dimension", err)
	}
	return resp.Result.Config.Params.Vectors.Size, nil
}

func (s *Storage) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     e.ID,
			"vector": e.Embedding,
			"payload": map[string]any{
				"title":    e.Title,
				"document": e.Summary,
			},
		}
	}
	body := map[string]any{"points": points}
	status, err := s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil)
	if status == http.StatusNotFound {
		// Collection deferred by Init(ctx, 0).
		if err := s.create(ctx, len(entries[0].Embedding)); err != nil {
			return storeErr("qdrant.Upsert", err)
		}
		_, err = s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil)
	}
	if err != nil {
		return storeErr("qdrant.Upsert", err)
	}
	return nil
}

// Search converts Qdrant's cosine similarity score back into a distance.
func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   *float64       `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp); err != nil {
		return nil, storeErr("qdrant.Search", err)
	}
	results := make([]domain.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := domain.Match{ID: fmt.Sprint(r.ID)}
		if v, ok := r.Payload["title"].(string); ok {
			m.Title = v
		}
		if v, ok := r.Payload["document"].(string); ok {
			m.Summary = v
		}
		if r.Score != nil {
			d := 1 - *r.Score
			m.Distance = &d
		}
		results = append(results, m)
	}
	return results, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/count", map[string]any{"exact": true}, &resp)
	if status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("qdrant.Count", err)
	}
	return resp.Result.Count, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	status, err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil, nil)
	if err != nil && status != http.StatusNotFound {
		return storeErr("qdrant.Clear", err)
	}
	return nil
}

func (s *Storage) Close() error { return nil }

// do sends a JSON request and decodes the response into out when non-nil.
// The HTTP status is returned even when err is set.
func (s *Storage) do(ctx context.Context, method, u string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s", method, u, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func storeErr(op string, err error) error {
	return domain.NewError(domain.KindIndexStore, op, err)
}
