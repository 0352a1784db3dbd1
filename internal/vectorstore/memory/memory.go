package memory

import (
	"context"
	"errors"
	"sync"

	"librarian/internal/domain"
	"librarian/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// Storage is an in-process collection using brute-force cosine distance.
// Its contents live only as long as the value.
type Storage struct {
	mu        sync.RWMutex
	created   bool
	dimension int
	order     []string
	entries   map[string]domain.IndexEntry
}

func NewStorage() *Storage { return &Storage{entries: make(map[string]domain.IndexEntry)} }

func (s *Storage) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension < 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		s.created = true
		s.dimension = dimension
	}
	return nil
}

func (s *Storage) Dimension(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension, nil
}

func (s *Storage) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return errors.New("collection not initialised")
	}
	for _, e := range entries {
		if s.dimension == 0 {
			s.dimension = len(e.Embedding)
		}
		if len(e.Embedding) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for _, e := range entries {
		if _, ok := s.entries[e.ID]; !ok {
			s.order = append(s.order, e.ID)
		}
		s.entries[e.ID] = e
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return nil, errors.New("collection not initialised")
	}
	if topK <= 0 {
		return nil, nil
	}
	matches := make([]domain.Match, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		d, err := vectorstore.CosineDistance(e.Embedding, vector)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.Match{ID: e.ID, Title: e.Title, Summary: e.Summary, Distance: &d})
	}
	return vectorstore.RankByDistance(matches, topK), nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = false
	s.dimension = 0
	s.order = nil
	s.entries = make(map[string]domain.IndexEntry)
	return nil
}

func (s *Storage) Close() error { return nil }
