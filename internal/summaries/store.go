// Package summaries holds the canonical full-text summary for every title.
package summaries

import (
	"encoding/json"
	"os"
	"sort"

	"librarian/internal/domain"
)

// NotFound is returned by Lookup for unknown titles.
const NotFound = "Nu am găsit un rezumat complet pentru acest titlu."

// Store is a read-only, exact-match map from title to full summary.
type Store struct {
	byTitle map[string]string
}

// New copies m into a Store.
func New(m map[string]string) *Store {
	byTitle := make(map[string]string, len(m))
	for k, v := range m {
		byTitle[k] = v
	}
	return &Store{byTitle: byTitle}
}

// Load reads a JSON object of title -> summary.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.KindLoad, "summaries.Load", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.NewError(domain.KindLoad, "summaries.Load", err)
	}
	return &Store{byTitle: m}, nil
}

// Lookup returns the full summary for title, or NotFound. Matching is case-sensitive.
func (s *Store) Lookup(title string) string {
	text, ok := s.Get(title)
	if !ok {
		return NotFound
	}
	return text
}

// Get reports whether title has a non-empty summary.
func (s *Store) Get(title string) (string, bool) {
	text := s.byTitle[title]
	return text, text != ""
}

// Len returns the number of titles.
func (s *Store) Len() int { return len(s.byTitle) }

// Titles returns every title in lexical order.
func (s *Store) Titles() []string {
	out := make([]string, 0, len(s.byTitle))
	for t := range s.byTitle {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
