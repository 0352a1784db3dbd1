package domain

import "context"

// BookRecord is a single title/summary pair parsed from the corpus file.
type BookRecord struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// IndexEntry is the unit stored in a vector collection. ID maps to exactly one title.
type IndexEntry struct {
	ID        string
	Embedding []float32
	Title     string
	Summary   string
}

// Match is a raw nearest-neighbour hit as reported by a vector store.
// Distance is nil when the store did not report one.
type Match struct {
	ID       string
	Title    string
	Summary  string
	Distance *float64
}

// Candidate is a record returned by a similarity query.
// Score is 1 - cosine distance, or nil when no distance was available.
type Candidate struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Score   *float64 `json:"score"`
}

// SelectionResult is what the selector produced for one query.
// ChosenTitle is empty when no candidate could be chosen.
type SelectionResult struct {
	AssistantText string
	ChosenTitle   string
}

// Recommendation is the outcome of one user interaction.
type Recommendation struct {
	Query         string      `json:"query"`
	Candidates    []Candidate `json:"candidates"`
	AssistantText string      `json:"assistant_text"`
	Title         string      `json:"title,omitempty"`
	FullSummary   string      `json:"full_summary,omitempty"`
	Blocked       bool        `json:"blocked,omitempty"`
	NoMatches     bool        `json:"no_matches,omitempty"`
	Notice        string      `json:"notice,omitempty"`
}

// Librarian defines the operations exposed by the application core to front ends.
type Librarian interface {
	Recommend(ctx context.Context, query string) (Recommendation, error)
	Search(ctx context.Context, query string, k int) ([]Candidate, error)
	Summary(title string) (text string, found bool)
}
