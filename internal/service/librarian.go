package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"librarian/internal/domain"
	"librarian/internal/selector"
)

// Notices shown instead of a recommendation.
const (
	NoticeOffensive = "Prefer să păstrăm un limbaj politicos. Reformulează te rog."
	NoticeNoMatches = "Nu am găsit potriviri. Încearcă să reformulezi întrebarea."
	NoticeNoTitle   = "Nu am reușit să identific un titlu exact."
)

// DefaultTopK is the number of candidates retrieved per query.
const DefaultTopK = 3

// Retriever returns the k most similar candidates for a query.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]domain.Candidate, error)
}

// Chooser picks one candidate title.
type Chooser interface {
	Choose(ctx context.Context, query string, candidates []domain.Candidate) (domain.SelectionResult, error)
}

// SummaryLookup resolves a title to its full summary.
type SummaryLookup interface {
	Lookup(title string) string
	Get(title string) (string, bool)
}

// Screen rejects queries before any service is called.
type Screen interface {
	IsOffensive(text string) bool
}

var _ domain.Librarian = (*Librarian)(nil)

// Librarian runs the recommendation pipeline: screen, retrieve, choose, look up.
// It keeps no per-query state.
type Librarian struct {
	retriever Retriever
	chooser   Chooser
	summaries SummaryLookup
	screen    Screen
	topK      int
	logger    *zap.Logger
}

func NewLibrarian(retriever Retriever, chooser Chooser, summaries SummaryLookup, screen Screen, topK int, logger *zap.Logger) *Librarian {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Librarian{
		retriever: retriever,
		chooser:   chooser,
		summaries: summaries,
		screen:    screen,
		topK:      topK,
		logger:    logger,
	}
}

// Recommend answers one query. Blocked queries and empty retrievals are reported
// through the Recommendation, not as errors.
func (l *Librarian) Recommend(ctx context.Context, query string) (domain.Recommendation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Recommendation{}, domain.NewError(domain.KindInvalidInput, "librarian.Recommend", errors.New("empty query"))
	}
	rec := domain.Recommendation{Query: query}

	if l.screen != nil && l.screen.IsOffensive(query) {
		l.logger.Info("query blocked by content filter")
		rec.Blocked = true
		rec.Notice = NoticeOffensive
		return rec, nil
	}

	candidates, err := l.retriever.Query(ctx, query, l.topK)
	if err != nil {
		return domain.Recommendation{}, err
	}
	rec.Candidates = candidates
	if len(candidates) == 0 {
		rec.NoMatches = true
		rec.Notice = NoticeNoMatches
		return rec, nil
	}

	sel, err := l.chooser.Choose(ctx, query, candidates)
	if err != nil {
		return domain.Recommendation{}, err
	}
	rec.AssistantText = sel.AssistantText
	rec.Title = l.enforceCandidate(sel, candidates)
	if rec.Title == "" {
		rec.Notice = NoticeNoTitle
		return rec, nil
	}
	rec.FullSummary = l.summaries.Lookup(rec.Title)

	l.logger.Info("recommendation ready",
		zap.String("title", rec.Title),
		zap.Int("candidates", len(candidates)))
	return rec, nil
}

// enforceCandidate keeps the chosen title only when it names a candidate exactly.
// Otherwise it falls back to a title mentioned in the assistant text, then the first candidate.
func (l *Librarian) enforceCandidate(sel domain.SelectionResult, candidates []domain.Candidate) string {
	for _, c := range candidates {
		if c.Title == sel.ChosenTitle {
			return sel.ChosenTitle
		}
	}
	if sel.ChosenTitle != "" {
		l.logger.Warn("chosen title is not a candidate", zap.String("title", sel.ChosenTitle))
	}
	if title, ok := selector.MentionedTitle(sel.AssistantText, candidates); ok {
		return title
	}
	if len(candidates) > 0 {
		return candidates[0].Title
	}
	return ""
}

// Search returns up to k candidates without invoking the chat model.
func (l *Librarian) Search(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "librarian.Search", errors.New("empty query"))
	}
	if k <= 0 {
		k = l.topK
	}
	return l.retriever.Query(ctx, query, k)
}

// Summary reports the full summary for an exact title.
func (l *Librarian) Summary(title string) (string, bool) {
	return l.summaries.Get(title)
}
