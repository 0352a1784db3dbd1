package vectorstore

import (
	"context"

	"librarian/internal/domain"
)

// Storage is one named vector collection using the cosine metric.
type Storage interface {
	// Exists reports whether the collection has been created.
	Exists(ctx context.Context) (bool, error)
	// Init creates the collection if missing. A zero dimension means "not known yet";
	// backends that need a size up front defer creation to the first non-empty Upsert.
	Init(ctx context.Context, dimension int) error
	// Dimension returns the stored vector size, or 0 when unknown or missing.
	Dimension(ctx context.Context) (int, error)
	// Upsert inserts or overwrites entries by ID.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	// Search returns up to topK entries ordered by ascending cosine distance.
	Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)
	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int, error)
	// Clear drops the collection and all of its entries.
	Clear(ctx context.Context) error
	Close() error
}
