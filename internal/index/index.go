// Package index maintains the persistent embedding collection for the corpus and
// answers nearest-neighbour queries against it.
//
// The lifecycle is explicit: EnsureBuilt must succeed before Query. EnsureBuilt never
// compares corpus content against an existing collection; use Rebuild to re-ingest.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"librarian/internal/domain"
	"librarian/internal/embedding"
	"librarian/internal/vectorstore"
)

// ErrNotBuilt is returned by Query before EnsureBuilt has succeeded.
var ErrNotBuilt = domain.NewError(domain.KindIndexStore, "index.Query", errors.New("index not built"))

// recordNamespace scopes record ids so they never collide with other UUIDv5 users.
var recordNamespace = uuid.MustParse("6f1c1f0e-2b7a-4c1d-9a43-6a0b1e8f3d27")

// RecordID returns the stable id for a title. The same title always maps to the same id.
func RecordID(title string) string {
	return uuid.NewSHA1(recordNamespace, []byte(title)).String()
}

// Index ties an embedder to one vector collection.
type Index struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	logger   *zap.Logger
	built    bool
	// empty is set when the built collection holds no entries.
	empty bool
}

func New(embedder embedding.Embedder, store vectorstore.Storage, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{embedder: embedder, store: store, logger: logger}
}

// Built reports whether the index is ready for queries.
func (x *Index) Built() bool { return x.built }

// EnsureBuilt ingests records unless the collection already exists. It reports whether
// ingestion happened. Embedders that need a corpus pass are prepared on every call.
func (x *Index) EnsureBuilt(ctx context.Context, records []domain.BookRecord) (bool, error) {
	if x.built {
		return false, nil
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Summary
	}
	if len(texts) > 0 {
		if err := x.embedder.Prepare(texts); err != nil {
			return false, domain.Wrap(domain.KindEmbedding, "index.EnsureBuilt", err)
		}
	}

	exists, err := x.store.Exists(ctx)
	if err != nil {
		return false, domain.Wrap(domain.KindIndexStore, "index.EnsureBuilt", err)
	}
	if exists {
		n, err := x.store.Count(ctx)
		if err != nil {
			return false, domain.Wrap(domain.KindIndexStore, "index.EnsureBuilt", err)
		}
		if n > 0 || len(records) == 0 {
			x.warnOnDimensionDrift(ctx)
			x.logger.Info("vector collection already present; skipping ingestion", zap.Int("entries", n))
			x.built = true
			x.empty = n == 0
			return false, nil
		}
		// Left behind by an interrupted build.
		x.logger.Warn("vector collection exists but is empty; ingesting again")
		if err := x.store.Clear(ctx); err != nil {
			return false, domain.Wrap(domain.KindIndexStore, "index.EnsureBuilt", err)
		}
	}

	if err := x.ingest(ctx, records, texts); err != nil {
		return false, err
	}
	x.built = true
	x.empty = len(records) == 0
	x.logger.Info("vector collection built", zap.Int("records", len(records)), zap.String("embedder", x.embedder.Name()))
	return true, nil
}

func (x *Index) ingest(ctx context.Context, records []domain.BookRecord, texts []string) error {
	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = x.embedder.Embed(ctx, texts)
		if err != nil {
			return domain.Wrap(domain.KindEmbedding, "index.EnsureBuilt", err)
		}
		if len(vectors) != len(texts) {
			return domain.NewError(domain.KindEmbedding, "index.EnsureBuilt",
				fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)))
		}
	}

	dimension := x.embedder.Dimension()
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	if err := x.store.Init(ctx, dimension); err != nil {
		return domain.Wrap(domain.KindIndexStore, "index.EnsureBuilt", err)
	}

	entries := make([]domain.IndexEntry, len(records))
	for i, r := range records {
		entries[i] = domain.IndexEntry{
			ID:        RecordID(r.Title),
			Embedding: vectors[i],
			Title:     r.Title,
			Summary:   r.Summary,
		}
	}
	if err := x.store.Upsert(ctx, entries); err != nil {
		if cerr := x.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			x.logger.Warn("removing partially built collection", zap.Error(cerr))
		}
		return domain.Wrap(domain.KindIndexStore, "index.EnsureBuilt", err)
	}
	return nil
}

// warnOnDimensionDrift logs when stored vectors and new query vectors differ in size.
// TF-IDF vocabularies change with the corpus, so an edited corpus needs a rebuild.
func (x *Index) warnOnDimensionDrift(ctx context.Context) {
	want := x.embedder.Dimension()
	if want == 0 {
		return
	}
	stored, err := x.store.Dimension(ctx)
	if err != nil {
		x.logger.Warn("reading stored vector dimension", zap.Error(err))
		return
	}
	if stored != 0 && stored != want {
		x.logger.Warn("stored vectors do not match the embedder; queries will fail until the collection is rebuilt with `librarian ingest --rebuild`",
			zap.Int("stored_dimension", stored),
			zap.Int("embedder_dimension", want),
			zap.String("embedder", x.embedder.Name()))
	}
}

// Rebuild drops the collection and ingests records again.
func (x *Index) Rebuild(ctx context.Context, records []domain.BookRecord) error {
	if err := x.store.Clear(ctx); err != nil {
		return domain.Wrap(domain.KindIndexStore, "index.Rebuild", err)
	}
	x.built = false
	x.empty = false
	_, err := x.EnsureBuilt(ctx, records)
	return err
}

// Query embeds text and returns up to k candidates by descending similarity.
// An empty collection yields an empty slice.
func (x *Index) Query(ctx context.Context, text string, k int) ([]domain.Candidate, error) {
	if k <= 0 {
		return nil, domain.NewError(domain.KindInvalidInput, "index.Query", fmt.Errorf("k must be positive, got %d", k))
	}
	if !x.built {
		return nil, ErrNotBuilt
	}
	if x.empty {
		return []domain.Candidate{}, nil
	}
	vecs, err := x.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, domain.Wrap(domain.KindEmbedding, "index.Query", err)
	}
	if len(vecs) != 1 {
		return nil, domain.NewError(domain.KindEmbedding, "index.Query", fmt.Errorf("expected 1 embedding, got %d", len(vecs)))
	}
	matches, err := x.store.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, domain.Wrap(domain.KindIndexStore, "index.Query", err)
	}

	candidates := make([]domain.Candidate, 0, len(matches))
	for _, m := range matches {
		c := domain.Candidate{Title: m.Title, Summary: m.Summary}
		if m.Distance != nil {
			score := 1 - *m.Distance
			c.Score = &score
		}
		candidates = append(candidates, c)
	}
	x.logger.Debug("index query", zap.Int("k", k), zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// Count returns the number of entries in the collection.
func (x *Index) Count(ctx context.Context) (int, error) {
	n, err := x.store.Count(ctx)
	if err != nil {
		return 0, domain.Wrap(domain.KindIndexStore, "index.Count", err)
	}
	return n, nil
}
