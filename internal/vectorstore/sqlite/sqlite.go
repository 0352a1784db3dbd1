// Package sqlite persists vector collections in a single SQLite database file.
// Similarity is computed in Go by brute force, which is plenty for a corpus of a few
// hundred summaries.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"librarian/internal/domain"
	"librarian/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// DBFile is the database file name inside the store directory.
const DBFile = "librarian.db"

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	dimension  INTEGER NOT NULL DEFAULT 0,
	metric     TEXT NOT NULL DEFAULT 'cosine',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS entries (
	collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
	id         TEXT NOT NULL,
	title      TEXT NOT NULL,
	document   TEXT NOT NULL,
	embedding  BLOB,
	PRIMARY KEY (collection, id)
);`

// Storage is one named collection inside a SQLite database.
type Storage struct {
	db         *sql.DB
	collection string
	path       string
	owned      bool
}

// Open creates dir if needed and opens (or creates) the database inside it.
func Open(ctx context.Context, dir, collection string) (*Storage, error) {
	if dir == "" {
		return nil, storeErr("sqlite.Open", errors.New("store directory is empty"))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, storeErr("sqlite.Open", fmt.Errorf("creating store directory: %w", err))
	}
	path := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, storeErr("sqlite.Open", fmt.Errorf("opening database: %w", err))
	}
	s := New(db, collection)
	s.path = path
	s.owned = true
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Call Migrate before first use.
func New(db *sql.DB, collection string) *Storage {
	return &Storage{db: db, collection: collection}
}

// Migrate creates the schema if it does not exist.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return storeErr("sqlite.Migrate", err)
	}
	return nil
}

// Path returns the database file path, or "" for handles passed to New.
func (s *Storage) Path() string { return s.path }

func (s *Storage) Exists(ctx context.Context) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM collections WHERE name = ?`, s.collection).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("sqlite.Exists", err)
	}
	return true, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension < 0 {
		return storeErr("sqlite.Init", errors.New("invalid dimension"))
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections(name, dimension, metric) VALUES(?, ?, 'cosine') ON CONFLICT(name) DO NOTHING`,
		s.collection, dimension)
	if err != nil {
		return storeErr("sqlite.Init", err)
	}
	return nil
}

func (s *Storage) Dimension(ctx context.Context) (int, error) {
	var dimension int
	err := s.db.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("sqlite.Dimension", err)
	}
	return dimension, nil
}

func (s *Storage) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("sqlite.Upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	var dimension int
	err = tx.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return storeErr("sqlite.Upsert", fmt.Errorf("collection %q not initialised", s.collection))
	}
	if err != nil {
		return storeErr("sqlite.Upsert", err)
	}
	if dimension == 0 {
		dimension = len(entries[0].Embedding)
		if _, err := tx.ExecContext(ctx, `UPDATE collections SET dimension = ? WHERE name = ?`, dimension, s.collection); err != nil {
			return storeErr("sqlite.Upsert", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries(collection, id, title, document, embedding) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			title = excluded.title, document = excluded.document, embedding = excluded.embedding`)
	if err != nil {
		return storeErr("sqlite.Upsert", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if len(e.Embedding) != dimension {
			return storeErr("sqlite.Upsert", fmt.Errorf("entry %s: dimension %d, collection has %d", e.ID, len(e.Embedding), dimension))
		}
		if _, err := stmt.ExecContext(ctx, s.collection, e.ID, e.Title, e.Summary, vectorstore.EncodeEmbedding(e.Embedding)); err != nil {
			return storeErr("sqlite.Upsert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("sqlite.Upsert", err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, document, embedding FROM entries WHERE collection = ? ORDER BY rowid`, s.collection)
	if err != nil {
		return nil, storeErr("sqlite.Search", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			m    domain.Match
			blob []byte
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.Summary, &blob); err != nil {
			return nil, storeErr("sqlite.Search", err)
		}
		emb, err := vectorstore.DecodeEmbedding(blob)
		if err != nil {
			return nil, storeErr("sqlite.Search", err)
		}
		d, err := vectorstore.CosineDistance(emb, vector)
		if err != nil {
			return nil, storeErr("sqlite.Search", fmt.Errorf("entry %s: %w", m.ID, err))
		}
		m.Distance = &d
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("sqlite.Search", err)
	}
	return vectorstore.RankByDistance(matches, topK), nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE collection = ?`, s.collection).Scan(&n); err != nil {
		return 0, storeErr("sqlite.Count", err)
	}
	return n, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("sqlite.Clear", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, s.collection); err != nil {
		return storeErr("sqlite.Clear", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		return storeErr("sqlite.Clear", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("sqlite.Clear", err)
	}
	return nil
}

// Close closes the database if Open created it.
func (s *Storage) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func storeErr(op string, err error) error {
	return domain.NewError(domain.KindIndexStore, op, err)
}
