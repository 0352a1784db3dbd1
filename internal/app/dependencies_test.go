package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarian/internal/chat"
	"librarian/internal/chat/chattest"
	"librarian/internal/config"
	"librarian/internal/domain"
)

const booksMD = `## Title: The Hobbit
Bilbo pleacă într-o aventură cu pitici și înfruntă un dragon.

## Title: 1984
Un stat totalitar supraveghează fiecare cetățean.

## Title: Harry Potter
Un băiat descoperă magie la Hogwarts și o prietenie de neuitat.
`

const summariesJSON = `{
  "The Hobbit": "Rezumat lung despre Bilbo.",
  "1984": "Rezumat lung despre Winston.",
  "Harry Potter": "Rezumat lung despre Harry, Ron și Hermione."
}`

func testConfig(t *testing.T, store string) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	books := filepath.Join(dir, "books.md")
	sums := filepath.Join(dir, "books.json")
	require.NoError(t, os.WriteFile(books, []byte(booksMD), 0o644))
	require.NoError(t, os.WriteFile(sums, []byte(summariesJSON), 0o644))

	cfg := config.Default()
	cfg.Embedder = config.EmbedderConfig{Type: "tfidf"}
	cfg.VectorStore.Type = store
	cfg.VectorStore.SQLite.Dir = filepath.Join(dir, "store")
	cfg.Corpus = config.CorpusConfig{BooksPath: books, SummariesPath: sums}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewDependencies_WiresPipeline(t *testing.T) {
	ctx := context.Background()
	model := chattest.New(chat.Response{
		ToolCalls: []chat.ToolCall{{Name: "get_summary_by_title", Arguments: `{"title":"Harry Potter"}`}},
	})
	d, err := NewDependencies(ctx, testConfig(t, "sqlite"), zap.NewNop(), WithChatModel(model))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	assert.Len(t, d.Records, 3)
	assert.Equal(t, 3, d.Summaries.Len())

	built, err := d.EnsureIndex(ctx)
	require.NoError(t, err)
	assert.True(t, built)

	rec, err := d.Librarian.Recommend(ctx, "o carte despre magie și prietenie")
	require.NoError(t, err)
	assert.Equal(t, "Harry Potter", rec.Title)
	assert.Equal(t, "Rezumat lung despre Harry, Ron și Hermione.", rec.FullSummary)
}

func TestNewDependencies_WithoutChat(t *testing.T) {
	ctx := context.Background()
	d, err := NewDependencies(ctx, testConfig(t, "memory"), nil, WithoutChat())
	require.NoError(t, err)

	assert.Nil(t, d.Librarian)
	require.NoError(t, d.RebuildIndex(ctx))
	n, err := d.Index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNewDependencies_Failures(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, "memory")
	cfg.Corpus.SummariesPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := NewDependencies(ctx, cfg, nil, WithoutChat())
	assert.ErrorIs(t, err, domain.ErrLoad)

	t.Setenv("OPENAI_API_KEY", "")
	cfg = testConfig(t, "memory")
	_, err = NewDependencies(ctx, cfg, nil)
	assert.Error(t, err, "chat backend needs an API key")
}
