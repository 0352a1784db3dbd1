package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Chat.Type)
	assert.Equal(t, DefaultChatModel, cfg.Chat.OpenAI.Model)
	assert.InDelta(t, DefaultTemperature, cfg.Chat.Temperature, 1e-9)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, DefaultStoreDir, cfg.VectorStore.SQLite.Dir)
	assert.Equal(t, DefaultCollection, cfg.VectorStore.Collection)
	assert.Equal(t, DefaultBooksPath, cfg.Corpus.BooksPath)
	assert.Equal(t, DefaultSummariesPath, cfg.Corpus.SummariesPath)
	assert.Equal(t, DefaultTopK, cfg.Retrieval.TopK)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedder:
  type: tfidf
vector_store:
  type: memory
retrieval:
  top_k: 5
filter:
  blocked_words: [nesimțit]
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Nil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, []string{"nesimțit"}, cfg.Filter.BlockedWords)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultChatModel, cfg.Chat.OpenAI.Model)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retrieval.TopK = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MODEL", "gpt-4.1-mini")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-large")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("CHROMA_DIR", "/var/lib/librarian")
	t.Setenv("BOOK_MD_PATH", "/data/books.md")
	t.Setenv("BOOK_JSON_PATH", "/data/books.json")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "gpt-4.1-mini", cfg.Chat.OpenAI.Model)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Chat.OpenAI.BaseURL)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "/var/lib/librarian", cfg.VectorStore.SQLite.Dir)
	assert.Equal(t, "/data/books.md", cfg.Corpus.BooksPath)
	assert.Equal(t, "/data/books.json", cfg.Corpus.SummariesPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{name: "unknown embedder", mutate: func(c *AppConfig) { c.Embedder.Type = "word2vec" }},
		{name: "unknown store", mutate: func(c *AppConfig) { c.VectorStore.Type = "chroma" }},
		{name: "zero top k", mutate: func(c *AppConfig) { c.Retrieval.TopK = 0 }},
		{name: "temperature too high", mutate: func(c *AppConfig) { c.Chat.Temperature = 3 }},
		{name: "missing corpus path", mutate: func(c *AppConfig) { c.Corpus.BooksPath = "" }},
		{name: "qdrant without section", mutate: func(c *AppConfig) { c.VectorStore.Type = "qdrant" }},
		{name: "qdrant bad url", mutate: func(c *AppConfig) {
			c.VectorStore.Type = "qdrant"
			c.VectorStore.Qdrant = &QdrantConfig{URL: "not a url"}
		}},
		{name: "bad log level", mutate: func(c *AppConfig) { c.Log.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
