package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarian/internal/app"
	"librarian/internal/chat"
	"librarian/internal/chat/chattest"
	"librarian/internal/config"
	"librarian/internal/domain"
	"librarian/internal/service"
	"librarian/internal/summaries"
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

// writeConfig writes a tfidf + sqlite config over a temp corpus and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"MODEL", "EMBEDDING_MODEL", "OPENAI_BASE_URL", "CHROMA_DIR", "BOOK_MD_PATH", "BOOK_JSON_PATH"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	books := filepath.Join(dir, "books.md")
	sums := filepath.Join(dir, "books.json")
	require.NoError(t, os.WriteFile(books, []byte(booksMD), 0o644))
	require.NoError(t, os.WriteFile(sums, []byte(summariesJSON), 0o644))

	cfg := config.Default()
	cfg.Embedder = config.EmbedderConfig{Type: "tfidf"}
	cfg.VectorStore.Type = "sqlite"
	cfg.VectorStore.SQLite.Dir = filepath.Join(dir, "store")
	cfg.Corpus = config.CorpusConfig{BooksPath: books, SummariesPath: sums}
	cfg.Log.Level = "error"

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		cfgPath, verbose, logFormat = "", false, ""
		askJSON, ingestRebuild, chatPlain = false, false, false
		dependencyOptions = nil
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func withChat(t *testing.T, responses ...chat.Response) *chattest.Model {
	t.Helper()
	model := chattest.New(responses...)
	dependencyOptions = []app.Option{app.WithChatModel(model)}
	return model
}

func pickHarry() chat.Response {
	return chat.Response{
		Content:   "Îți recomand Harry Potter.",
		ToolCalls: []chat.ToolCall{{ID: "1", Name: "get_summary_by_title", Arguments: `{"title":"Harry Potter"}`}},
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"chat", "ask", "ingest", "lookup", "serve", "mcp"} {
		assert.Contains(t, names, want)
	}
}

func TestLookupCommand(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "", "--config", path, "lookup", "1984")
	require.NoError(t, err)
	assert.Equal(t, "Rezumat lung despre Winston.\n", out)
}

func TestLookupCommand_UnknownTitle(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "", "--config", path, "lookup", "harry potter")
	require.NoError(t, err)
	assert.Equal(t, summaries.NotFound+"\n", out)
}

func TestIngestCommand_BuildsOnceThenReuses(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "", "--config", path, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, `Collection "book_summaries" built.`)
	assert.Contains(t, out, "Entries: 3 (corpus records: 3)")

	out, err = execute(t, "", "--config", path, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	assert.Contains(t, out, "Entries: 3")

	out, err = execute(t, "", "--config", path, "ingest", "--rebuild")
	require.NoError(t, err)
	assert.Contains(t, out, "rebuilt")
	assert.Contains(t, out, "Entries: 3")
}

func TestAskCommand_PrintsRecommendation(t *testing.T) {
	path := writeConfig(t)
	model := withChat(t, pickHarry())

	out, err := execute(t, "", "--config", path, "ask", "o carte despre magie și prietenie")
	require.NoError(t, err)
	assert.Contains(t, out, "Recomandare: Îți recomand Harry Potter.")
	assert.Contains(t, out, "=== Rezumat complet pentru 'Harry Potter' ===")
	assert.Contains(t, out, "Rezumat lung despre Harry, Ron și Hermione.")
	assert.Len(t, model.Requests(), 1)
}

func TestAskCommand_JSON(t *testing.T) {
	path := writeConfig(t)
	withChat(t, pickHarry())

	out, err := execute(t, "", "--config", path, "ask", "--json", "magie", "și", "prietenie")
	require.NoError(t, err)

	var rec domain.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "magie și prietenie", rec.Query)
	assert.Equal(t, "Harry Potter", rec.Title)
	assert.NotEmpty(t, rec.Candidates)
}

func TestAskCommand_BlockedSkipsModel(t *testing.T) {
	path := writeConfig(t)
	model := withChat(t)

	out, err := execute(t, "", "--config", path, "ask", "esti un idiot")
	require.NoError(t, err)
	assert.Contains(t, out, service.NoticeOffensive)
	assert.Empty(t, model.Requests())
}

func TestAskCommand_ModelFailure(t *testing.T) {
	path := writeConfig(t)
	dependencyOptions = []app.Option{app.WithChatModel(chattest.New().Fail(errors.New("boom")))}

	_, err := execute(t, "", "--config", path, "ask", "magie")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCompletionService))
}

func TestAskCommand_RequiresQuery(t *testing.T) {
	_, err := execute(t, "", "ask")
	assert.Error(t, err)
}

func TestChatCommand_PlainLoop(t *testing.T) {
	path := writeConfig(t)
	withChat(t, pickHarry())

	out, err := execute(t, "\n   \no carte despre magie\n", "--config", path, "chat", "--plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "=== Smart Librarian (CLI) ==="))
	assert.Contains(t, out, "=== Rezumat complet pentru 'Harry Potter' ===")
	assert.Contains(t, out, strings.Repeat("=", 60))
	assert.True(t, strings.HasSuffix(out, "La revedere!\n"))
}

type stubLibrarian struct {
	recs map[string]domain.Recommendation
	errs map[string]error
	seen []string
}

func (s *stubLibrarian) Recommend(_ context.Context, q string) (domain.Recommendation, error) {
	s.seen = append(s.seen, q)
	if err, ok := s.errs[q]; ok {
		return domain.Recommendation{}, err
	}
	return s.recs[q], nil
}

func (s *stubLibrarian) Search(context.Context, string, int) ([]domain.Candidate, error) {
	return nil, nil
}

func (s *stubLibrarian) Summary(string) (string, bool) { return "", false }

func TestChatLoop_ContinuesAfterErrors(t *testing.T) {
	lib := &stubLibrarian{
		recs: map[string]domain.Recommendation{
			"zbor":  {Query: "zbor", NoMatches: true, Notice: service.NoticeNoMatches},
			"magie": {Query: "magie", AssistantText: "Nu știu.", Notice: service.NoticeNoTitle},
		},
		errs: map[string]error{
			"eroare": domain.NewError(domain.KindCompletion, "chat", errors.New("down")),
		},
	}
	var out bytes.Buffer

	err := chatLoop(context.Background(), strings.NewReader("eroare\nzbor\n  magie  \n"), &out, lib, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"eroare", "zbor", "magie"}, lib.seen)
	text := out.String()
	assert.Contains(t, text, domain.UserMessage(domain.ErrCompletionService))
	assert.Contains(t, text, service.NoticeNoMatches)
	assert.Contains(t, text, "Recomandare: Nu știu.")
	assert.Contains(t, text, service.NoticeNoTitle)
	assert.NotContains(t, text, "Rezumat complet")
}

func TestChatLoop_StopsOnCancelledContext(t *testing.T) {
	lib := &stubLibrarian{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	require.NoError(t, chatLoop(ctx, strings.NewReader("magie\n"), &out, lib, zap.NewNop()))
	assert.Empty(t, lib.seen)
	assert.Contains(t, out.String(), "La revedere!")
}

func TestPrintRecommendation_Blocked(t *testing.T) {
	var out bytes.Buffer
	printRecommendation(&out, domain.Recommendation{Blocked: true, Notice: service.NoticeOffensive})
	assert.Equal(t, service.NoticeOffensive+"\n", out.String())
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := writeConfig(t)
	t.Cleanup(func() { cfgPath, verbose, logFormat = "", false, "" })
	cfgPath, verbose, logFormat = path, true, "json"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_InvalidFormat(t *testing.T) {
	path := writeConfig(t)
	t.Cleanup(func() { cfgPath, logFormat = "", "" })
	cfgPath, logFormat = path, "xml"

	_, err := loadConfig()
	assert.Error(t, err)
}
