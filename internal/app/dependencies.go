// Package app wires configuration into the running collaborators.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"librarian/internal/chat"
	chatopenai "librarian/internal/chat/openai"
	"librarian/internal/config"
	"librarian/internal/corpus"
	"librarian/internal/domain"
	"librarian/internal/embedding"
	embedopenai "librarian/internal/embedding/openai"
	"librarian/internal/embedding/tfidf"
	"librarian/internal/filter"
	"librarian/internal/index"
	"librarian/internal/selector"
	"librarian/internal/service"
	"librarian/internal/summaries"
	"librarian/internal/vectorstore"
	"librarian/internal/vectorstore/memory"
	"librarian/internal/vectorstore/qdrant"
	"librarian/internal/vectorstore/sqlite"
)

// Dependencies holds every collaborator built from one AppConfig.
type Dependencies struct {
	Config *config.AppConfig
	Logger *zap.Logger

	Records   []domain.BookRecord
	Summaries *summaries.Store
	Embedder  embedding.Embedder
	Store     vectorstore.Storage
	Index     *index.Index

	// Chat, Selector and Librarian are nil when built WithoutChat.
	Chat      chat.Model
	Selector  *selector.Selector
	Librarian *service.Librarian
}

type options struct {
	chat     chat.Model
	embedder embedding.Embedder
	noChat   bool
}

// Option customises NewDependencies.
type Option func(*options)

// WithChatModel replaces the configured chat backend.
func WithChatModel(m chat.Model) Option { return func(o *options) { o.chat = m } }

// WithEmbedder replaces the configured embedder.
func WithEmbedder(e embedding.Embedder) Option { return func(o *options) { o.embedder = e } }

// WithoutChat skips the chat backend, for commands that only ingest or look up.
func WithoutChat() Option { return func(o *options) { o.noChat = true } }

// NewDependencies loads both corpus files and assembles the pipeline.
// The index is not built; call EnsureIndex.
func NewDependencies(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dependencies{Config: cfg, Logger: logger}

	if err := d.initCorpus(); err != nil {
		return nil, err
	}
	if err := d.initEmbedder(o.embedder); err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if err := d.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	d.Index = index.New(d.Embedder, d.Store, logger.Named("index"))

	if !o.noChat {
		if err := d.initChat(o.chat); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("failed to initialize chat model: %w", err)
		}
	}

	logger.Info("dependencies initialized",
		zap.Int("records", len(d.Records)),
		zap.Int("summaries", d.Summaries.Len()),
		zap.String("embedder", d.Embedder.Name()),
		zap.String("vector_store", cfg.VectorStore.Type))
	return d, nil
}

func (d *Dependencies) initCorpus() error {
	records, err := corpus.LoadRecords(d.Config.Corpus.BooksPath)
	if err != nil {
		return err
	}
	store, err := summaries.Load(d.Config.Corpus.SummariesPath)
	if err != nil {
		return err
	}
	d.Records = records
	d.Summaries = store
	return nil
}

func (d *Dependencies) initEmbedder(override embedding.Embedder) error {
	if override != nil {
		d.Embedder = override
		return nil
	}
	switch d.Config.Embedder.Type {
	case "tfidf":
		d.Embedder = tfidf.NewEmbedder()
	case "openai", "":
		oc := d.Config.Embedder.OpenAI
		if oc == nil {
			return errors.New("openai embedder config missing")
		}
		client, err := embedopenai.NewClient(embedopenai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return err
		}
		d.Embedder = client
	default:
		return fmt.Errorf("unknown embedder: %s", d.Config.Embedder.Type)
	}
	return nil
}

func (d *Dependencies) initStore(ctx context.Context) error {
	vc := d.Config.VectorStore
	switch vc.Type {
	case "memory":
		d.Store = memory.NewStorage()
	case "sqlite", "":
		st, err := sqlite.Open(ctx, vc.SQLite.Dir, vc.Collection)
		if err != nil {
			return err
		}
		d.Logger.Debug("sqlite store opened", zap.String("path", st.Path()))
		d.Store = st
	case "qdrant":
		if vc.Qdrant == nil {
			return errors.New("qdrant config missing")
		}
		d.Store = qdrant.NewStorage(qdrant.Config{
			URL:        vc.Qdrant.URL,
			APIKey:     vc.Qdrant.APIKey,
			Collection: vc.Collection,
			Timeout:    time.Duration(vc.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return fmt.Errorf("unknown vector store: %s", vc.Type)
	}
	return nil
}

func (d *Dependencies) initChat(override chat.Model) error {
	model := override
	if model == nil {
		cc := d.Config.Chat.OpenAI
		client, err := chatopenai.NewClient(chatopenai.Config{
			BaseURL:   cc.BaseURL,
			APIKeyEnv: cc.APIKeyEnv,
			Model:     cc.Model,
			Timeout:   time.Duration(cc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return err
		}
		model = client
	}
	d.Chat = model
	d.Selector = selector.New(model, d.Config.Chat.Temperature, d.Logger.Named("selector"))
	d.Librarian = service.NewLibrarian(
		d.Index,
		d.Selector,
		d.Summaries,
		filter.New(d.Config.Filter.BlockedWords...),
		d.Config.Retrieval.TopK,
		d.Logger.Named("librarian"),
	)
	return nil
}

// EnsureIndex builds the vector collection unless it already exists.
func (d *Dependencies) EnsureIndex(ctx context.Context) (bool, error) {
	return d.Index.EnsureBuilt(ctx, d.Records)
}

// RebuildIndex drops and re-ingests the vector collection.
func (d *Dependencies) RebuildIndex(ctx context.Context) error {
	return d.Index.Rebuild(ctx, d.Records)
}

// Close releases the vector store.
func (d *Dependencies) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
