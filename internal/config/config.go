package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default values, matching the stock deployment.
const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultTemperature    = 0.4
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultAPIKeyEnv      = "OPENAI_API_KEY"
	DefaultStoreDir       = "./chroma_db"
	DefaultCollection     = "book_summaries"
	DefaultBooksPath      = "./data/book_summaries.md"
	DefaultSummariesPath  = "./data/book_summaries.json"
	DefaultTopK           = 3
	DefaultAddr           = ":8080"
)

// OpenAIChatConfig holds configuration for the OpenAI-compatible chat model.
type OpenAIChatConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env" validate:"required"`
	Model       string `yaml:"model" validate:"required"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// ChatConfig configures the model that picks the recommendation.
type ChatConfig struct {
	Type        string           `yaml:"type" validate:"oneof=openai"`
	Temperature float64          `yaml:"temperature" validate:"gte=0,lte=2"`
	OpenAI      OpenAIChatConfig `yaml:"openai"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env" validate:"required"`
	Model       string `yaml:"model" validate:"required"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type" validate:"oneof=openai tfidf"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// SQLiteConfig locates the persistent collection on disk.
type SQLiteConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" validate:"required,url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string        `yaml:"type" validate:"oneof=sqlite qdrant memory"`
	Collection string        `yaml:"collection" validate:"required"`
	SQLite     SQLiteConfig  `yaml:"sqlite"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// CorpusConfig points at the two book sources. They must describe the same titles.
type CorpusConfig struct {
	BooksPath     string `yaml:"books_path" validate:"required"`
	SummariesPath string `yaml:"summaries_path" validate:"required"`
}

// RetrievalConfig tunes similarity search.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" validate:"min=1"`
}

// FilterConfig extends the built-in block list.
type FilterConfig struct {
	BlockedWords []string `yaml:"blocked_words,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
	File   string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chat        ChatConfig        `yaml:"chat"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Filter      FilterConfig      `yaml:"filter"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/librarian/config.yaml.
// If neither exists, it writes defaults to ~/.config/librarian/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "librarian", "config.yaml"), nil
}

// Default returns the stock configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Chat:        ChatConfig{Type: "openai", Temperature: DefaultTemperature},
		Embedder:    EmbedderConfig{Type: "openai"},
		VectorStore: VectorStoreConfig{Type: "sqlite"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chat.Type == "" {
		cfg.Chat.Type = "openai"
		cfg.Chat.Temperature = DefaultTemperature
	}
	if cfg.Chat.OpenAI.BaseURL == "" {
		cfg.Chat.OpenAI.BaseURL = DefaultBaseURL
	}
	if cfg.Chat.OpenAI.APIKeyEnv == "" {
		cfg.Chat.OpenAI.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Chat.OpenAI.Model == "" {
		cfg.Chat.OpenAI.Model = DefaultChatModel
	}
	if cfg.Chat.OpenAI.TimeoutSecs == 0 {
		cfg.Chat.OpenAI.TimeoutSecs = 60
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = DefaultBaseURL
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = DefaultAPIKeyEnv
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = DefaultEmbeddingModel
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = DefaultCollection
	}
	if cfg.VectorStore.SQLite.Dir == "" {
		cfg.VectorStore.SQLite.Dir = DefaultStoreDir
	}

	if cfg.Corpus.BooksPath == "" {
		cfg.Corpus.BooksPath = DefaultBooksPath
	}
	if cfg.Corpus.SummariesPath == "" {
		cfg.Corpus.SummariesPath = DefaultSummariesPath
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// ApplyEnv overrides settings from the environment variables used by the stock deployment.
func (c *AppConfig) ApplyEnv() {
	if v := os.Getenv("MODEL"); v != "" {
		c.Chat.OpenAI.Model = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" && c.Embedder.OpenAI != nil {
		c.Embedder.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Chat.OpenAI.BaseURL = v
		if c.Embedder.OpenAI != nil {
			c.Embedder.OpenAI.BaseURL = v
		}
	}
	if v := os.Getenv("CHROMA_DIR"); v != "" {
		c.VectorStore.SQLite.Dir = v
	}
	if v := os.Getenv("BOOK_MD_PATH"); v != "" {
		c.Corpus.BooksPath = v
	}
	if v := os.Getenv("BOOK_JSON_PATH"); v != "" {
		c.Corpus.SummariesPath = v
	}
}

var validate = validator.New()

// Validate checks field constraints and backend-specific requirements.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Embedder.Type == "openai" && c.Embedder.OpenAI == nil {
		return errors.New("invalid config: embedder.openai section missing")
	}
	if c.VectorStore.Type == "qdrant" && c.VectorStore.Qdrant == nil {
		return errors.New("invalid config: vector_store.qdrant section missing")
	}
	return nil
}
