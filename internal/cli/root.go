// Package cli implements the librarian command line.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"librarian/internal/app"
	"librarian/internal/config"
	"librarian/internal/logging"
)

var (
	cfgPath   string
	verbose   bool
	logFormat string

	// dependencyOptions are appended to every app.NewDependencies call.
	dependencyOptions []app.Option
)

var rootCmd = &cobra.Command{
	Use:   "librarian",
	Short: "Book recommendations from a curated corpus",
	Long: `Smart Librarian recommends books from a curated collection.

A query is matched against short summaries by semantic similarity, a chat model
picks the best candidate, and the full summary of that title is shown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml, then ~/.config/librarian/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads .env, the YAML file and environment overrides, then validates.
func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if verbose {
		cfg.Log.Level = "debug"
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session bundles what a command needs and releases it on Close.
type session struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	deps   *app.Dependencies
}

func (s *session) Close() {
	if s.deps != nil {
		if err := s.deps.Close(); err != nil {
			s.logger.Warn("closing vector store", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// setup loads config, builds the logger and wires dependencies.
// adjust, when non-nil, may change the config before anything is built.
func setup(cmd *cobra.Command, adjust func(*config.AppConfig), opts ...app.Option) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	opts = append(opts, dependencyOptions...)
	deps, err := app.NewDependencies(cmd.Context(), cfg, logger, opts...)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, deps: deps}, nil
}

// ensureIndex builds the collection if needed and logs the outcome.
func (s *session) ensureIndex(ctx context.Context) error {
	built, err := s.deps.EnsureIndex(ctx)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	if built {
		s.logger.Info("index built", zap.Int("records", len(s.deps.Records)))
	}
	return nil
}
