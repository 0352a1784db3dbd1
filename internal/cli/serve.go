package cli

import (
	"github.com/spf13/cobra"

	"librarian/internal/config"
	"librarian/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and web page",
	Long: `Serves the recommendation API and a small web page.

Endpoints:
  GET  /healthz
  POST /api/v1/recommendations   {"query": "..."}
  GET  /api/v1/summaries/{title}
  GET  /api/v1/search?q=...&k=3`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd, func(cfg *config.AppConfig) {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if err := rt.ensureIndex(ctx); err != nil {
		return err
	}

	opts := []httpapi.Option{httpapi.WithReadiness(rt.deps.Index.Built)}
	if len(rt.cfg.Server.AllowedOrigins) > 0 {
		opts = append(opts, httpapi.WithAllowedOrigins(rt.cfg.Server.AllowedOrigins))
	}
	srv := httpapi.NewServer(rt.deps.Librarian, rt.logger.Named("http"), opts...)
	cmd.Printf("Listening on %s\n", rt.cfg.Server.Addr)
	return srv.Run(ctx, rt.cfg.Server.Addr)
}
