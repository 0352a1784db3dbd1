package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"librarian/internal/config"
	"librarian/internal/domain"
	"librarian/internal/tui"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask for recommendations interactively",
	Long: `Starts an interactive session.

On a terminal this opens the full-screen interface. When input is piped, or with
--plain, queries are read line by line from stdin.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use the line-oriented prompt even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	interactive := !chatPlain && isTerminal(os.Stdin) && isTerminal(os.Stdout)

	// The full-screen UI owns the terminal, so logs go to a file.
	rt, err := setup(cmd, func(cfg *config.AppConfig) {
		if interactive && cfg.Log.File == "" {
			cfg.Log.File = filepath.Join(os.TempDir(), "librarian.log")
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

	if interactive {
		p := tea.NewProgram(tui.New(ctx, rt.deps.Librarian, ""), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		return err
	}
	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), rt.deps.Librarian, rt.logger)
}

// chatLoop reads one query per line until EOF. Failed requests are reported and the loop continues.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, lib domain.Librarian, logger *zap.Logger) error {
	fmt.Fprintln(out, "=== Smart Librarian (CLI) ===")
	fmt.Fprintln(out, "Scrie cererea ta (ex: 'Vreau o carte despre prietenie și magie'). Ctrl+D pentru ieșire.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() || ctx.Err() != nil {
			fmt.Fprintln(out, "\nLa revedere!")
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		rec, err := lib.Recommend(ctx, query)
		if err != nil {
			logger.Error("recommendation failed", zap.Error(err))
			fmt.Fprintln(out, domain.UserMessage(err))
			continue
		}
		printRecommendation(out, rec)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
