package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"librarian/internal/summaries"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [title]",
	Short: "Print the full summary of a title",
	Long: `Looks up the exact, case-sensitive title in the summary file.
Unknown titles print a not-found message.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := summaries.Load(cfg.Corpus.SummariesPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), store.Lookup(args[0]))
	return nil
}
