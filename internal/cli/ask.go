package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Get one recommendation",
	Long: `Runs a single query through the full pipeline and prints the recommendation.
Use --json to print the complete result, including candidates and scores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the recommendation as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if err := rt.ensureIndex(ctx); err != nil {
		return err
	}
	rec, err := rt.deps.Librarian.Recommend(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}
	if askJSON {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	printRecommendation(cmd.OutOrStdout(), rec)
	return nil
}
