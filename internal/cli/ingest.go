package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"librarian/internal/app"
)

var ingestRebuild bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector collection from the corpus",
	Long: `Embeds every summary of the corpus file and stores it in the configured
vector collection. An existing collection is left untouched; pass --rebuild to
drop it and ingest again after editing the corpus.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "drop the collection and ingest again")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd, nil, app.WithoutChat())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	collection := rt.cfg.VectorStore.Collection

	if ingestRebuild {
		if err := rt.deps.RebuildIndex(ctx); err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
		fmt.Fprintf(out, "Collection %q rebuilt.\n", collection)
	} else {
		built, err := rt.deps.EnsureIndex(ctx)
		if err != nil {
			return fmt.Errorf("building index: %w", err)
		}
		if built {
			fmt.Fprintf(out, "Collection %q built.\n", collection)
		} else {
			fmt.Fprintf(out, "Collection %q already exists; nothing to do (use --rebuild to re-ingest).\n", collection)
		}
	}

	n, err := rt.deps.Index.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Entries: %d (corpus records: %d)\n", n, len(rt.deps.Records))
	return nil
}
