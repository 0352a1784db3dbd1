package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"librarian/internal/domain"
	"librarian/internal/service"
)

// printRecommendation renders rec the way the interactive loop shows it.
func printRecommendation(w io.Writer, rec domain.Recommendation) {
	if rec.Blocked || rec.NoMatches {
		fmt.Fprintln(w, rec.Notice)
		return
	}
	if rec.AssistantText != "" {
		fmt.Fprintf(w, "\nRecomandare: %s\n\n", rec.AssistantText)
	}
	if rec.Title == "" {
		fmt.Fprintln(w, service.NoticeNoTitle)
		return
	}
	fmt.Fprintf(w, "=== Rezumat complet pentru '%s' ===\n", rec.Title)
	fmt.Fprintln(w, rec.FullSummary)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
