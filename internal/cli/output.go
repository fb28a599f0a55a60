// Package cli provides output helpers for the ronbun command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes retrieval hits to w in the given format.
func WriteSearchResults(w io.Writer, results []models.SearchResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"results": results})
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching chunks found.")
		return nil
	}
	fmt.Fprintf(w, "\nFound %d chunks\n\n", len(results))
	for i, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, result.Score)
		if title := result.Metadata[models.MetaSectionTitle]; title != "" {
			fmt.Fprintf(w, "Section: %s", title)
			if paper := result.Metadata[models.MetaPaperName]; paper != "" {
				fmt.Fprintf(w, " (%s)", paper)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(result.Text, 300))
	}
	return nil
}

// WriteAnswer writes an answer (or the no-answer notice) to w.
func WriteAnswer(w io.Writer, answer *models.Answer, results []models.SearchResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		out := map[string]any{"found": answer != nil, "results": results}
		if answer != nil {
			out["answer"] = answer.Text
		}
		return enc.Encode(out)
	}
	if answer == nil {
		fmt.Fprintln(w, "No answer: nothing relevant was found in the project.")
		return nil
	}
	fmt.Fprintf(w, "\n%s\n\n(based on %d retrieved chunks)\n", answer.Text, len(results))
	return nil
}
