// Package cli provides output helpers for the konsti command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/pkg/utils"
)

// OutputFormat is the format of command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	separator     = "─────────────────────────────────────────────────────────"
	excerptLength = 200
)

// ParseFormat maps a --format flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteAnswer writes an assistant answer to w in the given format.
func WriteAnswer(w io.Writer, a *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, a)
	}
	fmt.Fprintf(w, "\n%s\n\n", a.Text)
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Type: %s", a.Kind)
	if a.Tier != "" {
		fmt.Fprintf(w, " | Tier: %s", a.Tier)
	}
	if a.ErrorKind != "" {
		fmt.Fprintf(w, " | Erreur: %s", a.ErrorKind)
	}
	fmt.Fprintf(w, " | Confiance: %.2f | %dms\n", a.Confidence, a.SearchTime)
	if refs := a.References(); len(refs) > 0 {
		fmt.Fprintf(w, "Articles: %s\n", strings.Join(refs, ", "))
	}
	if len(a.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, s := range a.Suggestions {
			fmt.Fprintf(w, "  • %s\n", s)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteArticles writes articles with a content excerpt.
func WriteArticles(w io.Writer, articles []models.Article, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, articles)
	}
	fmt.Fprintf(w, "\n%d articles\n\n", len(articles))
	for _, a := range articles {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "%s", a.Reference())
		if a.Category != "" {
			fmt.Fprintf(w, " [%s]", a.Category)
		}
		if !a.IsActive {
			fmt.Fprint(w, " (inactif)")
		}
		fmt.Fprintln(w)
		if heading := strings.Join(nonEmpty(a.Part, a.Chapter, a.Section), " › "); heading != "" {
			fmt.Fprintf(w, "%s\n", heading)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(a.Content, excerptLength))
	}
	return nil
}

// WriteConstitutions writes one line per constitution.
func WriteConstitutions(w io.Writer, list []*models.Constitution, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No constitutions.")
		return nil
	}
	for _, c := range list {
		state := "active"
		if !c.IsActive {
			state = "inactive"
		}
		year := "----"
		if c.Year > 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		fmt.Fprintf(w, "%-24s  %s  %-8s  %s\n", c.ID, year, state, TruncateWords(c.Title, 12))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
