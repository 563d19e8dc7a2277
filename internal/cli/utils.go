// Package cli formats buscador results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/buscador/internal/ingest"
	"github.com/hyperjump/buscador/internal/models"
	"github.com/hyperjump/buscador/internal/scraper"
	"github.com/hyperjump/buscador/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat accepts "text", "json" or empty (text).
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WriteOutcome writes a search client outcome: hits for searches, counts for
// bulk writes, the result string for single writes.
func WriteOutcome(w io.Writer, out models.Outcome, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, out)
	}
	if !out.Success {
		fmt.Fprintf(w, "Error: %s\n", out.Error)
		return nil
	}
	switch {
	case out.Message != "":
		fmt.Fprintln(w, out.Message)
	case out.Result != "":
		fmt.Fprintf(w, "%s %s/%s\n", out.Result, out.Index, out.ID)
	case out.Items > 0:
		fmt.Fprintf(w, "Indexed %d documents in %dms", out.Items, out.Took)
		if out.Errors {
			fmt.Fprint(w, " (some items failed)")
		}
		fmt.Fprintln(w)
	default:
		fmt.Fprintf(w, "\nFound %d results in %dms\n\n", out.Total, out.Took)
		for i, h := range out.Resultados {
			writeHit(w, i+1, h)
		}
	}
	return nil
}

func writeHit(w io.Writer, rank int, h models.Hit) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %s\n", rank, h.Score, h.ID)
	for _, k := range []string{"titulo", "term_child", "term_parent"} {
		if v, ok := h.Source[k]; ok && v != nil {
			fmt.Fprintf(w, "%s: %v\n", k, v)
		}
	}
	for _, k := range []string{"definition", "contenido"} {
		if s, ok := h.Source[k].(string); ok && s != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(s, 200))
			break
		}
	}
	fmt.Fprintln(w)
}

// WriteTermHits writes the simplified search page hits.
func WriteTermHits(w io.Writer, hits []models.TermHit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, hits)
	}
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}
	for i, h := range hits {
		title := h.TermChild
		if title == nil {
			title = h.Titulo
		}
		fmt.Fprintf(w, "%d. %v (%.2f)\n", i+1, title, h.Score)
		if h.Definition != nil {
			fmt.Fprintf(w, "   %v\n", h.Definition)
		}
		if h.Contenido != "" {
			fmt.Fprintf(w, "   %s\n", h.Contenido)
		}
		if h.URLPDF != nil {
			fmt.Fprintf(w, "   %v\n", h.URLPDF)
		}
	}
	return nil
}

// WriteIngestResult summarizes a Process pass.
func WriteIngestResult(w io.Writer, res ingest.Result) {
	fmt.Fprintf(w, "Documents: %d\n", len(res.Documents))
	writeList(w, "Processed", res.Processed)
	writeList(w, "Dropped (over limit)", res.Dropped)
	writeList(w, "Ignored", res.Ignored)
	writeList(w, "Warnings", res.Warnings)
}

// WriteScrapeResult summarizes a scrape pass.
func WriteScrapeResult(w io.Writer, res scraper.Result) {
	fmt.Fprintf(w, "Links found: %d, downloaded: %d, documents: %d\n",
		res.Found, len(res.Attempted), len(res.Documents))
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.URL, s.Reason)
	}
}

// WriteAccounts writes the account table.
func WriteAccounts(w io.Writer, accs []models.Account, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, accs)
	}
	fmt.Fprintf(w, "%-20s %-15s %s\n", "USUARIO", "ROL", "PERMISOS")
	for _, a := range accs {
		var granted []string
		for _, p := range models.PermissionNames {
			if a.Permissions.Has(p) {
				granted = append(granted, p)
			}
		}
		fmt.Fprintf(w, "%-20s %-15s %s\n", a.Username, a.Role, strings.Join(granted, ","))
	}
	return nil
}

func writeList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", label)
	for _, it := range items {
		fmt.Fprintf(w, "  %s\n", it)
	}
}
