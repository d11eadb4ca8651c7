// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries a scholarly index and returns fixed-shape paper
// records. Each index (arXiv, Semantic Scholar) is a Searcher; the search
// agent reaches one of them through the tool built by NewTool.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// Searcher queries a single scholarly index. Implementations return at most
// maxResults records in the order the index ranks them, an empty slice when
// nothing matches, and upstream failures unmodified (no retries).
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.PaperRecord, error)
}

// New returns the Searcher selected by cfg.Backend.
func New(cfg types.SearchConfig, client *http.Client) (Searcher, error) {
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	switch cfg.Backend {
	case "", types.BackendArxiv:
		return &ArxivBackend{Client: client, HTTP: cfg.HTTPConfig}, nil
	case types.BackendSemanticScholar:
		return &SemanticScholarBackend{Client: client, HTTP: cfg.HTTPConfig, APIKey: cfg.SemanticScholarAPIKey}, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
}

// normalizeQuery collapses whitespace in a free-text query.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-8s  %s\n",
		"Rank", "Title", "Authors", "Date", "PDF")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-8s  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), r.Published, r.PDFURL)
	}

	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(records []types.PaperRecord, w io.Writer) error {
	if records == nil {
		records = []types.PaperRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
