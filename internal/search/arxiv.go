// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv API, ranking by relevance.
type ArxivBackend struct {
	Client *http.Client
	HTTP   types.HTTPConfig
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return string(types.BackendArxiv) }

// Search queries the arXiv API and returns at most maxResults records.
func (b *ArxivBackend) Search(ctx context.Context, query string, maxResults int) ([]types.PaperRecord, error) {
	q := normalizeQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if maxResults <= 0 {
		return []types.PaperRecord{}, nil
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := httputil.Do(ctx, b.Client, req, "arXiv API", b.HTTP)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := (&atom.Parser{}).Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if len(records) == maxResults {
			break
		}
		r, ok := arxivRecord(entry)
		if !ok {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// arxivRecord converts a feed entry. Entries without a title, a PDF link or a
// usable date (the API's error entries, for instance) are dropped.
func arxivRecord(entry *atom.Entry) (types.PaperRecord, bool) {
	title := collapseSpace(entry.Title)
	pdf := arxivPDFURL(entry)
	if title == "" || pdf == "" {
		return types.PaperRecord{}, false
	}

	r := types.PaperRecord{
		Title:   title,
		Authors: []string{},
		Summary: collapseSpace(entry.Summary),
		PDFURL:  pdf,
	}
	for _, a := range entry.Authors {
		if a == nil {
			continue
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			r.Authors = append(r.Authors, name)
		}
	}

	published, ok := entryDate(entry)
	if !ok {
		return types.PaperRecord{}, false
	}
	r.Published = types.FormatPublished(published)
	return r, true
}

// entryDate returns the entry's publication date, falling back to its update
// date when the published field is missing or malformed.
func entryDate(entry *atom.Entry) (time.Time, bool) {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed, true
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published)); err == nil {
		return t, true
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed, true
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Updated)); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// arxivPDFURL picks the entry's PDF link, falling back to rewriting the
// abstract URL (e.g. "http://arxiv.org/abs/2301.07041v1" → ".../pdf/2301.07041v1").
func arxivPDFURL(entry *atom.Entry) string {
	for _, l := range entry.Links {
		if l == nil {
			continue
		}
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	if strings.Contains(entry.ID, "/abs/") {
		return strings.Replace(entry.ID, "/abs/", "/pdf/", 1)
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
