// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,url,openAccessPdf"

// SemanticScholarBackend queries the Semantic Scholar API.
type SemanticScholarBackend struct {
	Client *http.Client
	HTTP   types.HTTPConfig
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return string(types.BackendSemanticScholar) }

// Search queries the Semantic Scholar API and returns at most maxResults records.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, maxResults int) ([]types.PaperRecord, error) {
	q := normalizeQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if maxResults <= 0 {
		return []types.PaperRecord{}, nil
	}

	params := url.Values{
		"query":  {q},
		"limit":  {strconv.Itoa(maxResults)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.Do(ctx, b.Client, req, "Semantic Scholar API", b.HTTP)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(sr.Data))
	for _, paper := range sr.Data {
		if len(records) == maxResults {
			break
		}
		r, ok := semanticRecord(paper)
		if !ok {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// semanticRecord converts one API paper. The PDF link prefers the open
// access PDF, then the arXiv PDF, then the Semantic Scholar page.
func semanticRecord(paper semanticPaper) (types.PaperRecord, bool) {
	title := collapseSpace(paper.Title)
	if title == "" {
		return types.PaperRecord{}, false
	}

	r := types.PaperRecord{
		Title:   title,
		Authors: []string{},
		Summary: collapseSpace(paper.Abstract),
	}
	for _, a := range paper.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			r.Authors = append(r.Authors, name)
		}
	}

	switch {
	case paper.PublicationDate != "":
		if t, err := time.Parse("2006-01-02", paper.PublicationDate); err == nil {
			r.Published = types.FormatPublished(t)
		}
	case paper.Year > 0:
		r.Published = types.FormatPublished(time.Date(paper.Year, 1, 1, 0, 0, 0, 0, time.UTC))
	}

	switch {
	case paper.OpenAccessPDF != nil && paper.OpenAccessPDF.URL != "":
		r.PDFURL = paper.OpenAccessPDF.URL
	case paper.ExternalIDs.ArXiv != "":
		r.PDFURL = "https://arxiv.org/pdf/" + paper.ExternalIDs.ArXiv
	default:
		r.PDFURL = paper.URL
	}
	if r.PDFURL == "" {
		return types.PaperRecord{}, false
	}
	return r, true
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	URL             string              `json:"url"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF   *semanticPDF        `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}
