// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PublishedLayout is the time layout of PaperRecord.Published (two-digit
// year, month, day).
const PublishedLayout = "06-01-02"

// PaperRecord is one paper as returned by the search capability. Records are
// passed to agents as tool output, so the JSON field names are part of the
// tool contract.
type PaperRecord struct {
	// Title is the paper title as returned by the index.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order. It may be empty.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the publication date formatted with PublishedLayout.
	Published string `json:"published" yaml:"published"`

	// Summary is the paper abstract.
	Summary string `json:"summary" yaml:"summary"`

	// PDFURL links to the paper PDF.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`
}

// FormatPublished renders t with PublishedLayout. A zero time renders as "".
func FormatPublished(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(PublishedLayout)
}
