package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// ErrNoPayload means a message holds no JSON list of papers.
var ErrNoPayload = errors.New("no paper list in message")

// ParsePayload extracts the JSON list of papers the search agent forwards.
// Models often wrap the list in prose or a code fence, so the outermost
// bracketed span is decoded.
func ParsePayload(content string) ([]types.PaperRecord, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, ErrNoPayload
	}
	var records []types.PaperRecord
	if err := json.Unmarshal([]byte(content[start:end+1]), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPayload, err)
	}
	return records, nil
}

// CheckPayload verifies that content carries exactly want papers, each with
// a title and a link.
func CheckPayload(content string, want int) error {
	records, err := ParsePayload(content)
	if err != nil {
		return err
	}
	if len(records) != want {
		return fmt.Errorf("payload has %d papers, want %d", len(records), want)
	}
	for i, r := range records {
		if r.Title == "" || r.PDFURL == "" {
			return fmt.Errorf("payload paper %d is missing title or pdf_url", i+1)
		}
	}
	return nil
}

// CountReportBullets counts the items of the top-level lists in a Markdown
// report. Nested lists are not counted.
func CountReportBullets(markdown string) int {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	n := 0
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if list, ok := c.(*ast.List); ok {
			n += list.ChildCount()
		}
	}
	return n
}
