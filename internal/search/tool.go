// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"

	"github.com/pdiddy/survey-engine/internal/tool"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// ToolName is the name the search agent uses to call the search tool.
const ToolName = "arxiv_search"

// ToolDescription tells the model what the search tool does and returns.
const ToolDescription = "Searches arXiv and returns up to max_results papers, each containing " +
	"title, authors, publication date, abstract, and pdf_url."

// ToolInput is the argument shape of the search tool.
type ToolInput struct {
	Query      string `json:"query" jsonschema_description:"Free-text search query for the scholarly index"`
	MaxResults *int   `json:"max_results,omitempty" jsonschema:"minimum=0,default=5" jsonschema_description:"Maximum number of papers to return (default 5)"`
}

// NewTool wraps s as the tool handed to the search agent. When the model
// omits max_results the cap is defaultMax (types.DefaultSearchResults if <= 0).
func NewTool(s Searcher, defaultMax int) tool.Tool {
	if defaultMax <= 0 {
		defaultMax = types.DefaultSearchResults
	}
	return tool.NewFunctionTool(
		func(ctx context.Context, in ToolInput) ([]types.PaperRecord, error) {
			n := defaultMax
			if in.MaxResults != nil {
				n = *in.MaxResults
			}
			records, err := s.Search(ctx, in.Query, n)
			if err != nil {
				return nil, err
			}
			if records == nil {
				records = []types.PaperRecord{}
			}
			return records, nil
		},
		tool.WithName(ToolName),
		tool.WithDescription(ToolDescription),
	)
}
