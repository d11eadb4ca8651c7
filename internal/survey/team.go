// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package survey

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/agent"
	"github.com/pdiddy/survey-engine/internal/llm"
	"github.com/pdiddy/survey-engine/internal/search"
	"github.com/pdiddy/survey-engine/internal/team"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// Agent names. They prefix every streamed line.
const (
	SearchAgentName     = "Search_agent"
	SummarizerAgentName = "summarizer_agent"
)

const searchAgentDescription = "Crafts arXiv queries and retrieves candidate papers."

const searchAgentPrompt = "Given a user topic, think of the best arXiv query and call the " +
	"provided tool. Always fetch five-times the papers requested so " +
	"that you can down-select the most relevant ones. When the tool " +
	"returns, choose exactly the number of papers requested and pass " +
	"them as concise JSON to the summarizer."

const summarizerAgentDescription = "Produces a short Markdown review from provided papers."

const summarizerAgentPrompt = "You are an expert researcher. When you receive the JSON list of " +
	"papers, write a literature-review style report in Markdown:\n" +
	"1. Start with a 2-3 sentence introduction of the topic.\n" +
	"2. Then include one bullet per paper with: title (as Markdown " +
	"link), authors, the specific problem tackled, and its key " +
	"contribution.\n" +
	"3. Close with a single-sentence takeaway."

// NewTeam builds the two-agent team on a fresh model client. The API key is
// not checked here; a missing key fails the first model call.
func NewTeam(cfg types.TeamConfig, searcher search.Searcher, logger *zap.Logger) (*team.RoundRobin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := llm.NewOpenAIClient(cfg.Model, llm.WithLogger(logger))
	return NewTeamWithClient(cfg, client, searcher, logger)
}

// NewTeamWithClient builds the team on an existing model client, shared by
// both agents. Only the search agent gets the search tool.
func NewTeamWithClient(cfg types.TeamConfig, client llm.Client, searcher search.Searcher, logger *zap.Logger) (*team.RoundRobin, error) {
	if client == nil {
		return nil, fmt.Errorf("building team: no model client")
	}
	if searcher == nil {
		return nil, fmt.Errorf("building team: no searcher")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	searchAgent := agent.NewAssistant(SearchAgentName, client,
		agent.WithDescription(searchAgentDescription),
		agent.WithSystemMessage(searchAgentPrompt),
		agent.WithTools(search.NewTool(searcher, types.DefaultSearchResults)),
		agent.WithReflectOnToolUse(true),
		agent.WithLogger(logger),
	)
	summarizer := agent.NewAssistant(SummarizerAgentName, client,
		agent.WithDescription(summarizerAgentDescription),
		agent.WithSystemMessage(summarizerAgentPrompt),
		agent.WithLogger(logger),
	)

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = types.DefaultMaxTurns
	}
	opts := []team.Option{team.WithMaxTurns(maxTurns), team.WithLogger(logger)}
	if cfg.StopOnReport {
		opts = append(opts, team.WithTermination(team.SourceMatch(SummarizerAgentName)))
	}
	return team.NewRoundRobin([]team.Participant{searchAgent, summarizer}, opts...)
}
