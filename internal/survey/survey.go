// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package survey runs a literature survey: a search agent finds and
// down-selects papers, a summarizer agent writes a Markdown report, and the
// conversation is streamed back one agent message at a time.
package survey

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/agent"
	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/internal/llm"
	"github.com/pdiddy/survey-engine/internal/search"
	"github.com/pdiddy/survey-engine/internal/team"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type settings struct {
	cfg      types.SurveyConfig
	logger   *zap.Logger
	client   llm.Client
	searcher search.Searcher
	strict   bool
}

// Option configures a survey run.
type Option func(*settings)

// WithConfig replaces the default configuration.
func WithConfig(cfg types.SurveyConfig) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithLogger sets the logger handed to the team and model client.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithModelClient runs the team on c instead of a client built from the config.
func WithModelClient(c llm.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithSearcher hands the search agent s instead of the configured backend.
func WithSearcher(sr search.Searcher) Option {
	return func(s *settings) { s.searcher = sr }
}

// WithStrictChecks compares the search agent's payload and the report's
// bullet count against the requested number of papers. Mismatches are
// logged as warnings; the run is never stopped.
func WithStrictChecks(on bool) Option {
	return func(s *settings) { s.strict = on }
}

// TaskPrompt is the task handed to the team.
func TaskPrompt(topic string, papers int) string {
	return fmt.Sprintf("conduct a literature review on **%s** and return exactly %d papers", topic, papers)
}

// NormalizeRequest fills defaults and validates req.
func NormalizeRequest(req types.SurveyRequest) (types.SurveyRequest, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Papers == 0 {
		req.Papers = types.DefaultPapers
	}
	if err := validate.Struct(req); err != nil {
		return req, fmt.Errorf("invalid survey request: %w", err)
	}
	return req, nil
}

// Stream runs a survey and yields one "<agent>:<text>" line per agent text
// message, in the order the agents produced them. Tool activity is not
// streamed. A failure is yielded once, as the last element. The sequence
// can be iterated once; breaking out of it abandons the run.
func Stream(ctx context.Context, req types.SurveyRequest, opts ...Option) iter.Seq2[string, error] {
	turns := Turns(ctx, req, opts...)
	return func(yield func(string, error) bool) {
		for turn, err := range turns {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(turn.String(), nil) {
				return
			}
		}
	}
}

// Turns is Stream without the line encoding.
func Turns(ctx context.Context, req types.SurveyRequest, opts ...Option) iter.Seq2[types.Turn, error] {
	s := &settings{cfg: types.DefaultSurveyConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	var started atomic.Bool
	return func(yield func(types.Turn, error) bool) {
		if started.Swap(true) {
			yield(types.Turn{}, team.ErrStreamConsumed)
			return
		}

		req, err := NormalizeRequest(req)
		if err != nil {
			yield(types.Turn{}, err)
			return
		}

		g, err := s.team(req)
		if err != nil {
			yield(types.Turn{}, err)
			return
		}

		s.logger.Info("survey started",
			zap.String("topic", req.Topic),
			zap.Int("papers", req.Papers),
			zap.Int("max_turns", g.MaxTurns()),
		)

		for ev, err := range g.RunStream(ctx, TaskPrompt(req.Topic, req.Papers)) {
			if err != nil {
				s.logger.Warn("survey failed", zap.String("topic", req.Topic), zap.Error(err))
				yield(types.Turn{}, err)
				return
			}
			msg, ok := ev.(agent.TextMessage)
			if !ok {
				continue
			}
			if s.strict {
				s.check(req, msg)
			}
			if !yield(types.Turn{Source: msg.Source, Content: msg.Content}, nil) {
				return
			}
		}
		s.logger.Info("survey finished", zap.String("topic", req.Topic))
	}
}

// ParseLine splits a streamed line into speaker and content. See types.ParseTurn.
func ParseLine(line string) types.Turn {
	return types.ParseTurn(line)
}

func (s *settings) team(req types.SurveyRequest) (*team.RoundRobin, error) {
	cfg := s.cfg.Team
	if req.Model != "" {
		cfg.Model.Model = req.Model
	}

	searcher := s.searcher
	if searcher == nil {
		var err error
		searcher, err = search.New(s.cfg.Search, httputil.NewClient(s.cfg.Search.HTTPConfig))
		if err != nil {
			return nil, err
		}
	}

	if s.client != nil {
		return NewTeamWithClient(cfg, s.client, searcher, s.logger)
	}
	return NewTeam(cfg, searcher, s.logger)
}

func (s *settings) check(req types.SurveyRequest, msg agent.TextMessage) {
	switch msg.Source {
	case SearchAgentName:
		if err := CheckPayload(msg.Content, req.Papers); err != nil {
			s.logger.Warn("search payload check failed", zap.Int("want", req.Papers), zap.Error(err))
		}
	case SummarizerAgentName:
		if n := CountReportBullets(msg.Content); n != req.Papers {
			s.logger.Warn("report bullet count mismatch", zap.Int("want", req.Papers), zap.Int("got", n))
		}
	}
}
