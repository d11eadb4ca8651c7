// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package team runs a group of agents that take turns in a fixed order over
// a shared conversation.
package team

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/agent"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// ErrStreamConsumed is yielded when a run stream is iterated a second time.
var ErrStreamConsumed = errors.New("team: stream already consumed")

// Participant is one member of a team.
type Participant interface {
	Name() string
	Respond(ctx context.Context, thread []types.Turn, emit func(agent.Event)) (types.Turn, error)
}

// RoundRobin cycles through its participants in order. Every participant
// sees every turn that came before its own.
type RoundRobin struct {
	participants []Participant
	maxTurns     int
	termination  Termination
	logger       *zap.Logger
}

// Option configures a RoundRobin.
type Option func(*RoundRobin)

// WithMaxTurns caps the number of agent turns in a run, summed over all
// participants. Values below 1 keep the default.
func WithMaxTurns(n int) Option {
	return func(g *RoundRobin) {
		if n > 0 {
			g.maxTurns = n
		}
	}
}

// WithTermination adds an early stop condition checked after every turn.
func WithTermination(t Termination) Option {
	return func(g *RoundRobin) { g.termination = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *RoundRobin) { g.logger = l }
}

// NewRoundRobin builds a team. Participant names must be unique and non-empty.
func NewRoundRobin(participants []Participant, opts ...Option) (*RoundRobin, error) {
	if len(participants) == 0 {
		return nil, errors.New("team: no participants")
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		name := p.Name()
		if name == "" {
			return nil, errors.New("team: participant without a name")
		}
		if seen[name] {
			return nil, fmt.Errorf("team: duplicate participant %q", name)
		}
		seen[name] = true
	}

	g := &RoundRobin{
		participants: participants,
		maxTurns:     types.DefaultMaxTurns,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Participants returns the members in speaking order.
func (g *RoundRobin) Participants() []Participant { return g.participants }

// MaxTurns returns the turn cap.
func (g *RoundRobin) MaxTurns() int { return g.maxTurns }

// RunStream starts a run on task and returns its events as a lazy sequence.
// Nothing happens until the sequence is iterated, and it can be iterated
// only once. The first event is the TaskMessage. A failure is yielded as the
// last element. Breaking out of the loop cancels the turn in progress.
func (g *RoundRobin) RunStream(ctx context.Context, task string) iter.Seq2[agent.Event, error] {
	var started atomic.Bool
	return func(yield func(agent.Event, error) bool) {
		if started.Swap(true) {
			yield(nil, ErrStreamConsumed)
			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		emit := func(ev agent.Event) {
			if stopped {
				return
			}
			if !yield(ev, nil) {
				stopped = true
				cancel()
			}
		}

		thread := []types.Turn{{Source: agent.TaskSource, Content: task}}
		emit(agent.TaskMessage{Content: task})
		if stopped {
			return
		}

		for turn := 0; turn < g.maxTurns; turn++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			p := g.participants[turn%len(g.participants)]
			g.logger.Debug("turn started", zap.Int("turn", turn+1), zap.String("agent", p.Name()))

			msg, err := p.Respond(runCtx, thread, emit)
			if stopped {
				return
			}
			if err != nil {
				g.logger.Debug("turn failed", zap.Int("turn", turn+1), zap.String("agent", p.Name()), zap.Error(err))
				yield(nil, fmt.Errorf("%s: %w", p.Name(), err))
				return
			}
			thread = append(thread, msg)

			if g.termination != nil && g.termination(msg) {
				g.logger.Debug("run terminated", zap.Int("turns", turn+1), zap.String("agent", p.Name()))
				return
			}
		}
		g.logger.Debug("turn limit reached", zap.Int("max_turns", g.maxTurns))
	}
}
