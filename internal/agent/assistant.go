// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent implements language-model-backed assistants that take one
// turn at a time in a shared conversation.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/llm"
	"github.com/pdiddy/survey-engine/internal/tool"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// ErrUnknownTool is reported back to the model when it calls a tool the
// agent does not hold.
var ErrUnknownTool = errors.New("unknown tool")

// Assistant is an agent with a fixed instruction set and optional tools.
type Assistant struct {
	name          string
	description   string
	systemMessage string
	model         llm.Client
	tools         []tool.Tool
	reflect       bool
	logger        *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithDescription sets a short human-readable description of the agent.
func WithDescription(d string) Option {
	return func(a *Assistant) { a.description = d }
}

// WithSystemMessage sets the agent's instructions.
func WithSystemMessage(s string) Option {
	return func(a *Assistant) { a.systemMessage = s }
}

// WithTools gives the agent tools it may call.
func WithTools(tools ...tool.Tool) Option {
	return func(a *Assistant) { a.tools = append(a.tools, tools...) }
}

// WithReflectOnToolUse makes the agent call the model a second time after
// tools ran, so its reply is text written with the results in view.
func WithReflectOnToolUse(reflect bool) Option {
	return func(a *Assistant) { a.reflect = reflect }
}

// WithLogger sets the logger for per-turn diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// NewAssistant builds an agent named name on top of model.
func NewAssistant(name string, model llm.Client, opts ...Option) *Assistant {
	a := &Assistant{name: name, model: model, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assistant) Name() string { return a.name }
func (a *Assistant) Description() string { return a.description }
func (a *Assistant) SystemMessage() string { return a.systemMessage }
func (a *Assistant) Tools() []tool.Tool { return a.tools }
func (a *Assistant) ReflectsOnToolUse() bool { return a.reflect }

// Respond takes one turn. thread is the conversation so far; emit receives
// the events of this turn in order. The returned turn is what the rest of
// the team sees. Tool failures abort the turn; calls to tools the agent
// does not hold are answered with an error result instead.
func (a *Assistant) Respond(ctx context.Context, thread []types.Turn, emit func(Event)) (types.Turn, error) {
	msgs := a.buildMessages(thread)

	resp, err := a.model.Chat(ctx, llm.Request{Messages: msgs, Tools: a.declarations()})
	if err != nil {
		return types.Turn{}, err
	}

	if len(resp.Message.ToolCalls) == 0 {
		return a.reply(resp.Message.Content, emit), nil
	}

	calls := resp.Message.ToolCalls
	emit(ToolCallRequest{Source: a.name, Calls: calls})

	results, err := a.execute(ctx, calls)
	if err != nil {
		return types.Turn{}, err
	}
	emit(ToolCallExecution{Source: a.name, Results: results})

	if !a.reflect {
		content := summarizeResults(results)
		emit(ToolCallSummary{Source: a.name, Content: content})
		return types.Turn{Source: a.name, Content: content}, nil
	}

	msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: resp.Message.Content, ToolCalls: calls})
	for _, r := range results {
		msgs = append(msgs, llm.Message{Role: llm.RoleTool, ToolCallID: r.CallID, Content: r.Content})
	}

	resp, err = a.model.Chat(ctx, llm.Request{Messages: msgs})
	if err != nil {
		return types.Turn{}, fmt.Errorf("reflecting on tool results: %w", err)
	}
	return a.reply(resp.Message.Content, emit), nil
}

func (a *Assistant) reply(content string, emit func(Event)) types.Turn {
	emit(TextMessage{Source: a.name, Content: content})
	return types.Turn{Source: a.name, Content: content}
}

// buildMessages renders the thread from this agent's point of view: its own
// turns are assistant messages, everyone else's are named user messages.
func (a *Assistant) buildMessages(thread []types.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(thread)+1)
	if a.systemMessage != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: a.systemMessage})
	}
	for _, t := range thread {
		if t.Source == a.name {
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: t.Content})
			continue
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Name: t.Source, Content: t.Content})
	}
	return msgs
}

func (a *Assistant) declarations() []tool.Declaration {
	if len(a.tools) == 0 {
		return nil
	}
	decls := make([]tool.Declaration, 0, len(a.tools))
	for _, t := range a.tools {
		decls = append(decls, t.Declaration())
	}
	return decls
}

// execute runs the calls one after another.
func (a *Assistant) execute(ctx context.Context, calls []llm.ToolCall) ([]ToolResult, error) {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		t, ok := tool.Find(a.tools, call.Name)
		if !ok {
			a.logger.Warn("model called unknown tool", zap.String("agent", a.name), zap.String("tool", call.Name))
			results = append(results, ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: fmt.Sprintf("error: %v: %s", ErrUnknownTool, call.Name),
				IsError: true,
			})
			continue
		}

		out, err := t.Call(ctx, call.Arguments)
		if errors.Is(err, tool.ErrBadArguments) {
			a.logger.Warn("model sent invalid tool arguments",
				zap.String("agent", a.name),
				zap.String("tool", call.Name),
				zap.ByteString("arguments", call.Arguments),
				zap.Error(err),
			)
			results = append(results, ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: "error: " + err.Error(),
				IsError: true,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", call.Name, err)
		}
		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", call.Name, err)
		}
		a.logger.Debug("tool call completed",
			zap.String("agent", a.name),
			zap.String("tool", call.Name),
			zap.ByteString("arguments", call.Arguments),
			zap.Int("result_bytes", len(data)),
		)
		results = append(results, ToolResult{CallID: call.ID, Name: call.Name, Content: string(data)})
	}
	return results, nil
}

func summarizeResults(results []ToolResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return strings.Join(parts, "\n")
}
