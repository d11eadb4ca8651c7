// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for survey-engine: the paper
// records produced by search backends, the conversation turns relayed to
// hosts, and the configuration of every stage.
package types

import (
	"strings"
	"time"
)

// Turn is one text message emitted by an agent during a survey run.
type Turn struct {
	// Source is the name of the agent that produced the message.
	Source string `json:"source" yaml:"source"`

	// Content is the message text.
	Content string `json:"content" yaml:"content"`
}

// String renders the turn as "<source>:<content>", the line format relayed to hosts.
func (t Turn) String() string {
	return t.Source + ":" + t.Content
}

// ParseTurn splits a relayed line on its first colon. Content is kept
// verbatim; a line without a colon becomes a turn with an empty Content.
func ParseTurn(line string) Turn {
	source, content, _ := strings.Cut(line, ":")
	return Turn{Source: source, Content: content}
}

// SurveyRequest is what a host asks for: a topic and a number of papers.
type SurveyRequest struct {
	// Topic is the free-text research topic.
	Topic string `json:"topic" yaml:"topic" validate:"required"`

	// Papers is the number of papers the report should cover (default 5).
	Papers int `json:"papers" yaml:"papers" validate:"min=1"`

	// Model optionally overrides the configured model identifier.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// RunSummary records how a survey run ended.
type RunSummary struct {
	Turns    int       `json:"turns" yaml:"turns"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
	Error    string    `json:"error,omitempty" yaml:"error,omitempty"`
}
