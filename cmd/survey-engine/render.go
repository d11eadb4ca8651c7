package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/survey-engine/internal/survey"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var (
	searchLabel     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	summarizerLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	otherLabel      = lipgloss.NewStyle().Bold(true)
)

// turnPrinter writes turns either as raw "<agent>:<text>" lines or, with
// rendering on, as a styled speaker label followed by rendered Markdown.
type turnPrinter struct {
	w  io.Writer
	md *glamour.TermRenderer
}

func newTurnPrinter(w io.Writer, render bool) (*turnPrinter, error) {
	p := &turnPrinter{w: w}
	if !render {
		return p, nil
	}
	md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	p.md = md
	return p, nil
}

func (p *turnPrinter) Print(turn types.Turn) error {
	if p.md == nil {
		_, err := fmt.Fprintln(p.w, turn.String())
		return err
	}

	body, err := p.md.Render(turn.Content)
	if err != nil {
		body = turn.Content + "\n"
	}
	_, err = fmt.Fprintf(p.w, "%s\n%s\n", labelStyle(turn.Source).Render(turn.Source), strings.TrimRight(body, "\n"))
	return err
}

func labelStyle(source string) lipgloss.Style {
	switch source {
	case survey.SearchAgentName:
		return searchLabel
	case survey.SummarizerAgentName:
		return summarizerLabel
	default:
		return otherLabel
	}
}
