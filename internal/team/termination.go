package team

import (
	"slices"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Termination decides, after each completed turn, whether the run is over.
// The turn cap is enforced by the team itself and is not a Termination.
type Termination func(last types.Turn) bool

// TextMention stops once a turn's content contains s.
func TextMention(s string) Termination {
	return func(last types.Turn) bool {
		return strings.Contains(last.Content, s)
	}
}

// SourceMatch stops once one of the named participants has taken a turn.
func SourceMatch(names ...string) Termination {
	return func(last types.Turn) bool {
		return slices.Contains(names, last.Source)
	}
}

// Any stops when any of the given conditions does. Nil conditions are ignored.
func Any(conds ...Termination) Termination {
	return func(last types.Turn) bool {
		for _, c := range conds {
			if c != nil && c(last) {
				return true
			}
		}
		return false
	}
}
