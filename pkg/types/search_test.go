package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTurnRoundTrip(t *testing.T) {
	for _, turn := range []Turn{
		{Source: "summarizer_agent", Content: "# Review\n\n- one\n- two"},
		{Source: "summarizer_agent", Content: "    indented code block\n"},
		{Source: "summarizer_agent", Content: " leading space: and a colon"},
		{Source: "Search_agent", Content: `[{"title":"A: B"}]`},
		{Source: "Search_agent", Content: ""},
	} {
		assert.Equal(t, turn, ParseTurn(turn.String()))
	}
}

func TestParseTurnWithoutColon(t *testing.T) {
	assert.Equal(t, Turn{Source: "no colon here"}, ParseTurn("no colon here"))
}
