package transcript

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/survey-engine/pkg/types"
)

func turns(items ...any) func(func(types.Turn, error) bool) {
	return func(yield func(types.Turn, error) bool) {
		for _, it := range items {
			switch v := it.(type) {
			case types.Turn:
				if !yield(v, nil) {
					return
				}
			case error:
				yield(types.Turn{}, v)
				return
			}
		}
	}
}

func TestTeeRecordsTurns(t *testing.T) {
	tr := New(types.SurveyRequest{Topic: "graphs", Papers: 2})
	a := types.Turn{Source: "Search_agent", Content: "[]"}
	b := types.Turn{Source: "summarizer_agent", Content: "# Report\n\n- one"}

	var seen []types.Turn
	for turn, err := range tr.Tee(turns(a, b)) {
		require.NoError(t, err)
		seen = append(seen, turn)
	}

	assert.Equal(t, []types.Turn{a, b}, seen)
	assert.Equal(t, []types.Turn{a, b}, tr.Turns)
	assert.Equal(t, 2, tr.Summary.Turns)
	assert.False(t, tr.Summary.Finished.IsZero())
	assert.Empty(t, tr.Summary.Error)
}

func TestTeeRecordsFailure(t *testing.T) {
	tr := New(types.SurveyRequest{Topic: "graphs", Papers: 2})
	a := types.Turn{Source: "Search_agent", Content: "[]"}

	var gotErr error
	for _, err := range tr.Tee(turns(a, errors.New("model unavailable"))) {
		if err != nil {
			gotErr = err
		}
	}
	require.Error(t, gotErr)
	assert.Equal(t, 1, tr.Summary.Turns)
	assert.Equal(t, "model unavailable", tr.Summary.Error)
}

func TestTeeEarlyStopFinishes(t *testing.T) {
	tr := New(types.SurveyRequest{Topic: "graphs", Papers: 2})
	for range tr.Tee(turns(types.Turn{Source: "a"}, types.Turn{Source: "b"})) {
		break
	}
	assert.Len(t, tr.Turns, 1)
	assert.False(t, tr.Summary.Finished.IsZero())
}

func TestWriteAndReadFile(t *testing.T) {
	tr := New(types.SurveyRequest{Topic: "quantum error correction", Papers: 3})
	tr.ID = "run-1"
	tr.Add(types.Turn{Source: "summarizer_agent", Content: "Intro.\n\n- [A](http://a)\n\nTakeaway."})
	tr.Finish(nil)

	var buf bytes.Buffer
	require.NoError(t, tr.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "topic: quantum error correction")
	assert.Contains(t, out, "source: summarizer_agent")
	assert.NotContains(t, out, "error:")

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, tr.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, tr.Request, got.Request)
	assert.Equal(t, tr.Turns, got.Turns)
	assert.True(t, tr.Summary.Started.Equal(got.Summary.Started))
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
