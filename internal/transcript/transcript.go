// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript records the relayed turns of a survey run and writes
// them as YAML.
package transcript

import (
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Transcript is the record of one run.
type Transcript struct {
	ID      string              `json:"id,omitempty" yaml:"id,omitempty"`
	Request types.SurveyRequest `json:"request" yaml:"request"`
	Turns   []types.Turn        `json:"turns" yaml:"turns"`
	Summary types.RunSummary    `json:"summary" yaml:"summary"`
}

// New starts a transcript for req.
func New(req types.SurveyRequest) *Transcript {
	return &Transcript{
		Request: req,
		Turns:   []types.Turn{},
		Summary: types.RunSummary{Started: time.Now().UTC()},
	}
}

// Add appends a turn.
func (t *Transcript) Add(turn types.Turn) {
	t.Turns = append(t.Turns, turn)
	t.Summary.Turns = len(t.Turns)
}

// Finish stamps the end time and the failure, if any.
func (t *Transcript) Finish(err error) {
	t.Summary.Finished = time.Now().UTC()
	if err != nil {
		t.Summary.Error = err.Error()
	}
}

// Tee records every turn of seq while passing it through unchanged. The
// transcript is finished when seq ends, including when the consumer stops early.
func (t *Transcript) Tee(seq iter.Seq2[types.Turn, error]) iter.Seq2[types.Turn, error] {
	return func(yield func(types.Turn, error) bool) {
		var runErr error
		defer func() { t.Finish(runErr) }()
		for turn, err := range seq {
			if err != nil {
				runErr = err
				yield(turn, err)
				return
			}
			t.Add(turn)
			if !yield(turn, nil) {
				return
			}
		}
	}
}

// Write encodes t as YAML.
func (t *Transcript) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	return enc.Close()
}

// WriteFile writes t to path.
func (t *Transcript) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating transcript %s: %w", path, err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads a transcript written by WriteFile.
func ReadFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript %s: %w", path, err)
	}
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing transcript %s: %w", path, err)
	}
	return &t, nil
}
