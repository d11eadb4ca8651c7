// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/survey-engine/internal/agent"
	"github.com/pdiddy/survey-engine/internal/llm"
	"github.com/pdiddy/survey-engine/internal/search"
	"github.com/pdiddy/survey-engine/internal/team"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// fakeSearcher returns generated papers and records the cap it was asked for.
type fakeSearcher struct {
	available int
	err       error
	gotQuery  string
	gotMax    []int
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(_ context.Context, query string, maxResults int) ([]types.PaperRecord, error) {
	f.gotQuery = query
	f.gotMax = append(f.gotMax, maxResults)
	if f.err != nil {
		return nil, f.err
	}
	n := min(f.available, maxResults)
	out := make([]types.PaperRecord, 0, n)
	for i := range n {
		out = append(out, types.PaperRecord{
			Title:     fmt.Sprintf("Paper %d", i+1),
			Authors:   []string{"A. Author"},
			Published: "24-03-0" + strconv.Itoa(i%9+1),
			Summary:   "An abstract.",
			PDFURL:    fmt.Sprintf("http://arxiv.org/pdf/2403.%05dv1", i+1),
		})
	}
	return out, nil
}

var exactlyPattern = regexp.MustCompile(`exactly (\d+) papers`)

// compliantModel follows both agents' instructions to the letter: the
// search agent over-fetches five times, keeps the first n papers and
// forwards them as JSON; the summarizer writes one bullet per paper.
type compliantModel struct {
	calls int
	info  types.ModelInfo
}

func (m *compliantModel) Info() types.ModelInfo { return m.info }

func (m *compliantModel) Chat(_ context.Context, req llm.Request) (llm.Response, error) {
	m.calls++
	system := req.Messages[0].Content
	last := req.Messages[len(req.Messages)-1]

	if system == searchAgentPrompt {
		n := requestedPapers(req.Messages)
		if last.Role == llm.RoleTool {
			var found []types.PaperRecord
			if err := json.Unmarshal([]byte(last.Content), &found); err != nil {
				return llm.Response{}, err
			}
			found = found[:min(n, len(found))]
			data, _ := json.Marshal(found)
			return textResponse("```json\n" + string(data) + "\n```"), nil
		}
		args := fmt.Sprintf(`{"query":"quantum error correction","max_results":%d}`, 5*n)
		return llm.Response{Message: llm.Message{
			Role:      llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{ID: "call_" + strconv.Itoa(m.calls), Name: search.ToolName, Arguments: json.RawMessage(args)}},
		}}, nil
	}

	papers, _ := ParsePayload(lastFrom(req.Messages, SearchAgentName))
	var b strings.Builder
	b.WriteString("Quantum error correction protects fragile qubits. It is central to fault tolerance.\n\n")
	for _, p := range papers {
		fmt.Fprintf(&b, "- [%s](%s) by %s: tackles noise; contributes a decoder.\n", p.Title, p.PDFURL, strings.Join(p.Authors, ", "))
	}
	b.WriteString("\nTakeaway: decoders are getting faster.\n")
	return textResponse(b.String()), nil
}

func requestedPapers(msgs []llm.Message) int {
	for _, m := range msgs {
		if m.Name == agent.TaskSource {
			if sub := exactlyPattern.FindStringSubmatch(m.Content); sub != nil {
				n, _ := strconv.Atoi(sub[1])
				return n
			}
		}
	}
	return 0
}

func lastFrom(msgs []llm.Message, name string) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Name == name {
			return msgs[i].Content
		}
	}
	return ""
}

func textResponse(s string) llm.Response {
	return llm.Response{Message: llm.Message{Role: llm.RoleAssistant, Content: s}, FinishReason: "stop"}
}

func newModel() *compliantModel {
	return &compliantModel{info: types.ModelInfo{FunctionCalling: true}}
}

func collectLines(t *testing.T, seq func(func(string, error) bool)) ([]string, error) {
	t.Helper()
	var lines []string
	for line, err := range seq {
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func TestTaskPrompt(t *testing.T) {
	assert.Equal(t,
		"conduct a literature review on **quantum error correction** and return exactly 3 papers",
		TaskPrompt("quantum error correction", 3))
}

func TestNewTeamShape(t *testing.T) {
	g, err := NewTeamWithClient(types.DefaultSurveyConfig().Team, newModel(), &fakeSearcher{}, nil)
	require.NoError(t, err)

	parts := g.Participants()
	require.Len(t, parts, 2)
	assert.Equal(t, SearchAgentName, parts[0].Name())
	assert.Equal(t, SummarizerAgentName, parts[1].Name())
	assert.Equal(t, types.DefaultMaxTurns, g.MaxTurns())

	searchAgent, ok := parts[0].(*agent.Assistant)
	require.True(t, ok)
	require.Len(t, searchAgent.Tools(), 1)
	assert.Equal(t, search.ToolName, searchAgent.Tools()[0].Declaration().Name)
	assert.True(t, searchAgent.ReflectsOnToolUse())
	assert.Contains(t, searchAgent.SystemMessage(), "five-times")

	summarizer, ok := parts[1].(*agent.Assistant)
	require.True(t, ok)
	assert.Empty(t, summarizer.Tools())
	assert.Contains(t, summarizer.SystemMessage(), "one bullet per paper")
}

func TestNewTeamRequiresDependencies(t *testing.T) {
	cfg := types.DefaultSurveyConfig().Team
	_, err := NewTeamWithClient(cfg, nil, &fakeSearcher{}, nil)
	assert.Error(t, err)
	_, err = NewTeamWithClient(cfg, newModel(), nil, nil)
	assert.Error(t, err)
}

func TestStreamEndToEnd(t *testing.T) {
	searcher := &fakeSearcher{available: 40}
	req := types.SurveyRequest{Topic: "quantum error correction", Papers: 3}

	lines, err := collectLines(t, Stream(context.Background(), req,
		WithModelClient(newModel()),
		WithSearcher(searcher),
	))
	require.NoError(t, err)

	require.Equal(t, []int{15}, searcher.gotMax, "search is called once with a 5x over-fetch")
	assert.Equal(t, "quantum error correction", searcher.gotQuery)

	require.Len(t, lines, 2)
	first := ParseLine(lines[0])
	second := ParseLine(lines[1])
	assert.Equal(t, SearchAgentName, first.Source)
	assert.Equal(t, SummarizerAgentName, second.Source)

	require.NoError(t, CheckPayload(first.Content, 3))
	assert.Equal(t, 3, CountReportBullets(second.Content))
	assert.True(t, strings.HasPrefix(second.Content, "Quantum error correction"))
	assert.Contains(t, second.Content, "Takeaway:")
}

func TestStreamZeroResults(t *testing.T) {
	req := types.SurveyRequest{Topic: "nothing matches this", Papers: 3}

	lines, err := collectLines(t, Stream(context.Background(), req,
		WithModelClient(newModel()),
		WithSearcher(&fakeSearcher{}),
	))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	payload := ParseLine(lines[0]).Content
	records, err := ParsePayload(payload)
	require.NoError(t, err)
	assert.Empty(t, records)

	report := ParseLine(lines[1]).Content
	assert.Zero(t, CountReportBullets(report))
	assert.Contains(t, report, "Takeaway:")
}

func TestStreamRespectsTurnCap(t *testing.T) {
	cfg := types.DefaultSurveyConfig()
	cfg.Team.StopOnReport = false

	lines, err := collectLines(t, Stream(context.Background(),
		types.SurveyRequest{Topic: "graphs", Papers: 2},
		WithConfig(cfg),
		WithModelClient(newModel()),
		WithSearcher(&fakeSearcher{available: 10}),
	))
	require.NoError(t, err)
	assert.Len(t, lines, types.DefaultMaxTurns)

	for i, line := range lines {
		name, _, ok := strings.Cut(line, ":")
		require.True(t, ok, "line %d has no separator", i)
		want := SearchAgentName
		if i%2 == 1 {
			want = SummarizerAgentName
		}
		assert.Equal(t, want, name, "line %d", i)
	}
}

func TestStreamDefaultsPaperCount(t *testing.T) {
	searcher := &fakeSearcher{available: 50}
	_, err := collectLines(t, Stream(context.Background(),
		types.SurveyRequest{Topic: "graphs"},
		WithModelClient(newModel()),
		WithSearcher(searcher),
	))
	require.NoError(t, err)
	assert.Equal(t, []int{types.DefaultPapers * types.DefaultOverFetch}, searcher.gotMax)
}

func TestStreamAcceptsLargePaperCount(t *testing.T) {
	searcher := &fakeSearcher{available: 100}
	req := types.SurveyRequest{Topic: "quantum error correction", Papers: 12}

	lines, err := collectLines(t, Stream(context.Background(), req,
		WithModelClient(newModel()),
		WithSearcher(searcher),
	))
	require.NoError(t, err)
	assert.Equal(t, []int{60}, searcher.gotMax)
	require.Len(t, lines, 2)
	require.NoError(t, CheckPayload(ParseLine(lines[0]).Content, 12))
}

func TestStreamRejectsInvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  types.SurveyRequest
	}{
		{name: "empty topic", req: types.SurveyRequest{Papers: 3}},
		{name: "negative papers", req: types.SurveyRequest{Topic: "graphs", Papers: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newModel()
			lines, err := collectLines(t, Stream(context.Background(), tt.req, WithModelClient(model), WithSearcher(&fakeSearcher{})))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid survey request")
			assert.Empty(t, lines)
			assert.Zero(t, model.calls)
		})
	}
}

func TestStreamMissingAPIKey(t *testing.T) {
	cfg := types.DefaultSurveyConfig()
	cfg.Team.Model.BaseURL = "http://127.0.0.1:0"
	cfg.Team.Model.APIKey = func() (string, error) { return "", nil }

	lines, err := collectLines(t, Stream(context.Background(),
		types.SurveyRequest{Topic: "graphs", Papers: 1},
		WithConfig(cfg),
		WithSearcher(&fakeSearcher{}),
	))
	require.ErrorIs(t, err, llm.ErrMissingAPIKey)
	assert.Empty(t, lines)
}

func TestStreamSearchFailureEndsRun(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("arXiv unavailable")}
	lines, err := collectLines(t, Stream(context.Background(),
		types.SurveyRequest{Topic: "graphs", Papers: 1},
		WithModelClient(newModel()),
		WithSearcher(searcher),
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arXiv unavailable")
	assert.Empty(t, lines)
}

func TestStreamIsSingleUse(t *testing.T) {
	stream := Stream(context.Background(),
		types.SurveyRequest{Topic: "graphs", Papers: 1},
		WithModelClient(newModel()),
		WithSearcher(&fakeSearcher{available: 5}),
	)
	_, err := collectLines(t, stream)
	require.NoError(t, err)

	_, err = collectLines(t, stream)
	assert.ErrorIs(t, err, team.ErrStreamConsumed)
}

func TestStreamStrictChecksOnlyWarn(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	model := &miscountingModel{compliantModel: newModel()}

	lines, err := collectLines(t, Stream(context.Background(),
		types.SurveyRequest{Topic: "graphs", Papers: 3},
		WithModelClient(model),
		WithSearcher(&fakeSearcher{available: 20}),
		WithLogger(zap.New(core)),
		WithStrictChecks(true),
	))
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	assert.Equal(t, 1, logs.FilterMessage("search payload check failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("report bullet count mismatch").Len())
}

// miscountingModel forwards one paper too many.
type miscountingModel struct {
	*compliantModel
}

func (m *miscountingModel) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	req.Messages = bumpRequested(req.Messages)
	return m.compliantModel.Chat(ctx, req)
}

func bumpRequested(msgs []llm.Message) []llm.Message {
	out := append([]llm.Message(nil), msgs...)
	for i, m := range out {
		if m.Name != agent.TaskSource {
			continue
		}
		out[i].Content = exactlyPattern.ReplaceAllStringFunc(m.Content, func(s string) string {
			n, _ := strconv.Atoi(exactlyPattern.FindStringSubmatch(s)[1])
			return fmt.Sprintf("exactly %d papers", n+1)
		})
	}
	return out
}
