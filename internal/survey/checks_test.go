package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	content := "Here are the picks:\n```json\n" +
		`[{"title":"A","authors":["X"],"published":"24-01-02","summary":"s","pdf_url":"http://arxiv.org/pdf/1"}]` +
		"\n```"
	records, err := ParsePayload(content)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Title)
	assert.Equal(t, "http://arxiv.org/pdf/1", records[0].PDFURL)
}

func TestParsePayloadErrors(t *testing.T) {
	_, err := ParsePayload("no list here")
	assert.ErrorIs(t, err, ErrNoPayload)

	_, err = ParsePayload("[not json]")
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestCheckPayload(t *testing.T) {
	two := `[{"title":"A","pdf_url":"u1"},{"title":"B","pdf_url":"u2"}]`
	assert.NoError(t, CheckPayload(two, 2))
	assert.Error(t, CheckPayload(two, 3))
	assert.Error(t, CheckPayload(`[{"title":"","pdf_url":"u"}]`, 1))
	assert.NoError(t, CheckPayload(`[]`, 0))
}

func TestCountReportBullets(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want int
	}{
		{
			name: "intro bullets takeaway",
			md:   "Intro sentence. Another.\n\n- [A](http://a) one\n- [B](http://b) two\n- [C](http://c) three\n\nTakeaway.\n",
			want: 3,
		},
		{
			name: "nested items are not counted",
			md:   "- one\n  - detail\n  - detail\n- two\n",
			want: 2,
		},
		{
			name: "numbered list",
			md:   "1. a\n2. b\n",
			want: 2,
		},
		{
			name: "no list",
			md:   "Just an introduction.\n\nAnd a takeaway.",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountReportBullets(tt.md))
		})
	}
}
