package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccmeter/ccmeter/internal/core/model"
	"github.com/ccmeter/ccmeter/internal/core/pricing"
)

func newTestParser() *Parser {
	return New(pricing.CostFunc(), zerolog.Nop())
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conv1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFileValidLines(t *testing.T) {
	content := `{"type":"user","timestamp":"2025-06-01T10:00:00Z","message":{"role":"user"}}
{"type":"assistant","timestamp":"2025-06-01T10:00:05Z","message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":50}}}
`
	p := newTestParser()
	res, err := p.ParseFile(writeFile(t, content), "projA")

	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Messages)
	assert.Equal(t, int64(0), res.Warnings)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, int64(len(content)), res.Consumed)

	assert.False(t, res.Records[0].Billable())
	require.True(t, res.Records[1].Billable())
	assert.Equal(t, "claude-sonnet-4-5", res.Records[1].Model)
	assert.Equal(t, "projA", res.Records[1].Project)
	assert.Equal(t, "conv1", res.Records[1].Conversation)
	assert.Equal(t, model.MicroUSD(100*3+50*15), res.Records[1].Cost)
}

func TestParseFileMalformedLinesSkipped(t *testing.T) {
	content := `{"message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":1}}}
not json at all
{"message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":2}}}
{broken
`
	p := newTestParser()
	res, err := p.ParseFile(writeFile(t, content), "p")

	require.NoError(t, err, "malformed lines must not abort the file")
	assert.Equal(t, int64(2), res.Messages)
	assert.Equal(t, int64(2), res.Warnings)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, int64(len(content)), res.Consumed, "malformed lines still advance the offset")
}

func TestParseFileBlankLines(t *testing.T) {
	content := "\n\n{\"message\":{\"model\":\"claude-sonnet-4-5\",\"usage\":{\"input_tokens\":1}}}\n\n"
	p := newTestParser()
	res, err := p.ParseFile(writeFile(t, content), "p")

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Messages)
	assert.Equal(t, int64(0), res.Warnings, "blank lines are not warnings")
}

func TestParseFileEmpty(t *testing.T) {
	p := newTestParser()
	res, err := p.ParseFile(writeFile(t, ""), "p")

	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, int64(0), res.Messages)
	assert.Equal(t, int64(0), res.Consumed)
}

func TestParseFileMissing(t *testing.T) {
	p := newTestParser()
	res, err := p.ParseFile("/nonexistent/conv.jsonl", "p")

	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestParseFileTrailingLineWithoutNewline(t *testing.T) {
	// A full scan assumes the file is fully written, so the unterminated
	// trailing line is parsed.
	content := `{"message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":1}}}`
	p := newTestParser()
	res, err := p.ParseFile(writeFile(t, content), "p")

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Messages)
	assert.Equal(t, int64(len(content)), res.Consumed)
}

func TestParseRangeHoldsPartialLine(t *testing.T) {
	complete := `{"message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":1}}}` + "\n"
	partial := `{"message":{"model":"claude-son`

	p := newTestParser()
	res, err := p.ParseRange(strings.NewReader(complete+partial), "p", "c", true)

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Messages)
	assert.Equal(t, int64(0), res.Warnings, "a held-back partial line is not a warning")
	assert.Equal(t, int64(len(complete)), res.Consumed, "offset stops at the last newline")
}

func TestParseRangeResumesAfterHold(t *testing.T) {
	first := `{"message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":1}}}` + "\n"
	secondHalfA := `{"message":{"model":"claude-haiku-4-5",`
	secondHalfB := `"usage":{"input_tokens":2}}}` + "\n"

	p := newTestParser()

	res1, err := p.ParseRange(strings.NewReader(first+secondHalfA), "p", "c", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res1.Messages)

	// Resume exactly where the first pass left off, as the tailer does.
	rest := (first + secondHalfA + secondHalfB)[res1.Consumed:]
	res2, err := p.ParseRange(strings.NewReader(rest), "p", "c", true)
	require.NoError(t, err)
	require.Equal(t, int64(1), res2.Messages)
	assert.Equal(t, "claude-haiku-4-5", res2.Records[0].Model)
	assert.Equal(t, int64(len(secondHalfA)+len(secondHalfB)), res2.Consumed)
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "00aec530-ab12", ConversationID("/data/projA/00aec530-ab12.jsonl"))
	assert.Equal(t, "conv", ConversationID("conv.jsonl"))
	assert.Equal(t, "noext", ConversationID("/x/noext"))
}
