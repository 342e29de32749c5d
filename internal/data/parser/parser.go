package parser

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/ccmeter/ccmeter/internal/core/model"
)

// Parser decodes JSONL conversation logs into usage records. A malformed
// line never aborts the file: it is counted as a warning and parsing
// continues with the next line.
type Parser struct {
	cost model.CostFunc
	log  zerolog.Logger
}

// Result is the outcome of parsing one file or byte range.
type Result struct {
	Records  []model.UsageRecord
	Messages int64
	Warnings int64

	// Consumed is the number of bytes read through the last line this parse
	// accepted. When a trailing partial line is held back, Consumed stops at
	// the final newline, so it is always a valid resume offset.
	Consumed int64
}

// New creates a Parser. The cost function prices records whose lines carry
// no explicit cost field.
func New(cost model.CostFunc, log zerolog.Logger) *Parser {
	return &Parser{cost: cost, log: log}
}

// ParseFile parses a whole log file. The conversation id is derived from the
// file name. A trailing line without a newline is still parsed: on a full
// scan the file is assumed fully written.
func (p *Parser) ParseFile(path, project string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return p.ParseRange(file, project, ConversationID(path), false)
}

// ParseRange decodes JSONL from r, which must start at a line boundary.
// With holdPartial set, a trailing line that does not end in a newline is
// left unconsumed so the caller can retry once more bytes arrive; the tailer
// relies on this to stay line-aligned across passes.
func (p *Parser) ParseRange(r io.Reader, project, conversation string, holdPartial bool) (*Result, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	res := &Result{}
	lineNo := 0

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}

		complete := err == nil
		if !complete && holdPartial {
			break
		}

		if len(line) > 0 {
			lineNo++
			res.Consumed += int64(len(line))
			p.parseLine(line, project, conversation, lineNo, res)
		}

		if !complete {
			break
		}
	}

	return res, nil
}

func (p *Parser) parseLine(line []byte, project, conversation string, lineNo int, res *Result) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}

	var entry model.LogLine
	if err := sonic.Unmarshal(trimmed, &entry); err != nil {
		res.Warnings++
		p.log.Debug().
			Str("conversation", conversation).
			Int("line", lineNo).
			Err(err).
			Msg("skipping malformed line")
		return
	}

	res.Messages++
	res.Records = append(res.Records, entry.Record(project, conversation, p.cost))
}

// ConversationID derives the conversation id from a log file path:
// "/path/to/00aec530-....jsonl" -> "00aec530-...".
func ConversationID(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
