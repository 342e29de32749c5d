package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one JSONL log line in Claude Code format.
type Entry struct {
	Timestamp string   `json:"timestamp,omitempty"`
	Type      string   `json:"type,omitempty"`
	Uuid      string   `json:"uuid,omitempty"`
	SessionId string   `json:"sessionId,omitempty"`
	Message   *Message `json:"message,omitempty"`
	CostUSD   *float64 `json:"costUSD,omitempty"`
}

type Message struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Model   string `json:"model,omitempty"`
	Usage   *Usage `json:"usage,omitempty"`
}

type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// Generator writes JSONL fixture trees laid out like a real log root:
// baseDir/<project>/<conversation>.jsonl.
type Generator struct {
	baseDir string
}

// NewGenerator creates a generator rooted at baseDir.
func NewGenerator(baseDir string) *Generator {
	return &Generator{baseDir: baseDir}
}

// AssistantEntry builds a billable assistant message.
func AssistantEntry(model string, input, output int64, ts time.Time) Entry {
	return Entry{
		Timestamp: ts.UTC().Format(time.RFC3339),
		Type:      "assistant",
		Message: &Message{
			Role:  "assistant",
			Model: model,
			Usage: &Usage{InputTokens: input, OutputTokens: output},
		},
	}
}

// UserEntry builds a zero-cost user message.
func UserEntry(ts time.Time) Entry {
	return Entry{
		Timestamp: ts.UTC().Format(time.RFC3339),
		Type:      "user",
		Message:   &Message{Role: "user", Content: "test message"},
	}
}

// WriteConversation marshals the entries into one conversation file,
// creating the project directory as needed.
func (g *Generator) WriteConversation(project, conversation string, entries []Entry) (string, error) {
	projectDir := filepath.Join(g.baseDir, project)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return "", err
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}

	path := filepath.Join(projectDir, conversation+".jsonl")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRaw writes pre-built JSONL content verbatim, for malformed-line and
// partial-line fixtures.
func (g *Generator) WriteRaw(project, conversation, content string) (string, error) {
	projectDir := filepath.Join(g.baseDir, project)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(projectDir, conversation+".jsonl")
	return path, os.WriteFile(path, []byte(content), 0o644)
}
