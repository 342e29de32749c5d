package model

import "time"

// LogLine is the permissive envelope one JSONL line decodes into. The log
// schema drifts between Claude Code versions, so every field is optional and
// defaulting happens in Record, not in the decoder.
type LogLine struct {
	Type      string      `json:"type,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	RequestId string      `json:"requestId,omitempty"`
	SessionId string      `json:"sessionId,omitempty"`
	Message   LineMessage `json:"message,omitempty"`

	// Flat variants written by older log formats.
	Model string     `json:"model,omitempty"`
	Usage *LineUsage `json:"usage,omitempty"`

	// Pre-computed cost, when present, wins over the pricing table.
	CostUSD *float64 `json:"costUSD,omitempty"`
	Cost    *float64 `json:"cost,omitempty"`
}

type LineMessage struct {
	Id    string     `json:"id,omitempty"`
	Model string     `json:"model,omitempty"`
	Role  string     `json:"role,omitempty"`
	Usage *LineUsage `json:"usage,omitempty"`
}

type LineUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// usage returns the usage object, preferring the nested message form over
// the flat legacy form.
func (l *LogLine) usage() *LineUsage {
	if l.Message.Usage != nil {
		return l.Message.Usage
	}
	return l.Usage
}

// model returns the raw model name, preferring the nested message form.
func (l *LogLine) model() string {
	if l.Message.Model != "" {
		return l.Message.Model
	}
	return l.Model
}

// explicitCost returns the per-line cost field if the line carried one.
func (l *LogLine) explicitCost() *float64 {
	if l.CostUSD != nil {
		return l.CostUSD
	}
	return l.Cost
}

// Record projects the envelope into a UsageRecord, applying defaulting rules
// for every field. Lines without usage information become zero-cost messages
// with an empty Model. The cost function is consulted only when the line has
// usage but no explicit cost field.
func (l *LogLine) Record(project, conversation string, cost CostFunc) UsageRecord {
	rec := UsageRecord{
		Project:      project,
		Conversation: conversation,
	}

	if l.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, l.Timestamp); err == nil {
			rec.Timestamp = ts.UTC()
		}
	}

	usage := l.usage()
	name := l.model()
	explicit := l.explicitCost()
	if usage == nil && name == "" && explicit == nil {
		return rec
	}

	rec.Model = NormalizeModelName(name)
	if usage != nil {
		rec.Tokens = TokenCounts{
			Input:      max64(usage.InputTokens, 0),
			Output:     max64(usage.OutputTokens, 0),
			CacheWrite: max64(usage.CacheCreationInputTokens, 0),
			CacheRead:  max64(usage.CacheReadInputTokens, 0),
		}
	}

	switch {
	case explicit != nil && *explicit > 0:
		rec.Cost = MicroUSDFromUSD(*explicit)
	case cost != nil && rec.Model != "":
		rec.Cost = cost(rec.Model, rec.Tokens)
	}

	return rec
}

func max64(v, floor int64) int64 {
	if v < floor {
		return floor
	}
	return v
}
