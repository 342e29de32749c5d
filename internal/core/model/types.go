package model

import (
	"math"
	"strconv"
	"time"
)

// MicroUSD is a cost expressed in millionths of a dollar. All accumulation
// happens on this integer type so that sums are exact regardless of the
// order records are folded in. Floats appear only at the presentation
// boundary and as transient per-line values.
type MicroUSD int64

// MicroUSDFromUSD converts a dollar amount to micro-dollars, rounding to the
// nearest micro-dollar.
func MicroUSDFromUSD(v float64) MicroUSD {
	return MicroUSD(math.Round(v * 1e6))
}

// USD converts back to dollars for display.
func (m MicroUSD) USD() float64 {
	return float64(m) / 1e6
}

// MarshalJSON renders the cost as a plain dollar number.
func (m MicroUSD) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, m.USD(), 'f', -1, 64), nil
}

// UnmarshalJSON accepts a dollar number.
func (m *MicroUSD) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = MicroUSDFromUSD(v)
	return nil
}

// TokenCounts holds the four token classes of one usage event.
type TokenCounts struct {
	Input      int64 `json:"inputTokens"`
	Output     int64 `json:"outputTokens"`
	CacheWrite int64 `json:"cacheWriteTokens"`
	CacheRead  int64 `json:"cacheReadTokens"`
}

// Total returns the sum over all token classes.
func (t TokenCounts) Total() int64 {
	return t.Input + t.Output + t.CacheWrite + t.CacheRead
}

// IsZero reports whether no tokens were recorded.
func (t TokenCounts) IsZero() bool {
	return t.Input == 0 && t.Output == 0 && t.CacheWrite == 0 && t.CacheRead == 0
}

// CostFunc computes the cost of one usage event. The pricing table behind it
// is supplied by the caller; the aggregation core never looks prices up
// itself.
type CostFunc func(model string, tokens TokenCounts) MicroUSD

// UsageRecord is one parsed log line, projected into the strongly typed
// shape the aggregation pipeline folds. Records are transient: constructed
// per line, folded, discarded.
type UsageRecord struct {
	Project      string
	Conversation string

	// Timestamp is zero when the line carried none or it failed to parse.
	// Such records still count as messages.
	Timestamp time.Time

	// Model is the normalized model name, empty when the line carried no
	// usage information.
	Model  string
	Tokens TokenCounts
	Cost   MicroUSD
}

// Billable reports whether the record carries usage that belongs in a
// per-model bucket.
func (r *UsageRecord) Billable() bool {
	return r.Model != ""
}
