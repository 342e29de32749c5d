package metrics

import "github.com/ccmeter/ccmeter/internal/core/model"

// Usage is one bucket of exact sums. Identical shape for per-model,
// per-project and grand-total accounting, so the cross-check between the
// three is a structural property rather than a convention.
type Usage struct {
	CostUSD    model.MicroUSD `json:"costUSD"`
	Input      int64          `json:"inputTokens"`
	Output     int64          `json:"outputTokens"`
	CacheWrite int64          `json:"cacheWriteTokens"`
	CacheRead  int64          `json:"cacheReadTokens"`
	CallCount  int64          `json:"callCount"`
}

// TotalTokens returns the sum over all token classes.
func (u *Usage) TotalTokens() int64 {
	return u.Input + u.Output + u.CacheWrite + u.CacheRead
}

func (u *Usage) add(o *Usage) {
	u.CostUSD += o.CostUSD
	u.Input += o.Input
	u.Output += o.Output
	u.CacheWrite += o.CacheWrite
	u.CacheRead += o.CacheRead
	u.CallCount += o.CallCount
}

func (u *Usage) fold(rec *model.UsageRecord) {
	u.CostUSD += rec.Cost
	u.Input += rec.Tokens.Input
	u.Output += rec.Tokens.Output
	u.CacheWrite += rec.Tokens.CacheWrite
	u.CacheRead += rec.Tokens.CacheRead
	u.CallCount++
}

// FileStats is one file's aggregate contribution. The published snapshot is
// always a merge over per-file stats, which is what makes retraction on
// truncation or deletion possible: dropping the file's stats and re-merging
// removes exactly its contribution.
type FileStats struct {
	Project  string
	Messages int64
	Warnings int64
	ByModel  map[string]*Usage
}

// NewFileStats returns empty stats for one conversation file.
func NewFileStats(project string) *FileStats {
	return &FileStats{
		Project: project,
		ByModel: make(map[string]*Usage),
	}
}

// Fold accumulates one record. Every record counts as a message; only
// billable records (those carrying a model) enter a per-model bucket.
func (f *FileStats) Fold(rec *model.UsageRecord) {
	f.Messages++
	if !rec.Billable() {
		return
	}
	bucket, ok := f.ByModel[rec.Model]
	if !ok {
		bucket = &Usage{}
		f.ByModel[rec.Model] = bucket
	}
	bucket.fold(rec)
}
