package metrics

import (
	"time"

	"github.com/ccmeter/ccmeter/internal/core/model"
)

// ModelBreakdown is the aggregate bucket for one model.
type ModelBreakdown struct {
	Usage
}

// ProjectBreakdown is the aggregate bucket for one project.
type ProjectBreakdown struct {
	Name          string `json:"name"`
	Conversations int64  `json:"conversations"`
	Usage
}

// Snapshot is an immutable point-in-time aggregate. Once published it is
// never mutated, so any number of readers may hold it without locking.
type Snapshot struct {
	TotalCostUSD       model.MicroUSD               `json:"totalCostUSD"`
	TotalTokens        int64                        `json:"totalTokens"`
	TotalMessages      int64                        `json:"totalMessages"`
	TotalConversations int64                        `json:"totalConversations"`
	Totals             Usage                        `json:"totals"`
	ByModel            map[string]*ModelBreakdown   `json:"byModel"`
	ByProject          map[string]*ProjectBreakdown `json:"byProject"`
	Warnings           int64                        `json:"parseWarnings"`
	GeneratedAt        time.Time                    `json:"generatedAt"`
}

// EmptySnapshot is what a scan over zero files produces: valid and all-zero.
func EmptySnapshot(now time.Time) *Snapshot {
	return BuildSnapshot(nil, now)
}

// BuildSnapshot merges per-file stats into one immutable snapshot. The merge
// is a plain sum, so the result is independent of map iteration order and of
// how files were partitioned across workers.
func BuildSnapshot(files map[string]*FileStats, now time.Time) *Snapshot {
	snap := &Snapshot{
		ByModel:     make(map[string]*ModelBreakdown),
		ByProject:   make(map[string]*ProjectBreakdown),
		GeneratedAt: now,
	}

	for _, fs := range files {
		snap.TotalConversations++
		snap.TotalMessages += fs.Messages
		snap.Warnings += fs.Warnings

		proj, ok := snap.ByProject[fs.Project]
		if !ok {
			proj = &ProjectBreakdown{Name: fs.Project}
			snap.ByProject[fs.Project] = proj
		}
		proj.Conversations++

		for name, usage := range fs.ByModel {
			mdl, ok := snap.ByModel[name]
			if !ok {
				mdl = &ModelBreakdown{}
				snap.ByModel[name] = mdl
			}
			mdl.add(usage)
			proj.Usage.add(usage)
			snap.Totals.add(usage)
		}
	}

	snap.TotalCostUSD = snap.Totals.CostUSD
	snap.TotalTokens = snap.Totals.TotalTokens()
	return snap
}
