package metrics

import (
	"sync/atomic"
	"time"
)

// Health describes the outcome of the most recent scan, letting the serving
// layer tell "nothing logged yet" apart from "last scan failed".
type Health struct {
	Healthy     bool      `json:"healthy"`
	LastError   string    `json:"lastError,omitempty"`
	LastScanAt  time.Time `json:"lastScanAt"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Store holds the latest published snapshot. Publication is an atomic
// pointer swap: readers either see the previous complete snapshot or the new
// complete one, never a mix of scan generations.
type Store struct {
	current atomic.Pointer[Snapshot]
	health  atomic.Pointer[Health]
}

// NewStore returns a store pre-seeded with an empty snapshot so that readers
// never observe nil before the first scan completes.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(EmptySnapshot(time.Time{}))
	s.health.Store(&Health{})
	return s
}

// Publish replaces the current snapshot and marks the store healthy.
func (s *Store) Publish(snap *Snapshot) {
	s.current.Store(snap)
	s.health.Store(&Health{
		Healthy:     true,
		LastScanAt:  snap.GeneratedAt,
		GeneratedAt: snap.GeneratedAt,
	})
}

// MarkFailed records a failed scan without touching the published snapshot;
// readers keep serving the last good data.
func (s *Store) MarkFailed(err error, at time.Time) {
	prev := s.current.Load()
	s.health.Store(&Health{
		Healthy:     false,
		LastError:   err.Error(),
		LastScanAt:  at,
		GeneratedAt: prev.GeneratedAt,
	})
}

// Snapshot returns the latest published snapshot. Never blocks, never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Health returns the latest scan health.
func (s *Store) Health() Health {
	return *s.health.Load()
}
