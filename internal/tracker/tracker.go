package tracker

import (
	"sync"
	"time"
)

// Verdict is the outcome of a health probe.
type Verdict string

const (
	VerdictHealthy   Verdict = "healthy"
	VerdictUnhealthy Verdict = "unhealthy"
	VerdictUnknown   Verdict = "unknown"
)

// Record is the tracker's belief about a service's running process.
// It is advisory: the pid may be gone or reused; staleness is resolved
// lazily when status is computed.
type Record struct {
	PID             int
	StartedAt       time.Time
	Restarts        int
	Health          Verdict
	LastHealthCheck time.Time
}

// Tracker maps service names to their last-known process records.
// Restart counters live beside the records so they survive Untrack and
// stay monotonic across the stop/start of a restart.
type Tracker struct {
	mu       sync.Mutex
	records  map[string]Record
	restarts map[string]int
}

func New() *Tracker {
	return &Tracker{
		records:  make(map[string]Record),
		restarts: make(map[string]int),
	}
}

// Track inserts or overwrites the record for name. The start time is reset
// to now; the restart counter is carried over, never reset.
func (t *Tracker) Track(name string, pid int) {
	t.mu.Lock()
	t.records[name] = Record{
		PID:       pid,
		StartedAt: time.Now(),
		Restarts:  t.restarts[name],
		Health:    VerdictUnknown,
	}
	t.mu.Unlock()
}

// Untrack removes the record for name. Idempotent on a missing key.
// The restart counter is kept.
func (t *Tracker) Untrack(name string) {
	t.mu.Lock()
	delete(t.records, name)
	t.mu.Unlock()
}

// BumpRestart increments the restart counter for name and returns the new
// value. The counter is incremented whether or not a record is currently
// present, so a restart that runs between stop and start still counts.
func (t *Tracker) BumpRestart(name string) int {
	t.mu.Lock()
	t.restarts[name]++
	n := t.restarts[name]
	if rec, ok := t.records[name]; ok {
		rec.Restarts = n
		t.records[name] = rec
	}
	t.mu.Unlock()
	return n
}

// RestartCount returns the monotonic restart counter for name.
func (t *Tracker) RestartCount(name string) int {
	t.mu.Lock()
	n := t.restarts[name]
	t.mu.Unlock()
	return n
}

// RecordHealth stores the verdict for name. No-op if untracked.
func (t *Tracker) RecordHealth(name string, v Verdict) {
	t.mu.Lock()
	if rec, ok := t.records[name]; ok {
		rec.Health = v
		rec.LastHealthCheck = time.Now()
		t.records[name] = rec
	}
	t.mu.Unlock()
}

// Get returns a copy of the record for name.
func (t *Tracker) Get(name string) (Record, bool) {
	t.mu.Lock()
	rec, ok := t.records[name]
	t.mu.Unlock()
	return rec, ok
}
