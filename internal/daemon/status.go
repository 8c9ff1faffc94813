package daemon

import (
	"sync"
	"time"
)

// Status tracks the outcome of scheduled runs.
type Status struct {
	mu           sync.RWMutex
	started      time.Time
	runs         int
	failures     int
	lastRun      time.Time
	lastDuration time.Duration
	lastError    string
}

// StatusSnapshot is a copy of Status suitable for JSON.
type StatusSnapshot struct {
	Started      time.Time `json:"started"`
	Runs         int       `json:"runs"`
	Failures     int       `json:"failures"`
	LastRun      time.Time `json:"last_run,omitzero"`
	LastDuration string    `json:"last_duration,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

func newStatus(now time.Time) *Status { return &Status{started: now} }

func (s *Status) record(start time.Time, d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.lastRun = start
	s.lastDuration = d
	if err != nil {
		s.failures++
		s.lastError = err.Error()
		return
	}
	s.lastError = ""
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := StatusSnapshot{
		Started:   s.started,
		Runs:      s.runs,
		Failures:  s.failures,
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}
	if s.runs > 0 {
		snap.LastDuration = s.lastDuration.String()
	}
	return snap
}

// Healthy reports whether the most recent run succeeded; true before the first run.
func (s *Status) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError == ""
}
