package crawler

import (
	"sync"
	"time"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunSummary describes one run. It is logged at the end of a run, served by
// the status API, and published as the run-complete notification.
type RunSummary struct {
	RunID      string     `json:"run_id"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Movies     int        `json:"movies"`
	Casts      int        `json:"casts"`
	Fetches    int        `json:"fetches"`
	CacheHits  int        `json:"cache_hits"`
	Error      string     `json:"error,omitempty"`
}

// Tracker holds the summary of the current or most recent run. It is safe
// for concurrent use; a nil Tracker ignores every call.
type Tracker struct {
	mu      sync.RWMutex
	summary RunSummary
	started bool
}

// NewTracker returns an idle Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin resets the tracker for a new run.
func (t *Tracker) Begin(runID string, at time.Time) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary = RunSummary{RunID: runID, Status: RunRunning, StartedAt: at}
	t.started = true
}

// AddFetch counts one network request.
func (t *Tracker) AddFetch() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.summary.Fetches++
	t.mu.Unlock()
}

// AddCacheHit counts one key served from cache.
func (t *Tracker) AddCacheHit() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.summary.CacheHits++
	t.mu.Unlock()
}

// SetCounts records how many entities the crawl produced.
func (t *Tracker) SetCounts(movies, casts int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.summary.Movies = movies
	t.summary.Casts = casts
	t.mu.Unlock()
}

// Finish closes the run and returns its final summary.
func (t *Tracker) Finish(at time.Time, err error) RunSummary {
	if t == nil {
		return RunSummary{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.FinishedAt = &at
	t.summary.Status = RunSucceeded
	if err != nil {
		t.summary.Status = RunFailed
		t.summary.Error = err.Error()
	}
	return t.summary
}

// Snapshot returns a copy of the current summary and whether any run has
// started.
func (t *Tracker) Snapshot() (RunSummary, bool) {
	if t == nil {
		return RunSummary{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.summary, t.started
}
