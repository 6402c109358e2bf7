package crawler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	_, started := tr.Snapshot()
	assert.False(t, started)

	start := time.Date(2021, 3, 5, 12, 0, 0, 0, time.UTC)
	tr.Begin("run-1", start)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.AddFetch()
			tr.AddCacheHit()
		}()
	}
	wg.Wait()
	tr.SetCounts(1, 3)

	running, started := tr.Snapshot()
	require.True(t, started)
	assert.Equal(t, RunRunning, running.Status)
	assert.Nil(t, running.FinishedAt)

	end := start.Add(time.Minute)
	final := tr.Finish(end, nil)
	assert.Equal(t, RunSummary{
		RunID:      "run-1",
		Status:     RunSucceeded,
		StartedAt:  start,
		FinishedAt: &end,
		Movies:     1,
		Casts:      3,
		Fetches:    10,
		CacheHits:  10,
	}, final)
}

func TestTrackerFailureAndReset(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.Begin("run-1", time.Unix(0, 0))
	tr.AddFetch()
	failed := tr.Finish(time.Unix(60, 0), errors.New("fetch movie: transport failure"))
	assert.Equal(t, RunFailed, failed.Status)
	assert.Equal(t, "fetch movie: transport failure", failed.Error)

	tr.Begin("run-2", time.Unix(120, 0))
	snap, _ := tr.Snapshot()
	assert.Equal(t, "run-2", snap.RunID)
	assert.Zero(t, snap.Fetches)
	assert.Empty(t, snap.Error)
}

func TestNilTracker(t *testing.T) {
	t.Parallel()

	var tr *Tracker
	tr.Begin("x", time.Now())
	tr.AddFetch()
	tr.AddCacheHit()
	tr.SetCounts(1, 1)
	assert.Equal(t, RunSummary{}, tr.Finish(time.Now(), nil))
	_, started := tr.Snapshot()
	assert.False(t, started)
}
