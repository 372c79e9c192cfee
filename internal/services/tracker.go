package services

import (
	"sync"
	"time"

	"github.com/siteops/doc-validator-api/internal/models"
)

// runTracker holds in-flight run state: coarse progress and cancellation
// flags. The results store stays the single source of truth for finished
// runs; tracker entries expire a fixed TTL after their run completes.
type runTracker struct {
	mu   sync.Mutex
	ttl  time.Duration
	runs map[string]*trackedRun
}

type trackedRun struct {
	progress  models.RunProgress
	cancelled bool
	expiresAt time.Time
}

func newRunTracker(ttl time.Duration) *runTracker {
	return &runTracker{
		ttl:  ttl,
		runs: make(map[string]*trackedRun),
	}
}

func (t *runTracker) start(runID string, totalChecks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpiredLocked()
	t.runs[runID] = &trackedRun{
		progress: models.RunProgress{
			RunID:  runID,
			Status: models.RunStatusRunning,
			Total:  totalChecks,
		},
		// In-flight entries must not expire under the run.
		expiresAt: time.Now().Add(24 * time.Hour),
	}
}

func (t *runTracker) update(runID string, completed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.runs[runID]; ok {
		tr.progress.Completed = completed
	}
}

func (t *runTracker) finish(runID string, status models.RunStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.runs[runID]; ok {
		tr.progress.Status = status
		tr.progress.Completed = tr.progress.Total
		tr.expiresAt = time.Now().Add(t.ttl)
	}
}

// cancel marks a running run. In-flight work is not interrupted; the caller
// discards the result when it finishes.
func (t *runTracker) cancel(runID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.runs[runID]
	if !ok || tr.progress.Status != models.RunStatusRunning {
		return false
	}
	tr.cancelled = true
	return true
}

func (t *runTracker) isCancelled(runID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.runs[runID]
	return ok && tr.cancelled
}

// progress returns in-flight progress, or ok=false when the run is not
// currently tracked as running.
func (t *runTracker) inFlight(runID string) (models.RunProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpiredLocked()
	tr, ok := t.runs[runID]
	if !ok || tr.progress.Status != models.RunStatusRunning {
		return models.RunProgress{}, false
	}
	return tr.progress, true
}

func (t *runTracker) evictExpiredLocked() {
	now := time.Now()
	for id, tr := range t.runs {
		if now.After(tr.expiresAt) {
			delete(t.runs, id)
		}
	}
}
