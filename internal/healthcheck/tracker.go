package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes the source state and dispatch counts.
type Snapshot struct {
	Source        string           `json:"source,omitempty"`
	StartedAt     *time.Time       `json:"started_at"`
	LastEventTime *time.Time       `json:"last_event_time"`
	LastOutcome   string           `json:"last_outcome,omitempty"`
	Dispatches    map[string]int64 `json:"dispatches"`
}

// Tracker records source liveness and dispatch outcomes for health endpoints.
type Tracker struct {
	mu         sync.RWMutex
	source     string
	startedAt  time.Time
	stopped    bool
	lastEvent  time.Time
	lastResult string
	dispatches map[string]int64
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{dispatches: make(map[string]int64)}
}

// MarkStarted records that the named change source is receiving events.
func (t *Tracker) MarkStarted(source string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.source = source
	t.startedAt = time.Now().UTC()
	t.stopped = false
	t.mu.Unlock()
}

// MarkStopped records that the change source has exited.
func (t *Tracker) MarkStopped() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// RecordDispatch counts one dispatch outcome.
func (t *Tracker) RecordDispatch(outcome string) {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastEvent = now
	t.lastResult = outcome
	t.dispatches[outcome]++
	t.mu.Unlock()
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{Dispatches: map[string]int64{}}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int64, len(t.dispatches))
	for k, v := range t.dispatches {
		counts[k] = v
	}
	return Snapshot{
		Source:        t.source,
		StartedAt:     timePtr(t.startedAt),
		LastEventTime: timePtr(t.lastEvent),
		LastOutcome:   t.lastResult,
		Dispatches:    counts,
	}
}

// Ready reports whether the change source has started.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.startedAt.IsZero() && !t.stopped
}

// Healthy reports whether the change source has not exited.
func (t *Tracker) Healthy() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.stopped
}

func timePtr(ts time.Time) *time.Time {
	if ts.IsZero() {
		return nil
	}
	value := ts
	return &value
}
