package router

import (
	"context"
	"sync"
	"time"

	"github.com/taskwire/taskwire/pkg/api"
)

// DefaultCursorTTL is how long a cursor stays visible after its last update.
// Liveness is by timeout, not heartbeat ack: a peer that stops moving its
// cursor simply fades out.
const DefaultCursorTTL = 3000 * time.Millisecond

type cursorState struct {
	event     api.CursorEvent
	updatedAt time.Time
}

// CursorTracker keeps the live cursor positions of other users, expiring
// entries that have not been updated within the TTL.
type CursorTracker struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	cursors map[string]cursorState
}

// NewCursorTracker creates a tracker with the given TTL.
func NewCursorTracker(ttl time.Duration) *CursorTracker {
	if ttl <= 0 {
		ttl = DefaultCursorTTL
	}
	return &CursorTracker{
		ttl:     ttl,
		now:     time.Now,
		cursors: make(map[string]cursorState),
	}
}

// Track records a cursor update for its user.
func (t *CursorTracker) Track(ev api.CursorEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursors[ev.UserID] = cursorState{event: ev, updatedAt: t.now()}
}

// Active returns the cursors updated within the TTL, pruning the rest.
func (t *CursorTracker) Active() []api.CursorEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline := t.now().Add(-t.ttl)
	active := make([]api.CursorEvent, 0, len(t.cursors))
	for userID, state := range t.cursors {
		if state.updatedAt.Before(deadline) {
			delete(t.cursors, userID)
			continue
		}
		active = append(active, state.event)
	}
	return active
}

// Run prunes expired cursors in the background until ctx is done, so
// entries expire even when nothing reads Active.
func (t *CursorTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Active()
		}
	}
}
