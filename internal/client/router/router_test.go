package router

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/internal/models"
	"github.com/taskwire/taskwire/pkg/api"
)

type senderStub struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (s *senderStub) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestEmitOrderedFanout(t *testing.T) {
	r := New(&senderStub{}, testLogger())

	var order []int
	r.Subscribe("todo:updated", func(json.RawMessage) { order = append(order, 1) })
	r.Subscribe("todo:updated", func(json.RawMessage) { order = append(order, 2) })
	r.Subscribe("todo:updated", func(json.RawMessage) { order = append(order, 3) })
	r.Subscribe("todo:deleted", func(json.RawMessage) { order = append(order, 99) })

	r.Emit("todo:updated", nil)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEmitIsolatesPanickingHandler(t *testing.T) {
	r := New(&senderStub{}, testLogger())

	var reached bool
	r.Subscribe("todo:updated", func(json.RawMessage) { panic("boom") })
	r.Subscribe("todo:updated", func(json.RawMessage) { reached = true })

	require.NotPanics(t, func() { r.Emit("todo:updated", nil) })
	assert.True(t, reached, "handler after the panicking one must still run")
}

func TestUnsubscribe(t *testing.T) {
	r := New(&senderStub{}, testLogger())

	calls := 0
	sub := r.Subscribe("cursor:move", func(json.RawMessage) { calls++ })

	r.Emit("cursor:move", nil)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	r.Emit("cursor:move", nil)

	assert.Equal(t, 1, calls)
}

func TestPublishForwardsToSender(t *testing.T) {
	sender := &senderStub{}
	r := New(sender, testLogger())

	require.NoError(t, r.Publish(api.EventTodoChange, api.ChangeEvent{Type: "created"}))
	assert.Equal(t, []string{api.EventTodoChange}, sender.events)
}

func TestCursorExpiry(t *testing.T) {
	tracker := NewCursorTracker(3000 * time.Millisecond)

	// controllable time source
	now := time.Unix(1700000000, 0)
	tracker.now = func() time.Time { return now }

	tracker.Track(api.CursorEvent{UserID: "u1", X: 10, Y: 20})
	tracker.Track(api.CursorEvent{UserID: "u2", X: 30, Y: 40})

	assert.Len(t, tracker.Active(), 2)

	// u2 keeps moving, u1 goes quiet
	now = now.Add(2 * time.Second)
	tracker.Track(api.CursorEvent{UserID: "u2", X: 31, Y: 41})

	// 3s TTL elapses for u1 with no explicit removal event
	now = now.Add(1500 * time.Millisecond)
	active := tracker.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "u2", active[0].UserID)
}

func TestPresenceRoster(t *testing.T) {
	roster := NewPresenceRoster()

	roster.Replace([]api.PresenceEvent{
		{UserID: "u1", UserName: "alice", Status: "online", LastSeen: 100},
		{UserID: "u2", UserName: "bob", Status: "away", LastSeen: 90},
	})
	assert.Len(t, roster.List(), 2)

	roster.Join(api.PresenceEvent{UserID: "u3", UserName: "carol", Status: "online"})
	assert.Len(t, roster.List(), 3)

	roster.Leave("u1")
	list := roster.List()
	assert.Len(t, list, 2)
	for _, u := range list {
		assert.NotEqual(t, "u1", u.UserID)
	}

	// unknown status normalizes to online
	roster.Join(api.PresenceEvent{UserID: "u4", Status: "confused"})
	for _, u := range roster.List() {
		if u.UserID == "u4" {
			assert.Equal(t, models.PresenceOnline, u.Status)
		}
	}

	// users:list rebuild replaces the roster wholesale
	roster.Replace(nil)
	assert.Empty(t, roster.List())
}
