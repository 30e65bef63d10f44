package reconcile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/client/storage/boltdb"
	"github.com/taskwire/taskwire/internal/models"
)

const localUser = "user-local"

func newTestReconciler(t *testing.T) (*Reconciler, *boltdb.Storage) {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(store, store, logger), store
}

func remoteUpdate(id int64, title string, ts int64) models.RemoteEvent {
	return models.RemoteEvent{
		Type:         models.EventUpdated,
		Item:         models.Item{ID: id, Title: title, OwnerID: "user-remote"},
		OriginUserID: "user-remote",
		Timestamp:    ts,
	}
}

func TestInsertUnknownItem(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	applied, err := r.Apply(ctx, localUser, remoteUpdate(1001, "Buy milk", 500))
	require.NoError(t, err)
	assert.True(t, applied)

	item, err := store.GetItem(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", item.Title)
	assert.Equal(t, models.StatusSynced, item.SyncStatus)
	assert.Equal(t, int64(500), item.LastModified, "lastModified takes the event timestamp")
}

func TestNoSelfEcho(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	ev := remoteUpdate(1001, "echo", 500)
	ev.OriginUserID = localUser

	applied, err := r.Apply(ctx, localUser, ev)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = store.GetItem(ctx, 1001)
	assert.ErrorIs(t, err, storage.ErrItemNotFound, "self-echo must never mutate the store")
}

func TestStalenessRejection(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveItem(ctx, &models.Item{
		ID: 1001, Title: "local", LastModified: 1000, SyncStatus: models.StatusSynced,
	}))

	// equal timestamp is stale too
	for _, ts := range []int64{999, 1000} {
		applied, err := r.Apply(ctx, localUser, remoteUpdate(1001, "stale", ts))
		require.NoError(t, err)
		assert.False(t, applied, "timestamp %d must be rejected", ts)
	}

	item, err := store.GetItem(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "local", item.Title)
	assert.Equal(t, int64(1000), item.LastModified)
}

func TestNewerRemoteOverwritesWithoutPendingOp(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveItem(ctx, &models.Item{
		ID: 1001, Title: "old", LastModified: 1000, SyncStatus: models.StatusSynced,
	}))

	applied, err := r.Apply(ctx, localUser, remoteUpdate(1001, "new", 2000))
	require.NoError(t, err)
	assert.True(t, applied)

	item, err := store.GetItem(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "new", item.Title)
	assert.Equal(t, int64(2000), item.LastModified)
	assert.Equal(t, models.StatusSynced, item.SyncStatus)
}

func TestConflictFlaggedWhenPendingOpExists(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveItem(ctx, &models.Item{
		ID: 1001, Title: "local edit", LastModified: 1000, SyncStatus: models.StatusPending,
	}))
	require.NoError(t, store.Enqueue(ctx, &models.Operation{
		OpID: "op-1", Kind: models.OpUpdate, TargetID: 1001, CreatedAt: 1000,
	}))

	applied, err := r.Apply(ctx, localUser, remoteUpdate(1001, "remote edit", 2000))
	require.NoError(t, err)
	assert.True(t, applied)

	item, err := store.GetItem(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, item.SyncStatus)
	assert.Equal(t, "local edit", item.Title, "locally pending edit is not silently overwritten")
	require.NotNil(t, item.Remote, "remote snapshot retained for the UI")
	assert.Equal(t, "remote edit", item.Remote.Title)
	assert.Equal(t, int64(2000), item.Remote.LastModified)

	// the pending op survives the conflict
	pending, err := store.HasPendingFor(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestRemoteDeleteWins(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveItem(ctx, &models.Item{
		ID: 1001, Title: "doomed", LastModified: 5000, SyncStatus: models.StatusPending,
	}))
	require.NoError(t, store.Enqueue(ctx, &models.Operation{
		OpID: "op-1", Kind: models.OpUpdate, TargetID: 1001, CreatedAt: 1000,
	}))

	// even an "older" delete removes the item
	ev := models.RemoteEvent{
		Type:         models.EventDeleted,
		Item:         models.Item{ID: 1001},
		OriginUserID: "user-remote",
		Timestamp:    100,
	}
	applied, err := r.Apply(ctx, localUser, ev)
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = store.GetItem(ctx, 1001)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	pending, err := store.HasPendingFor(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, pending, "queued operations for a deleted item are dropped")
}

func TestMalformedEventsDropped(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	malformed := []models.RemoteEvent{
		{Type: models.EventType("exploded"), Item: models.Item{ID: 1}, Timestamp: 1},
		{Type: models.EventUpdated, Item: models.Item{ID: 0}, Timestamp: 1}, // missing target id
		{},
	}

	for _, ev := range malformed {
		applied, err := r.Apply(ctx, localUser, ev)
		assert.NoError(t, err, "malformed events never raise")
		assert.False(t, applied)
	}

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestToggledEventAppliesLikeUpdate(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveItem(ctx, &models.Item{
		ID: 1001, Title: "task", Completed: false, LastModified: 1000, SyncStatus: models.StatusSynced,
	}))

	ev := models.RemoteEvent{
		Type:         models.EventToggled,
		Item:         models.Item{ID: 1001, Title: "task", Completed: true},
		OriginUserID: "user-remote",
		Timestamp:    2000,
	}
	applied, err := r.Apply(ctx, localUser, ev)
	require.NoError(t, err)
	assert.True(t, applied)

	item, err := store.GetItem(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, item.Completed)
}
