package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/models"
)

func TestSaveAndGetItem(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	item := &models.Item{
		ID:           1001,
		Title:        "Buy milk",
		OwnerID:      "user-1",
		LastModified: 1700000000000,
		SyncStatus:   models.StatusPending,
	}
	require.NoError(t, s.SaveItem(ctx, item))

	got, err := s.GetItem(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, item, got)

	// Overwrite replaces the stored record
	item.Title = "Buy oat milk"
	item.SyncStatus = models.StatusSynced
	require.NoError(t, s.SaveItem(ctx, item))

	got, err = s.GetItem(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)
}

func TestGetItemNotFound(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.GetItem(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestDeleteItem(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveItem(ctx, &models.Item{ID: 7, Title: "x"}))
	require.NoError(t, s.DeleteItem(ctx, 7))

	_, err := s.GetItem(ctx, 7)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	// deleting an absent item is a no-op
	assert.NoError(t, s.DeleteItem(ctx, 7))
}

func TestListItemsOrderedByID(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []int64{300, 100, 200} {
		require.NoError(t, s.SaveItem(ctx, &models.Item{ID: id}))
	}

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, int64(100), items[0].ID)
	assert.Equal(t, int64(200), items[1].ID)
	assert.Equal(t, int64(300), items[2].ID)
}

func TestItemsSurviveRestart(t *testing.T) {
	s, dbPath := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveItem(ctx, &models.Item{ID: 1, Title: "persist me", SyncStatus: models.StatusPending}))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "persist me", got.Title)
	assert.Equal(t, models.StatusPending, got.SyncStatus)
}
