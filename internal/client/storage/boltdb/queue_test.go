package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/models"
)

func newOp(opID string, kind models.OpKind, targetID, createdAt int64) *models.Operation {
	return &models.Operation{
		OpID:      opID,
		Kind:      kind,
		TargetID:  targetID,
		CreatedAt: createdAt,
	}
}

func TestEnqueueFIFOOrder(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("op-b", models.OpUpdate, 2, 200)))
	require.NoError(t, s.Enqueue(ctx, newOp("op-a", models.OpUpdate, 1, 100)))
	require.NoError(t, s.Enqueue(ctx, newOp("op-c", models.OpUpdate, 3, 300)))

	ops, err := s.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, "op-a", ops[0].OpID)
	assert.Equal(t, "op-b", ops[1].OpID)
	assert.Equal(t, "op-c", ops[2].OpID)
}

func TestEnqueueIdempotentReplay(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	op := newOp("op-1", models.OpUpdate, 1, 100)
	require.NoError(t, s.Enqueue(ctx, op))
	require.NoError(t, s.Enqueue(ctx, op)) // retry after partial failure

	size, err := s.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestDeleteDropsQueuedEdits(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("upd-1", models.OpUpdate, 5, 100)))
	require.NoError(t, s.Enqueue(ctx, newOp("tgl-1", models.OpToggle, 5, 200)))
	require.NoError(t, s.Enqueue(ctx, newOp("upd-other", models.OpUpdate, 6, 300)))
	require.NoError(t, s.Enqueue(ctx, newOp("del-1", models.OpDelete, 5, 400)))

	ops, err := s.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "upd-other", ops[0].OpID)
	assert.Equal(t, "del-1", ops[1].OpID)
}

func TestEditAfterQueuedDeleteIsDiscarded(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("del-1", models.OpDelete, 5, 100)))
	require.NoError(t, s.Enqueue(ctx, newOp("upd-1", models.OpUpdate, 5, 200)))
	require.NoError(t, s.Enqueue(ctx, newOp("tgl-1", models.OpToggle, 5, 300)))

	ops, err := s.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "del-1", ops[0].OpID)
}

func TestDequeueConfirmed(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("op-1", models.OpCreate, 1, 100)))
	require.NoError(t, s.DequeueConfirmed(ctx, "op-1"))

	size, err := s.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	assert.ErrorIs(t, s.DequeueConfirmed(ctx, "op-1"), storage.ErrOperationNotFound)
}

func TestHasPendingFor(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("op-1", models.OpUpdate, 5, 100)))

	pending, err := s.HasPendingFor(ctx, 5)
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = s.HasPendingFor(ctx, 6)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestRemoveForTarget(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("op-1", models.OpUpdate, 5, 100)))
	require.NoError(t, s.Enqueue(ctx, newOp("op-2", models.OpToggle, 5, 200)))
	require.NoError(t, s.Enqueue(ctx, newOp("op-3", models.OpUpdate, 6, 300)))

	removed, err := s.RemoveForTarget(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ops, err := s.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "op-3", ops[0].OpID)
}

func TestIncrementAttempts(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("op-1", models.OpCreate, 1, 100)))
	require.NoError(t, s.IncrementAttempts(ctx, "op-1"))
	require.NoError(t, s.IncrementAttempts(ctx, "op-1"))

	ops, err := s.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, 2, ops[0].Attempts)

	assert.ErrorIs(t, s.IncrementAttempts(ctx, "nope"), storage.ErrOperationNotFound)
}

func TestQueueSurvivesRestart(t *testing.T) {
	s, dbPath := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newOp("op-1", models.OpCreate, 1001, 100)))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	ops, err := reopened.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "op-1", ops[0].OpID)
	assert.Equal(t, int64(1001), ops[0].TargetID)
}

func TestClosedStorage(t *testing.T) {
	s, _ := newTestStorage(t)
	require.NoError(t, s.Close())
	s.db = nil

	ctx := context.Background()
	assert.ErrorIs(t, s.Enqueue(ctx, newOp("op", models.OpCreate, 1, 1)), storage.ErrStorageClosed)
	_, err := s.PeekAll(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = s.GetItem(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
