package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastSyncAtRoundTrip(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	ts, err := s.GetLastSyncAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts, "no sync performed yet")

	require.NoError(t, s.SaveLastSyncAt(ctx, 1700000000000))

	ts, err = s.GetLastSyncAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), ts)
}

func TestClientIDStable(t *testing.T) {
	s, dbPath := newTestStorage(t)
	ctx := context.Background()

	id, err := s.GetClientID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := s.GetClientID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	// survives restart
	require.NoError(t, s.Close())
	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	afterRestart, err := reopened.GetClientID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, afterRestart)
}
