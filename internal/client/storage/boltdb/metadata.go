package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/taskwire/taskwire/internal/client/storage"
)

var (
	keyLastSyncAt = []byte("last_sync_at")
	keyClientID   = []byte("client_id")
)

// SaveLastSyncAt saves the timestamp of the last successful drain/refresh
func (s *Storage) SaveLastSyncAt(ctx context.Context, timestamp int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, uint64(timestamp))

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyLastSyncAt, value)
	})
	if err != nil {
		return fmt.Errorf("failed to save last sync timestamp: %w", err)
	}

	return nil
}

// GetLastSyncAt retrieves the timestamp of the last successful drain/refresh
func (s *Storage) GetLastSyncAt(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var timestamp int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyLastSyncAt)
		if data == nil {
			return nil // первая синхронизация - возвращаем 0
		}
		timestamp = int64(binary.BigEndian.Uint64(data))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get last sync timestamp: %w", err)
	}

	return timestamp, nil
}

// GetClientID returns the stable per-installation client id, creating and
// persisting one on first call
func (s *Storage) GetClientID(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var clientID string

	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)

		if data := meta.Get(keyClientID); data != nil {
			clientID = string(data)
			return nil
		}

		clientID = uuid.New().String()
		return meta.Put(keyClientID, []byte(clientID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to get client id: %w", err)
	}

	return clientID, nil
}
