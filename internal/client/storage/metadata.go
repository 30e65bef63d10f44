package storage

import "context"

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastSyncAt saves the timestamp (ms) of the last successful drain/refresh
	SaveLastSyncAt(ctx context.Context, timestamp int64) error

	// GetLastSyncAt retrieves the timestamp of the last successful drain/refresh
	// Returns 0 if no sync has been performed yet
	GetLastSyncAt(ctx context.Context) (int64, error)

	// GetClientID returns the stable per-installation client id, creating and
	// persisting one on first call
	GetClientID(ctx context.Context) (string, error)
}
