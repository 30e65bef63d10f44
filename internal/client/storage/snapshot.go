package storage

import (
	"context"

	"github.com/taskwire/taskwire/internal/models"
)

//go:generate moq -out snapshot_mock.go . SnapshotStore

// SnapshotStore defines the durable id -> item mapping holding the client's
// latest known view of the shared collection. It is the single source of
// truth for item state as seen by this client and must survive restarts.
type SnapshotStore interface {
	// SaveItem stores or replaces an item (write-through)
	SaveItem(ctx context.Context, item *models.Item) error

	// GetItem retrieves an item by id
	// Returns ErrItemNotFound if the item doesn't exist
	GetItem(ctx context.Context, id int64) (*models.Item, error)

	// DeleteItem removes an item entirely. Deleting an absent item is a no-op:
	// a remote delete may race a local one.
	DeleteItem(ctx context.Context, id int64) error

	// ListItems returns all items ordered by id
	ListItems(ctx context.Context) ([]*models.Item, error)
}
