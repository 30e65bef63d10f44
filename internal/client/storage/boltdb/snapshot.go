package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/models"
)

// itemKey кодирует id в big-endian, чтобы курсор шел в порядке возрастания id
func itemKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// SaveItem stores or replaces an item (write-through)
func (s *Storage) SaveItem(ctx context.Context, item *models.Item) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).Put(itemKey(item.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	return nil
}

// GetItem retrieves an item by id
func (s *Storage) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var item *models.Item

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketItems).Get(itemKey(id))
		if data == nil {
			return storage.ErrItemNotFound
		}

		item = &models.Item{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// DeleteItem removes an item entirely. Deleting an absent item is a no-op.
func (s *Storage) DeleteItem(ctx context.Context, id int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).Delete(itemKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return nil
}

// ListItems returns all items ordered by id
func (s *Storage) ListItems(ctx context.Context) ([]*models.Item, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var items []*models.Item

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			var item models.Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to unmarshal item: %w", err)
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}
