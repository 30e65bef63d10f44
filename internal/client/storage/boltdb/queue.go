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

// queueKey кодирует (created_at, op_id) так, чтобы курсор по bucket
// давал FIFO порядок по времени создания
func queueKey(op *models.Operation) []byte {
	key := make([]byte, 8+len(op.OpID))
	binary.BigEndian.PutUint64(key, uint64(op.CreatedAt))
	copy(key[8:], op.OpID)
	return key
}

// Enqueue durably appends an operation. Replaying an already-queued OpID
// keeps a single entry. Queue compaction rules:
//   - a Delete drops queued Update/Toggle entries for the same target
//   - an Update/Toggle for a target with a queued Delete is discarded
func (s *Storage) Enqueue(ctx context.Context, op *models.Operation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		ops := tx.Bucket(bucketOps)
		idx := tx.Bucket(bucketOpsIndex)

		// Идемпотентный replay: op_id уже в очереди - оставляем одну запись
		if idx.Get([]byte(op.OpID)) != nil {
			return nil
		}

		if op.Kind == models.OpUpdate || op.Kind == models.OpToggle {
			deleted, err := hasQueuedDelete(ops, op.TargetID)
			if err != nil {
				return err
			}
			if deleted {
				// Delete wins regardless of order: the item is already
				// slated for removal, the edit has nothing to apply to
				return nil
			}
		}

		if op.Kind == models.OpDelete {
			if err := dropEditsForTarget(ops, idx, op.TargetID); err != nil {
				return err
			}
		}

		key := queueKey(op)
		if err := ops.Put(key, data); err != nil {
			return fmt.Errorf("failed to save operation: %w", err)
		}
		if err := idx.Put([]byte(op.OpID), key); err != nil {
			return fmt.Errorf("failed to index operation: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue transaction failed: %w", err)
	}

	return nil
}

// hasQueuedDelete проверяет наличие queued Delete для target
func hasQueuedDelete(ops *bbolt.Bucket, targetID int64) (bool, error) {
	found := false
	err := ops.ForEach(func(k, v []byte) error {
		var op models.Operation
		if err := json.Unmarshal(v, &op); err != nil {
			return fmt.Errorf("failed to unmarshal operation: %w", err)
		}
		if op.TargetID == targetID && op.Kind == models.OpDelete {
			found = true
		}
		return nil
	})
	return found, err
}

// dropEditsForTarget удаляет queued Update/Toggle для target
func dropEditsForTarget(ops, idx *bbolt.Bucket, targetID int64) error {
	type victim struct {
		key  []byte
		opID string
	}
	var victims []victim

	err := ops.ForEach(func(k, v []byte) error {
		var op models.Operation
		if err := json.Unmarshal(v, &op); err != nil {
			return fmt.Errorf("failed to unmarshal operation: %w", err)
		}
		if op.TargetID == targetID && (op.Kind == models.OpUpdate || op.Kind == models.OpToggle) {
			key := make([]byte, len(k))
			copy(key, k)
			victims = append(victims, victim{key: key, opID: op.OpID})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, v := range victims {
		if err := ops.Delete(v.key); err != nil {
			return fmt.Errorf("failed to drop operation: %w", err)
		}
		if err := idx.Delete([]byte(v.opID)); err != nil {
			return fmt.Errorf("failed to unindex operation: %w", err)
		}
	}
	return nil
}

// DequeueConfirmed retires an operation after remote acknowledgment
func (s *Storage) DequeueConfirmed(ctx context.Context, opID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		idx := tx.Bucket(bucketOpsIndex)

		key := idx.Get([]byte(opID))
		if key == nil {
			return storage.ErrOperationNotFound
		}

		if err := tx.Bucket(bucketOps).Delete(key); err != nil {
			return fmt.Errorf("failed to delete operation: %w", err)
		}
		return idx.Delete([]byte(opID))
	})
	if err != nil {
		return err
	}

	return nil
}

// PeekAll returns all queued operations in FIFO order without removing them
func (s *Storage) PeekAll(ctx context.Context) ([]*models.Operation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var ops []*models.Operation

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOps).ForEach(func(k, v []byte) error {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			ops = append(ops, &op)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to peek operations: %w", err)
	}

	return ops, nil
}

// HasPendingFor reports whether any queued operation targets the given item
func (s *Storage) HasPendingFor(ctx context.Context, targetID int64) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}

	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOps).ForEach(func(k, v []byte) error {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			if op.TargetID == targetID {
				found = true
			}
			return nil
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to scan operations: %w", err)
	}

	return found, nil
}

// RemoveForTarget drops every queued operation for the given item
func (s *Storage) RemoveForTarget(ctx context.Context, targetID int64) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	removed := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		ops := tx.Bucket(bucketOps)
		idx := tx.Bucket(bucketOpsIndex)

		type victim struct {
			key  []byte
			opID string
		}
		var victims []victim

		err := ops.ForEach(func(k, v []byte) error {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			if op.TargetID == targetID {
				key := make([]byte, len(k))
				copy(key, k)
				victims = append(victims, victim{key: key, opID: op.OpID})
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, v := range victims {
			if err := ops.Delete(v.key); err != nil {
				return fmt.Errorf("failed to drop operation: %w", err)
			}
			if err := idx.Delete([]byte(v.opID)); err != nil {
				return fmt.Errorf("failed to unindex operation: %w", err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("remove transaction failed: %w", err)
	}

	return removed, nil
}

// IncrementAttempts bumps the retry counter of a queued operation
func (s *Storage) IncrementAttempts(ctx context.Context, opID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		ops := tx.Bucket(bucketOps)
		idx := tx.Bucket(bucketOpsIndex)

		key := idx.Get([]byte(opID))
		if key == nil {
			return storage.ErrOperationNotFound
		}

		var op models.Operation
		if err := json.Unmarshal(ops.Get(key), &op); err != nil {
			return fmt.Errorf("failed to unmarshal operation: %w", err)
		}

		op.Attempts++

		data, err := json.Marshal(&op)
		if err != nil {
			return fmt.Errorf("failed to marshal operation: %w", err)
		}
		return ops.Put(key, data)
	})
	if err != nil {
		return err
	}

	return nil
}

// Size returns the number of queued operations
func (s *Storage) Size(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	count := 0

	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketOps).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}

	return count, nil
}
