// Package reconcile merges remote-origin mutations into the local snapshot
// store, taking the pending operation queue into account. The policy is
// last-write-wins by timestamp, with conflicts surfaced instead of silently
// overwriting locally pending edits.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/models"
)

// Reconciler applies RemoteEvents to the snapshot store.
type Reconciler struct {
	items  storage.SnapshotStore
	queue  storage.OperationQueue
	logger *slog.Logger
}

// New creates a reconciler over the given stores.
func New(items storage.SnapshotStore, queue storage.OperationQueue, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		items:  items,
		queue:  queue,
		logger: logger,
	}
}

// Apply merges one remote event. It returns true when the snapshot store
// changed. Malformed events are dropped with a diagnostic and never raise:
// garbage on the wire must not desynchronize the store.
func (r *Reconciler) Apply(ctx context.Context, localUserID string, ev models.RemoteEvent) (bool, error) {
	if !ev.Type.Valid() || ev.Item.ID == 0 {
		r.logger.Warn("Dropping malformed remote event",
			"type", string(ev.Type),
			"target_id", ev.Item.ID)
		return false, nil
	}

	// Echoes of our own writes must not be reapplied
	if ev.OriginUserID != "" && ev.OriginUserID == localUserID {
		r.logger.Debug("Discarding self-echo", "target_id", ev.Item.ID)
		return false, nil
	}

	if ev.Type == models.EventDeleted {
		return r.applyDelete(ctx, ev)
	}

	existing, err := r.items.GetItem(ctx, ev.Item.ID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return true, r.insert(ctx, ev)
		}
		return false, fmt.Errorf("failed to look up item: %w", err)
	}

	// Staleness is resolved by timestamp, not arrival order
	if ev.Timestamp <= existing.LastModified {
		r.logger.Debug("Discarding stale remote event",
			"target_id", ev.Item.ID,
			"event_ts", ev.Timestamp,
			"local_ts", existing.LastModified)
		return false, nil
	}

	pending, err := r.queue.HasPendingFor(ctx, ev.Item.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check pending operations: %w", err)
	}

	if pending {
		return true, r.flagConflict(ctx, existing, ev)
	}

	return true, r.overwrite(ctx, existing, ev)
}

// applyDelete removes the item unconditionally and drops any queued
// operation for it: a delete always wins, a deleted item cannot be
// meaningfully updated.
func (r *Reconciler) applyDelete(ctx context.Context, ev models.RemoteEvent) (bool, error) {
	dropped, err := r.queue.RemoveForTarget(ctx, ev.Item.ID)
	if err != nil {
		return false, fmt.Errorf("failed to drop queued operations: %w", err)
	}
	if dropped > 0 {
		r.logger.Info("Remote delete superseded queued operations",
			"target_id", ev.Item.ID,
			"dropped", dropped)
	}

	if err := r.items.DeleteItem(ctx, ev.Item.ID); err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}
	return true, nil
}

// insert stores a previously unknown item as synced.
func (r *Reconciler) insert(ctx context.Context, ev models.RemoteEvent) error {
	item := &models.Item{
		ID:           ev.Item.ID,
		Title:        ev.Item.Title,
		Completed:    ev.Item.Completed,
		OwnerID:      ev.Item.OwnerID,
		LastModified: ev.Timestamp, // event time, never local wall clock
		SyncStatus:   models.StatusSynced,
	}
	if err := r.items.SaveItem(ctx, item); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// overwrite adopts the remote fields wholesale.
func (r *Reconciler) overwrite(ctx context.Context, existing *models.Item, ev models.RemoteEvent) error {
	existing.Title = ev.Item.Title
	existing.Completed = ev.Item.Completed
	existing.LastModified = ev.Timestamp
	existing.SyncStatus = models.StatusSynced
	existing.Remote = nil

	if err := r.items.SaveItem(ctx, existing); err != nil {
		return fmt.Errorf("failed to overwrite item: %w", err)
	}
	return nil
}

// flagConflict keeps the locally pending edit visible and retains the remote
// snapshot alongside it. The flag clears only when the pending operation
// resolves: confirmed means the local write stands and is rebroadcast,
// abandoned means the retained remote value is adopted.
func (r *Reconciler) flagConflict(ctx context.Context, existing *models.Item, ev models.RemoteEvent) error {
	existing.SyncStatus = models.StatusConflict
	existing.Remote = &models.RemoteVersion{
		Title:        ev.Item.Title,
		Completed:    ev.Item.Completed,
		LastModified: ev.Timestamp,
	}

	if err := r.items.SaveItem(ctx, existing); err != nil {
		return fmt.Errorf("failed to flag conflict: %w", err)
	}

	r.logger.Info("Concurrent edit collision detected",
		"target_id", existing.ID,
		"remote_origin", ev.OriginUserID)
	return nil
}
