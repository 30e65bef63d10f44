package storage

import (
	"context"

	"github.com/taskwire/taskwire/internal/models"
)

//go:generate moq -out queue_mock.go . OperationQueue

// OperationQueue defines the durable FIFO list of not-yet-confirmed mutations.
// Ordering is by Operation.CreatedAt. Entries never expire: they stay queued
// until confirmed by the remote store or superseded by the reconciler.
type OperationQueue interface {
	// Enqueue durably appends an operation before returning (the caller may
	// crash immediately after and not lose it). Enqueueing an operation with
	// an already-queued OpID keeps one entry, not two. A Delete for a target
	// drops queued Update/Toggle entries for that target, and an Update/Toggle
	// enqueued after a queued Delete for the same target is discarded — a
	// deleted item cannot be meaningfully updated.
	Enqueue(ctx context.Context, op *models.Operation) error

	// DequeueConfirmed retires an operation after remote acknowledgment.
	// Returns ErrOperationNotFound if no such operation is queued.
	DequeueConfirmed(ctx context.Context, opID string) error

	// PeekAll returns all queued operations in FIFO order without removing them
	PeekAll(ctx context.Context) ([]*models.Operation, error)

	// HasPendingFor reports whether any queued operation targets the given item
	HasPendingFor(ctx context.Context, targetID int64) (bool, error)

	// RemoveForTarget drops every queued operation for the given item and
	// returns how many were removed. Used when a remote delete wins.
	RemoveForTarget(ctx context.Context, targetID int64) (int, error)

	// IncrementAttempts bumps the retry counter of a queued operation
	IncrementAttempts(ctx context.Context, opID string) error

	// Size returns the number of queued operations
	Size(ctx context.Context) (int, error)
}
