package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrItemNotFound indicates that the item is not in the snapshot store
	ErrItemNotFound = errors.New("item not found")

	// ErrOperationNotFound indicates that no queued operation has the given op id
	ErrOperationNotFound = errors.New("operation not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
