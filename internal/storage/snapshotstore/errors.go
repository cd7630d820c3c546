package snapshotstore

import "errors"

var (
	// ErrNotFound indicates that a requested record was not in the store.
	ErrNotFound = errors.New("snapshotstore: record not found")
	// ErrClosed indicates an operation against an already-closed store.
	ErrClosed = errors.New("snapshotstore: store is closed")
	// ErrInvalidConfig indicates a Config failed validation.
	ErrInvalidConfig = errors.New("snapshotstore: invalid configuration")
)
