package eventstore

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable is returned when the storage location cannot be created or opened
	ErrStorageUnavailable = errors.New("Event storage unavailable")

	// ErrInvalidEvent is returned when a record is missing a required field. Nothing is written.
	ErrInvalidEvent = errors.New("Invalid event")
)

// StorageError wraps every failure that comes out of the store, tagged with the operation
// that was running at the time.
type StorageError struct {
	Op  string // open, append, append-bulk, read, query
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("Event store %v failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
