package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record id has no persisted record.
var ErrNotFound = errors.New("record not found")

// StorageError reports a failed attachment or record write. It is fatal
// for the record being processed but must not touch state already
// written for other records.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
