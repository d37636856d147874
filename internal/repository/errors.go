package repository

import (
	"errors"
	"fmt"
)

// StorageError wraps a failure of the storage backend. The backend error is
// kept unchanged and reachable through errors.Is/As.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the backend error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is or wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ErrTypeMismatch is returned when a document of another type is handed to
// a repository.
var ErrTypeMismatch = errors.New("document type does not match repository")

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
