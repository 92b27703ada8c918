package themes

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by reads of a theme id that does not exist.
	ErrNotFound = errors.New("theme not found")
	// ErrNotFoundOrForbidden is returned by writes to a theme that is missing,
	// a system theme, or owned by someone else. The cases are not
	// distinguished so callers cannot discover other users' themes.
	ErrNotFoundOrForbidden = errors.New("theme not found or not editable")
	// ErrNoRows is what a Repository returns when a lookup matches nothing.
	ErrNoRows = errors.New("no rows")
)

// StorageError wraps a repository failure. It is safe to retry the request.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("theme storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
