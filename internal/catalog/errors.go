package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict means a create lost a race and the retried lookup still
	// found nothing.
	ErrConflict = errors.New("catalog: conflicting concurrent write")

	ErrInvalidQuantity = errors.New("catalog: quantity must be positive")
	ErrMissingName     = errors.New("catalog: name is required")
	ErrUnreadable      = errors.New("catalog: unreadable table")
)

// ImportError wraps the storage failure that aborted an import. Nothing
// from the file was committed.
type ImportError struct {
	RunID string
	File  string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s (run %s): %v", e.File, e.RunID, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
