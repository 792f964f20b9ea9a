package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when a kind outside the supported set is requested.
	ErrUnknownKind = errors.New("unknown document kind")

	// ErrNotFound is returned when an operation references a document id the store does not hold.
	ErrNotFound = errors.New("document not found")

	// ErrShapeMismatch is returned by strict callers when a content patch does not fit the document kind.
	ErrShapeMismatch = errors.New("content shape does not match document kind")

	ErrSlideOutOfRange = errors.New("slide index out of range")
	ErrLastSlide       = errors.New("cannot delete the only slide")
	ErrCellOutOfRange  = errors.New("cell out of range")
)

// DocumentError records the operation and document id behind a failure.
type DocumentError struct {
	Op  string
	ID  string
	Err error
}

func (e *DocumentError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("document %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("document %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// NewError wraps err with the operation and id it belongs to.
func NewError(op, id string, err error) error {
	return &DocumentError{Op: op, ID: id, Err: err}
}
