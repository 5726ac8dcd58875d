package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind is the machine-readable classification surfaced to callers.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "InvalidInput"
	KindItemNotFound      ErrorKind = "ItemNotFound"
	KindInsufficientStock ErrorKind = "InsufficientStock"
	KindConflict          ErrorKind = "Conflict"
	KindUnavailable       ErrorKind = "Unavailable"
	KindTimeout           ErrorKind = "Timeout"
	KindDuplicateRequest  ErrorKind = "DuplicateRequest"
)

var ErrOrderNotFound = errors.New("order not found")

// PlacementError reports why an order could not be placed. SweetID names the
// offending line where one exists.
type PlacementError struct {
	Kind    ErrorKind
	SweetID uuid.UUID
	Reason  string
}

func (e *PlacementError) Error() string {
	if e.SweetID != uuid.Nil {
		return fmt.Sprintf("%s: %s (sweet %s)", e.Kind, e.Reason, e.SweetID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func NewPlacementError(kind ErrorKind, sweetID uuid.UUID, format string, args ...any) *PlacementError {
	return &PlacementError{Kind: kind, SweetID: sweetID, Reason: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or Unavailable for errors that did
// not originate in placement validation.
func KindOf(err error) ErrorKind {
	var pe *PlacementError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnavailable
}
