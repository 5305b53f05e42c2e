package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check with errors.Is.
var (
	ErrNotFound         = errors.New("recur: not found")
	ErrInvalidCategory  = errors.New("recur: invalid category")
	ErrInvalidPriority  = errors.New("recur: invalid priority")
	ErrInvalidPolicy    = errors.New("recur: invalid policy")
	ErrInvalidRating    = errors.New("recur: invalid rating")
	ErrInvalidEventKind = errors.New("recur: invalid event kind")
)

// PreconditionError reports a lifecycle operation applied to a card that
// cannot accept it, such as rating a non-flashcard or skipping an archived
// card. These are caller mistakes and are never silently ignored.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("recur: %s: %s", e.Op, e.Reason)
}

// NewPreconditionError builds a PreconditionError for op with a formatted reason.
func NewPreconditionError(op, format string, args ...any) *PreconditionError {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
