package domain

import (
	"fmt"
	"time"
)

// EventKind names an entry in a card's audit trail.
type EventKind string

const (
	EventEnqueue    EventKind = "enqueue"    // card observed entering the due queue
	EventSkip       EventKind = "skip"       // card skipped out of the queue
	EventRemoval    EventKind = "removal"    // card dismissed or archived out of the queue
	EventCompletion EventKind = "completion" // todo marked complete
	EventRating     EventKind = "rating"     // flashcard rated
)

// IsValid reports whether k is a known event kind.
func (k EventKind) IsValid() bool {
	switch k {
	case EventEnqueue, EventSkip, EventRemoval, EventCompletion, EventRating:
		return true
	}
	return false
}

func (k EventKind) String() string { return string(k) }

// ParseEventKind converts a stored string into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventKind, s)
	}
	return k, nil
}

// Event is one append-only audit record. Rating is set only when Kind is
// EventRating. Events are never consulted by the interval math.
type Event struct {
	Kind   EventKind `json:"kind"`
	Rating Rating    `json:"rating,omitempty"`
	At     time.Time `json:"at"`
}
