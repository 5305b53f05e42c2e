package domain

import (
	"encoding"
	"fmt"
)

// Priority orders the due queue; higher priorities surface first.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

var priorityNames = [...]string{
	PriorityNone:   "none",
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

var (
	_ fmt.Stringer             = Priority(0)
	_ encoding.TextMarshaler   = Priority(0)
	_ encoding.TextUnmarshaler = (*Priority)(nil)
)

// IsValid reports whether p is within the known priority range.
func (p Priority) IsValid() bool { return p >= PriorityNone && p <= PriorityHigh }

func (p Priority) String() string {
	if p.IsValid() {
		return priorityNames[p]
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int(p))
	}
	return []byte(priorityNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	for i, name := range priorityNames {
		if name == string(text) {
			*p = Priority(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidPriority, text)
}

// ParsePriority converts a stored string into a Priority.
func ParsePriority(s string) (Priority, error) {
	var p Priority
	if err := p.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return p, nil
}

// Policy is the configured strength of an adaptive interval adjustment.
type Policy string

const (
	PolicyNone       Policy = "none"
	PolicyMild       Policy = "mild"
	PolicyAggressive Policy = "aggressive"
)

var _ encoding.TextUnmarshaler = (*Policy)(nil)

// IsValid reports whether p is a known policy level.
func (p Policy) IsValid() bool {
	switch p {
	case PolicyNone, PolicyMild, PolicyAggressive:
		return true
	}
	return false
}

func (p Policy) String() string { return string(p) }

// UnmarshalText implements encoding.TextUnmarshaler, rejecting unknown levels.
func (p *Policy) UnmarshalText(text []byte) error {
	v := Policy(text)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, text)
	}
	*p = v
	return nil
}

// ParsePolicy converts a stored string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	var p Policy
	if err := p.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return p, nil
}

// Rating is a flashcard self-assessment. Good always maintains the current
// schedule; easy and hard shift it per the card's rating policies.
type Rating string

const (
	RatingEasy Rating = "easy"
	RatingGood Rating = "good"
	RatingHard Rating = "hard"
)

var _ encoding.TextUnmarshaler = (*Rating)(nil)

// IsValid reports whether r is a known rating.
func (r Rating) IsValid() bool {
	switch r {
	case RatingEasy, RatingGood, RatingHard:
		return true
	}
	return false
}

func (r Rating) String() string { return string(r) }

// UnmarshalText implements encoding.TextUnmarshaler, rejecting unknown ratings.
func (r *Rating) UnmarshalText(text []byte) error {
	v := Rating(text)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRating, text)
	}
	*r = v
	return nil
}

// ParseRating converts a stored string into a Rating.
func ParseRating(s string) (Rating, error) {
	var r Rating
	if err := r.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return r, nil
}
