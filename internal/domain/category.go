package domain

import (
	"encoding"
	"fmt"
)

// Category is the kind of a card. The set is fixed; scheduling behavior that
// differs per kind is looked up through the trait methods below rather than
// branched on at call sites.
type Category string

const (
	Note      Category = "note"
	Todo      Category = "todo"
	Flashcard Category = "flashcard"
)

var _ encoding.TextUnmarshaler = (*Category)(nil)

// categoryTraits is the single table describing how each category behaves.
type categoryTraits struct {
	skipGrows   bool // skipping means "show me later" instead of "show me sooner"
	ratable     bool
	completable bool
}

var traitsByCategory = map[Category]categoryTraits{
	// Skipping a note postpones it; the reader chose not to engage now.
	Note: {skipGrows: true},
	// Skipping a todo or flashcard signals it needs attention sooner.
	Todo:      {completable: true},
	Flashcard: {ratable: true},
}

// IsValid reports whether c is one of the three known categories.
func (c Category) IsValid() bool {
	_, ok := traitsByCategory[c]
	return ok
}

// SkipGrowsInterval reports whether a skip pushes the card further out
// instead of pulling it closer.
func (c Category) SkipGrowsInterval() bool { return traitsByCategory[c].skipGrows }

// SupportsRating reports whether the card kind accepts easy/good/hard ratings.
func (c Category) SupportsRating() bool { return traitsByCategory[c].ratable }

// SupportsCompletion reports whether the card kind can be marked complete.
func (c Category) SupportsCompletion() bool { return traitsByCategory[c].completable }

func (c Category) String() string { return string(c) }

// UnmarshalText implements encoding.TextUnmarshaler, rejecting unknown kinds.
func (c *Category) UnmarshalText(text []byte) error {
	v := Category(text)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, text)
	}
	*c = v
	return nil
}

// ParseCategory converts a stored string into a Category.
func ParseCategory(s string) (Category, error) {
	var c Category
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return c, nil
}
