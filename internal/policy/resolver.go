// Package policy resolves adaptive interval multipliers. It is pure table
// lookup: a policy level, a triggering event and a card category map to a
// single multiplier, with no state and no error path.
package policy

import "github.com/dermotcahill/recur/internal/domain"

// EventKind is the trigger being resolved.
type EventKind int

const (
	Skip EventKind = iota
	RatingEasy
	RatingHard
)

// Shrink/grow factors are reciprocal pairs so repeated opposite adjustments
// roughly cancel out.
const (
	mildShrink = 0.75
	mildGrow   = 1.0 / mildShrink
	aggrShrink = 0.5
	aggrGrow   = 1.0 / aggrShrink
)

// ResolveMultiplier returns the factor to apply to a card's interval for the
// given trigger. Values below 1 pull the card closer, values above 1 push it
// out, and 1 leaves the schedule untouched.
//
// Direction follows the meaning of the action, not just the policy level:
// skipping a todo or flashcard means "I want this sooner" and shrinks the
// interval, while skipping a note means "not now" and grows it. An easy
// rating always grows, a hard rating always shrinks. A good rating has no
// policy and never reaches this function; it is the identity by construction.
func ResolveMultiplier(p domain.Policy, event EventKind, category domain.Category) float64 {
	if p == domain.PolicyNone {
		return 1.0
	}

	grow := false
	switch event {
	case Skip:
		grow = category.SkipGrowsInterval()
	case RatingEasy:
		grow = true
	case RatingHard:
		grow = false
	}

	switch p {
	case domain.PolicyMild:
		if grow {
			return mildGrow
		}
		return mildShrink
	case domain.PolicyAggressive:
		if grow {
			return aggrGrow
		}
		return aggrShrink
	}
	return 1.0
}

// RatingMultiplier resolves the multiplier for a flashcard rating using the
// card's per-outcome policies. Good maintains the current schedule.
func RatingMultiplier(card *domain.Card, r domain.Rating) float64 {
	switch r {
	case domain.RatingEasy:
		return ResolveMultiplier(card.RatingEasyPolicy, RatingEasy, card.Category)
	case domain.RatingHard:
		return ResolveMultiplier(card.RatingHardPolicy, RatingHard, card.Category)
	default:
		return 1.0
	}
}
