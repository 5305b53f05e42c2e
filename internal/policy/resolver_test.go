package policy

import (
	"testing"

	"github.com/dermotcahill/recur/internal/domain"
)

func TestResolveMultiplierDirection(t *testing.T) {
	tests := []struct {
		name     string
		policy   domain.Policy
		event    EventKind
		category domain.Category
		want     string // "shrink", "grow" or "identity"
	}{
		{"skip todo pulls sooner", domain.PolicyMild, Skip, domain.Todo, "shrink"},
		{"skip flashcard pulls sooner", domain.PolicyAggressive, Skip, domain.Flashcard, "shrink"},
		{"skip note pushes later", domain.PolicyMild, Skip, domain.Note, "grow"},
		{"easy rating grows", domain.PolicyMild, RatingEasy, domain.Flashcard, "grow"},
		{"hard rating shrinks", domain.PolicyAggressive, RatingHard, domain.Flashcard, "shrink"},
		{"none is identity", domain.PolicyNone, Skip, domain.Todo, "identity"},
		{"none is identity for ratings", domain.PolicyNone, RatingEasy, domain.Flashcard, "identity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ResolveMultiplier(tt.policy, tt.event, tt.category)
			switch tt.want {
			case "shrink":
				if m >= 1.0 {
					t.Errorf("expected multiplier < 1.0, got %v", m)
				}
			case "grow":
				if m <= 1.0 {
					t.Errorf("expected multiplier > 1.0, got %v", m)
				}
			case "identity":
				if m != 1.0 {
					t.Errorf("expected multiplier 1.0, got %v", m)
				}
			}
		})
	}
}

func TestResolveMultiplierOrdering(t *testing.T) {
	t.Run("aggressive shrinks more than mild", func(t *testing.T) {
		mild := ResolveMultiplier(domain.PolicyMild, Skip, domain.Todo)
		aggr := ResolveMultiplier(domain.PolicyAggressive, Skip, domain.Todo)
		if aggr >= mild {
			t.Errorf("aggressive (%v) should shrink more than mild (%v)", aggr, mild)
		}
	})

	t.Run("aggressive grows more than mild", func(t *testing.T) {
		mild := ResolveMultiplier(domain.PolicyMild, RatingEasy, domain.Flashcard)
		aggr := ResolveMultiplier(domain.PolicyAggressive, RatingEasy, domain.Flashcard)
		if aggr <= mild {
			t.Errorf("aggressive (%v) should grow more than mild (%v)", aggr, mild)
		}
	})
}

func TestResolveMultiplierReciprocal(t *testing.T) {
	shrink := ResolveMultiplier(domain.PolicyAggressive, RatingHard, domain.Flashcard)
	grow := ResolveMultiplier(domain.PolicyAggressive, RatingEasy, domain.Flashcard)
	if got := shrink * grow; got < 0.999 || got > 1.001 {
		t.Errorf("expected shrink and grow to be reciprocal, product = %v", got)
	}
}

func TestRatingMultiplierGoodIsIdentity(t *testing.T) {
	card := &domain.Card{
		Category:         domain.Flashcard,
		RatingEasyPolicy: domain.PolicyAggressive,
		RatingHardPolicy: domain.PolicyAggressive,
	}
	if m := RatingMultiplier(card, domain.RatingGood); m != 1.0 {
		t.Errorf("good rating must be identity, got %v", m)
	}
}
