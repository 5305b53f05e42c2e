// Package lifecycle implements every mutating card operation. Operations
// take the acting timestamp explicitly and never read the wall clock, so the
// same inputs always produce the same card state. Callers persist the result.
package lifecycle

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dermotcahill/recur/internal/domain"
	"github.com/dermotcahill/recur/internal/policy"
)

// Params configures a new card. Zero values fall back to sensible defaults:
// recurring, dynamic, skippable, mild policies.
type Params struct {
	Category             domain.Category
	Text                 string
	Answer               string
	Tags                 []string
	FolderID             string
	Priority             domain.Priority
	InitialIntervalHours int

	// DueAt overrides the initial due time; zero means due at now.
	DueAt time.Time

	Fingerprint string
	SourceID    int64
}

// New creates a card due at now (or at p.DueAt when set) with zeroed counters.
func New(p Params, now time.Time) *domain.Card {
	due := p.DueAt
	if due.IsZero() {
		due = now
	}
	interval := domain.ClampInterval(p.InitialIntervalHours)
	return &domain.Card{
		ID:                   uuid.NewString(),
		Category:             p.Category,
		Text:                 p.Text,
		Answer:               p.Answer,
		Tags:                 p.Tags,
		FolderID:             p.FolderID,
		Priority:             p.Priority,
		IntervalHours:        interval,
		InitialIntervalHours: interval,
		NextDueAt:            due,
		IsRecurring:          true,
		DynamicInterval:      true,
		SkipEnabled:          true,
		SkipPolicy:           domain.PolicyMild,
		RatingEasyPolicy:     domain.PolicyMild,
		RatingHardPolicy:     domain.PolicyMild,
		Fingerprint:          p.Fingerprint,
		SourceID:             p.SourceID,
	}
}

// SetInterval overrides the interval by hand, clamping to the valid range.
// It does not reschedule; callers chain RescheduleFrom when they want the
// change projected forward.
func SetInterval(c *domain.Card, hours int) error {
	if c.Archived {
		return domain.NewPreconditionError("set interval", "card %s is archived", c.ID)
	}
	c.IntervalHours = domain.ClampInterval(hours)
	return nil
}

// AdjustInterval multiplies the interval, rounding to whole hours and
// clamping. Pure arithmetic; NextDueAt is untouched.
func AdjustInterval(c *domain.Card, multiplier float64) error {
	if c.Archived {
		return domain.NewPreconditionError("adjust interval", "card %s is archived", c.ID)
	}
	c.IntervalHours = domain.ClampInterval(int(math.Round(float64(c.IntervalHours) * multiplier)))
	return nil
}

// RescheduleFrom projects the next due time forward from an anchor, normally
// the moment the card left the queue.
func RescheduleFrom(c *domain.Card, anchor time.Time) {
	c.NextDueAt = anchor.Add(time.Duration(c.IntervalHours) * time.Hour)
}

// EnqueueNow makes the card immediately due without touching its interval.
func EnqueueNow(c *domain.Card, now time.Time) error {
	if c.Archived {
		return domain.NewPreconditionError("enqueue", "card %s is archived; unarchive it first", c.ID)
	}
	c.NextDueAt = now
	return nil
}

// RemoveFromQueue is the central queue-departure transition.
//
// toArchive puts the card in the terminal non-scheduled state. A skip counts,
// optionally adjusts the interval per the card's skip policy, and reschedules.
// A plain removal reschedules recurring cards and archives non-recurring
// ones: a one-shot card that leaves the queue is finished.
func RemoveFromQueue(c *domain.Card, now time.Time, isSkip, toArchive bool) error {
	if toArchive {
		if c.Archived {
			return nil // already terminal
		}
		c.AppendEvent(domain.EventRemoval, now)
		archive(c, now)
		return nil
	}
	if c.Archived {
		return domain.NewPreconditionError("remove from queue", "card %s is archived", c.ID)
	}

	if isSkip {
		c.SkipCount++
		if c.DynamicInterval && c.SkipEnabled {
			m := policy.ResolveMultiplier(c.SkipPolicy, policy.Skip, c.Category)
			if err := AdjustInterval(c, m); err != nil {
				return err
			}
		}
		c.AppendEvent(domain.EventSkip, now)
		depart(c, now, false)
		return nil
	}

	c.AppendEvent(domain.EventRemoval, now)
	depart(c, now, c.Category == domain.Todo && c.ResetIntervalOnComplete)
	return nil
}

// depart finishes a queue exit: non-recurring cards are archived, recurring
// ones are rescheduled from now. IntervalHours >= 1 guarantees the new due
// time differs from now.
func depart(c *domain.Card, now time.Time, resetInterval bool) {
	if !c.IsRecurring {
		archive(c, now)
		return
	}
	if resetInterval {
		c.IntervalHours = domain.ClampInterval(c.InitialIntervalHours)
	}
	RescheduleFrom(c, now)
	c.LastRemovedAt = now
}

func archive(c *domain.Card, now time.Time) {
	c.Archived = true
	c.NextDueAt = domain.ArchivedDue
	c.LastRemovedAt = now
}

// Dismiss removes the card without completing it. Essential cards are
// protected from silent loss: their dismissal is treated as a skip.
func Dismiss(c *domain.Card, now time.Time) error {
	return RemoveFromQueue(c, now, c.IsEssential, false)
}

// SubmitRating records a flashcard self-assessment and reschedules. A good
// rating carries multiplier 1.0 and leaves the interval untouched.
func SubmitRating(c *domain.Card, now time.Time, r domain.Rating) error {
	if !c.Category.SupportsRating() {
		return domain.NewPreconditionError("submit rating", "%s cards cannot be rated", c.Category)
	}
	if c.Archived {
		return domain.NewPreconditionError("submit rating", "card %s is archived", c.ID)
	}
	if !r.IsValid() {
		return domain.NewPreconditionError("submit rating", "unknown rating %q", string(r))
	}
	c.AppendRating(r, now)
	if c.DynamicInterval {
		if err := AdjustInterval(c, policy.RatingMultiplier(c, r)); err != nil {
			return err
		}
	}
	depart(c, now, false)
	return nil
}

// MarkComplete finishes a todo: a completion event plus the normal removal
// path, which also resets the interval when the todo is configured to.
func MarkComplete(c *domain.Card, now time.Time) error {
	if !c.Category.SupportsCompletion() {
		return domain.NewPreconditionError("mark complete", "%s cards cannot be completed", c.Category)
	}
	if c.Archived {
		return domain.NewPreconditionError("mark complete", "card %s is archived", c.ID)
	}
	c.AppendEvent(domain.EventCompletion, now)
	return RemoveFromQueue(c, now, false, false)
}

// Unarchive returns the card to circulation, immediately due. The interval is
// preserved, so its rhythm resumes where it left off.
func Unarchive(c *domain.Card, now time.Time) {
	c.Archived = false
	c.NextDueAt = now
}

// MoveToFolder re-points the card's folder reference; empty means no folder.
func MoveToFolder(c *domain.Card, folderID string) {
	c.FolderID = folderID
}

// SetPriority changes the queue sort priority.
func SetPriority(c *domain.Card, p domain.Priority) error {
	if !p.IsValid() {
		return domain.NewPreconditionError("set priority", "unknown priority %d", int(p))
	}
	c.Priority = p
	return nil
}

// SetContent replaces the card's text, answer and tags.
func SetContent(c *domain.Card, text, answer string, tags []string) {
	c.Text = text
	c.Answer = answer
	c.Tags = tags
}

// SetCategory changes the card kind. Fields that only apply to the old kind
// keep their values; they are simply inert under the new kind's traits.
func SetCategory(c *domain.Card, cat domain.Category) error {
	if !cat.IsValid() {
		return domain.NewPreconditionError("set category", "unknown category %q", string(cat))
	}
	c.Category = cat
	return nil
}

// ToggleEssential flips the essential safety rail.
func ToggleEssential(c *domain.Card) { c.IsEssential = !c.IsEssential }

// ToggleDynamic flips adaptive interval adjustment on or off.
func ToggleDynamic(c *domain.Card) { c.DynamicInterval = !c.DynamicInterval }
