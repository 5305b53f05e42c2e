// Package queue selects, filters and orders the currently-due card set. The
// selector is pure over its inputs except for one piece of bookkeeping: the
// first time a card is observed in its due period it gains a seen count and
// an enqueue event, and the caller is told which cards to persist.
package queue

import (
	"sort"
	"time"

	"github.com/dermotcahill/recur/internal/domain"
)

// NoFolder is the reserved folder selector matching cards without a folder.
// It is distinct from an empty folder selection, which means "all folders".
const NoFolder = "none"

// Filter restricts the selection. Empty slices match everything.
type Filter struct {
	Categories []domain.Category
	Folders    []string // folder IDs, optionally including NoFolder
}

func (f Filter) matchCategory(c *domain.Card) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, cat := range f.Categories {
		if c.Category == cat {
			return true
		}
	}
	return false
}

func (f Filter) matchFolder(c *domain.Card) bool {
	if len(f.Folders) == 0 {
		return true
	}
	for _, id := range f.Folders {
		if id == NoFolder && c.FolderID == "" {
			return true
		}
		if id == c.FolderID {
			return true
		}
	}
	return false
}

// Matches reports whether the card passes both filter dimensions.
func (f Filter) Matches(c *domain.Card) bool {
	return f.matchCategory(c) && f.matchFolder(c)
}

// Result is one selection pass over the card set.
type Result struct {
	// Queued holds the due cards, priority descending then oldest-due first.
	Queued []*domain.Card
	// NextUpcoming is the matching card with the nearest future due time,
	// nil when nothing is scheduled ahead.
	NextUpcoming *domain.Card
	// TotalMatching counts all non-archived cards passing the filter,
	// due or not.
	TotalMatching int
	// Marked lists cards whose seen bookkeeping changed during this pass;
	// the caller persists exactly these.
	Marked []*domain.Card
}

// Select computes the due queue at now. Repeated calls within the same due
// period do not inflate seen counts: a card is marked only when it has no
// enqueue event at or after its current due time.
func Select(cards []*domain.Card, now time.Time, f Filter) Result {
	var res Result

	for _, c := range cards {
		if c.Archived || !f.Matches(c) {
			continue
		}
		res.TotalMatching++

		if c.IsDue(now) {
			if c.LastEnqueuedAt().Before(c.NextDueAt) {
				c.SeenCount++
				c.AppendEvent(domain.EventEnqueue, now)
				res.Marked = append(res.Marked, c)
			}
			res.Queued = append(res.Queued, c)
			continue
		}

		if res.NextUpcoming == nil || c.NextDueAt.Before(res.NextUpcoming.NextDueAt) {
			res.NextUpcoming = c
		}
	}

	sort.SliceStable(res.Queued, func(i, j int) bool {
		a, b := res.Queued[i], res.Queued[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.NextDueAt.Equal(b.NextDueAt) {
			return a.NextDueAt.Before(b.NextDueAt)
		}
		return a.ID < b.ID
	})

	return res
}
