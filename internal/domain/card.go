package domain

import "time"

// Interval bounds in hours. Out-of-range intervals are clamped, never rejected.
const (
	MinIntervalHours = 1
	MaxIntervalHours = 8760 // one year
)

// ArchivedDue is the due timestamp assigned to archived cards. It is far
// enough in the future that an archived card never compares as due.
var ArchivedDue = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// Card is a note, todo or flashcard that cycles through the review queue.
// All scheduling fields are mutated by the lifecycle package; callers persist
// the result through storage.
type Card struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Answer   string   `json:"answer,omitempty"` // flashcard back side
	Tags     []string `json:"tags,omitempty"`
	FolderID string   `json:"folder_id,omitempty"` // empty = no folder
	Priority Priority `json:"priority"`

	// IntervalHours drifts under policy adjustments; InitialIntervalHours is
	// the configured baseline it can be reset to.
	IntervalHours        int       `json:"interval_hours"`
	InitialIntervalHours int       `json:"initial_interval_hours"`
	NextDueAt            time.Time `json:"next_due_at"`

	IsRecurring     bool   `json:"is_recurring"`
	IsEssential     bool   `json:"is_essential"`
	DynamicInterval bool   `json:"dynamic_interval"`
	SkipEnabled     bool   `json:"skip_enabled"`
	SkipPolicy      Policy `json:"skip_policy"`

	// Rating policies apply to flashcards only. A "good" rating is always the
	// identity and has no configurable policy.
	RatingEasyPolicy Policy `json:"rating_easy_policy"`
	RatingHardPolicy Policy `json:"rating_hard_policy"`

	ResetIntervalOnComplete bool `json:"reset_interval_on_complete"` // todos only

	Archived      bool      `json:"archived"`
	LastRemovedAt time.Time `json:"last_removed_at"` // zero until the first queue departure

	SeenCount int `json:"seen_count"`
	SkipCount int `json:"skip_count"`

	// Fingerprint and SourceID are set on cards imported from a card-file
	// source and are used to reconcile re-scans. Both are zero for cards
	// created by hand.
	Fingerprint string `json:"fingerprint,omitempty"`
	SourceID    int64  `json:"source_id,omitempty"`

	// Events is the append-only audit trail. It is not consulted by the
	// scheduling math, only by the queue selector's seen bookkeeping and by
	// history views.
	Events []Event `json:"events,omitempty"`
}

// IsDue reports whether the card belongs in the active queue at now.
func (c *Card) IsDue(now time.Time) bool {
	return !c.Archived && !c.NextDueAt.After(now)
}

// AppendEvent records an audit event on the card.
func (c *Card) AppendEvent(kind EventKind, at time.Time) {
	c.Events = append(c.Events, Event{Kind: kind, At: at})
}

// AppendRating records a rating event on the card.
func (c *Card) AppendRating(r Rating, at time.Time) {
	c.Events = append(c.Events, Event{Kind: EventRating, Rating: r, At: at})
}

// LastEnqueuedAt returns the timestamp of the most recent enqueue event, or
// the zero time if the card has never been observed as due.
func (c *Card) LastEnqueuedAt() time.Time {
	for i := len(c.Events) - 1; i >= 0; i-- {
		if c.Events[i].Kind == EventEnqueue {
			return c.Events[i].At
		}
	}
	return time.Time{}
}

// ClampInterval forces h into the valid interval range.
func ClampInterval(h int) int {
	if h < MinIntervalHours {
		return MinIntervalHours
	}
	if h > MaxIntervalHours {
		return MaxIntervalHours
	}
	return h
}

// Folder groups cards. It carries no scheduling semantics; deleting a folder
// re-points its cards to "no folder" in storage.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
