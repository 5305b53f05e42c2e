// Package engine wires the scheduling core to storage. Every method is a
// load-operate-persist round trip over an explicitly injected store, so two
// processes (the app and the widget) can each hold their own Engine over the
// same database file. Methods take the acting timestamp from the caller; the
// engine never reads the wall clock.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dermotcahill/recur/internal/domain"
	"github.com/dermotcahill/recur/internal/lifecycle"
	"github.com/dermotcahill/recur/internal/queue"
	"github.com/dermotcahill/recur/internal/storage"
)

// Engine exposes the queue read API and the lifecycle write API.
type Engine struct {
	db *storage.DB
}

// New creates an Engine over the given store.
func New(db *storage.DB) *Engine {
	return &Engine{db: db}
}

// CreateCard creates and persists a new card.
func (e *Engine) CreateCard(p lifecycle.Params, now time.Time) (*domain.Card, error) {
	if !p.Category.IsValid() {
		return nil, domain.NewPreconditionError("create card", "unknown category %q", string(p.Category))
	}
	if !p.Priority.IsValid() {
		return nil, domain.NewPreconditionError("create card", "unknown priority %d", int(p.Priority))
	}
	c := lifecycle.New(p, now)
	if err := e.db.InsertCard(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Card retrieves a single card with its history.
func (e *Engine) Card(id string) (*domain.Card, error) {
	c, err := e.db.FindCardByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("card %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

// History returns the card's append-only event trail.
func (e *Engine) History(id string) ([]domain.Event, error) {
	c, err := e.Card(id)
	if err != nil {
		return nil, err
	}
	return c.Events, nil
}

// FetchQueue selects the due queue at now and persists the selector's seen
// bookkeeping before returning, so repeated polls from either process stay
// idempotent.
func (e *Engine) FetchQueue(now time.Time, f queue.Filter) (queue.Result, error) {
	cards, err := e.db.ListCards()
	if err != nil {
		return queue.Result{}, err
	}
	res := queue.Select(cards, now, f)
	for _, c := range res.Marked {
		if err := e.db.UpdateCard(c); err != nil {
			return queue.Result{}, fmt.Errorf("persisting seen count for card %s: %w", c.ID, err)
		}
		// The selector appends exactly one enqueue event per marked card.
		if err := e.db.AppendEvents(c.ID, c.Events[len(c.Events)-1:]); err != nil {
			return queue.Result{}, fmt.Errorf("persisting enqueue event for card %s: %w", c.ID, err)
		}
	}
	return res, nil
}

// withCard loads a card, applies op, and persists the card plus whatever
// events op appended.
func (e *Engine) withCard(id string, op func(*domain.Card) error) (*domain.Card, error) {
	c, err := e.Card(id)
	if err != nil {
		return nil, err
	}
	before := len(c.Events)
	if err := op(c); err != nil {
		return nil, err
	}
	if err := e.db.UpdateCard(c); err != nil {
		return nil, err
	}
	if err := e.db.AppendEvents(c.ID, c.Events[before:]); err != nil {
		return nil, err
	}
	return c, nil
}

// Skip removes the card from the queue as a skip.
func (e *Engine) Skip(id string, now time.Time) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.RemoveFromQueue(c, now, true, false)
	})
}

// Dismiss removes the card without completing it; essential cards skip instead.
func (e *Engine) Dismiss(id string, now time.Time) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.Dismiss(c, now)
	})
}

// Complete marks a todo done.
func (e *Engine) Complete(id string, now time.Time) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.MarkComplete(c, now)
	})
}

// Rate records a flashcard rating.
func (e *Engine) Rate(id string, now time.Time, r domain.Rating) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.SubmitRating(c, now, r)
	})
}

// Archive puts the card in the terminal non-scheduled state.
func (e *Engine) Archive(id string, now time.Time) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.RemoveFromQueue(c, now, false, true)
	})
}

// Unarchive returns an archived card to circulation, immediately due.
func (e *Engine) Unarchive(id string, now time.Time) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		lifecycle.Unarchive(c, now)
		return nil
	})
}

// Enqueue makes the card immediately due.
func (e *Engine) Enqueue(id string, now time.Time) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.EnqueueNow(c, now)
	})
}

// SetInterval overrides the interval by hand and projects the next due time
// forward from the card's last queue departure, or from now for a card that
// has never left the queue.
func (e *Engine) SetInterval(id string, hours int, now time.Time) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		if err := lifecycle.SetInterval(c, hours); err != nil {
			return err
		}
		anchor := c.LastRemovedAt
		if anchor.IsZero() {
			anchor = now
		}
		lifecycle.RescheduleFrom(c, anchor)
		return nil
	})
}

// SetPriority changes the card's queue priority.
func (e *Engine) SetPriority(id string, p domain.Priority) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.SetPriority(c, p)
	})
}

// SetContent replaces the card's text, answer and tags.
func (e *Engine) SetContent(id, text, answer string, tags []string) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		lifecycle.SetContent(c, text, answer, tags)
		return nil
	})
}

// SetCategory changes the card kind.
func (e *Engine) SetCategory(id string, cat domain.Category) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		return lifecycle.SetCategory(c, cat)
	})
}

// MoveToFolder re-points the card's folder; empty means no folder.
func (e *Engine) MoveToFolder(id, folderID string) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		lifecycle.MoveToFolder(c, folderID)
		return nil
	})
}

// ToggleEssential flips the essential safety rail.
func (e *Engine) ToggleEssential(id string) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		lifecycle.ToggleEssential(c)
		return nil
	})
}

// ToggleDynamic flips adaptive interval adjustment.
func (e *Engine) ToggleDynamic(id string) (*domain.Card, error) {
	return e.withCard(id, func(c *domain.Card) error {
		lifecycle.ToggleDynamic(c)
		return nil
	})
}

// CreateFolder creates a new folder.
func (e *Engine) CreateFolder(name string) (*domain.Folder, error) {
	if name == "" {
		return nil, domain.NewPreconditionError("create folder", "name must not be empty")
	}
	f := &domain.Folder{ID: uuid.NewString(), Name: name}
	if err := e.db.InsertFolder(f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFolder removes a folder; its cards fall back to no folder.
func (e *Engine) DeleteFolder(id string) error {
	return e.db.DeleteFolder(id)
}

// Folders lists all folders.
func (e *Engine) Folders() ([]domain.Folder, error) {
	return e.db.ListFolders()
}
