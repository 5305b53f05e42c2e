package storage

import (
	"testing"
	"time"

	"github.com/dermotcahill/recur/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCard(id string) *domain.Card {
	return &domain.Card{
		ID:                   id,
		Category:             domain.Todo,
		Text:                 "water the plants",
		Tags:                 []string{"home", "plants"},
		Priority:             domain.PriorityMedium,
		IntervalHours:        168,
		InitialIntervalHours: 168,
		NextDueAt:            t0,
		IsRecurring:          true,
		DynamicInterval:      true,
		SkipEnabled:          true,
		SkipPolicy:           domain.PolicyMild,
		RatingEasyPolicy:     domain.PolicyMild,
		RatingHardPolicy:     domain.PolicyMild,
	}
}

func TestCardRoundTrip(t *testing.T) {
	db := openTestDB(t)
	c := testCard("card-1")
	c.AppendEvent(domain.EventEnqueue, t0)

	if err := db.InsertCard(c); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	got, err := db.FindCardByID("card-1")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if got == nil {
		t.Fatal("card not found after insert")
	}
	if got.Category != domain.Todo || got.Text != "water the plants" {
		t.Errorf("content mismatch: %+v", got)
	}
	if got.Priority != domain.PriorityMedium {
		t.Errorf("Priority = %v, want medium", got.Priority)
	}
	if got.IntervalHours != 168 || got.InitialIntervalHours != 168 {
		t.Errorf("intervals = %d/%d, want 168/168", got.IntervalHours, got.InitialIntervalHours)
	}
	if !got.NextDueAt.Equal(t0) {
		t.Errorf("NextDueAt = %v, want %v", got.NextDueAt, t0)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "home" {
		t.Errorf("Tags = %v", got.Tags)
	}
	if len(got.Events) != 1 || got.Events[0].Kind != domain.EventEnqueue {
		t.Errorf("Events = %v", got.Events)
	}
	if !got.LastRemovedAt.IsZero() {
		t.Errorf("LastRemovedAt = %v, want zero", got.LastRemovedAt)
	}
}

func TestFindCardMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.FindCardByID("nope")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing card, got %+v", got)
	}
}

func TestUpdateCard(t *testing.T) {
	db := openTestDB(t)
	c := testCard("card-1")
	if err := db.InsertCard(c); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	c.IntervalHours = 84
	c.SkipCount = 2
	c.Archived = true
	c.NextDueAt = domain.ArchivedDue
	c.LastRemovedAt = t0.Add(time.Hour)
	if err := db.UpdateCard(c); err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}

	got, err := db.FindCardByID("card-1")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if got.IntervalHours != 84 || got.SkipCount != 2 || !got.Archived {
		t.Errorf("update not persisted: %+v", got)
	}
	if !got.NextDueAt.Equal(domain.ArchivedDue) {
		t.Errorf("NextDueAt = %v, want archive sentinel", got.NextDueAt)
	}
	if !got.LastRemovedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("LastRemovedAt = %v", got.LastRemovedAt)
	}
}

func TestUpdateMissingCard(t *testing.T) {
	db := openTestDB(t)
	c := testCard("ghost")
	if err := db.UpdateCard(c); err == nil {
		t.Error("expected an error updating a card that was never inserted")
	}
}

func TestAppendEventsKeepsOrder(t *testing.T) {
	db := openTestDB(t)
	c := testCard("card-1")
	if err := db.InsertCard(c); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	events := []domain.Event{
		{Kind: domain.EventEnqueue, At: t0},
		{Kind: domain.EventSkip, At: t0.Add(time.Hour)},
		{Kind: domain.EventRating, Rating: domain.RatingHard, At: t0.Add(2 * time.Hour)},
	}
	if err := db.AppendEvents("card-1", events); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	got, err := db.FindCardByID("card-1")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if len(got.Events) != 3 {
		t.Fatalf("Events = %d, want 3", len(got.Events))
	}
	for i, want := range []domain.EventKind{domain.EventEnqueue, domain.EventSkip, domain.EventRating} {
		if got.Events[i].Kind != want {
			t.Errorf("Events[%d].Kind = %v, want %v", i, got.Events[i].Kind, want)
		}
	}
	if got.Events[2].Rating != domain.RatingHard {
		t.Errorf("rating event lost its rating: %+v", got.Events[2])
	}
}

func TestListCards(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := db.InsertCard(testCard(id)); err != nil {
			t.Fatalf("InsertCard(%s): %v", id, err)
		}
	}
	cards, err := db.ListCards()
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 3 {
		t.Errorf("ListCards = %d cards, want 3", len(cards))
	}
}

func TestFindCardByFingerprint(t *testing.T) {
	db := openTestDB(t)
	c := testCard("card-1")
	c.Fingerprint = "abc123"
	if err := db.InsertCard(c); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	got, err := db.FindCardByFingerprint("abc123")
	if err != nil {
		t.Fatalf("FindCardByFingerprint: %v", err)
	}
	if got == nil || got.ID != "card-1" {
		t.Errorf("fingerprint lookup failed: %+v", got)
	}

	missing, err := db.FindCardByFingerprint("zzz")
	if err != nil {
		t.Fatalf("FindCardByFingerprint: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown fingerprint, got %+v", missing)
	}
}

func TestDeleteFolderRepointsCards(t *testing.T) {
	db := openTestDB(t)
	f := &domain.Folder{ID: "folder-1", Name: "gardening"}
	if err := db.InsertFolder(f); err != nil {
		t.Fatalf("InsertFolder: %v", err)
	}
	c := testCard("card-1")
	c.FolderID = "folder-1"
	if err := db.InsertCard(c); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	if err := db.DeleteFolder("folder-1"); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	got, err := db.FindCardByID("card-1")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if got.FolderID != "" {
		t.Errorf("FolderID = %q, want detached", got.FolderID)
	}
	folders, err := db.ListFolders()
	if err != nil {
		t.Fatalf("ListFolders: %v", err)
	}
	if len(folders) != 0 {
		t.Errorf("folders = %v, want none", folders)
	}
}

func TestSourceRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertSource("/tmp/cards", "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}

	s, err := db.FindSourceByPath("/tmp/cards")
	if err != nil {
		t.Fatalf("FindSourceByPath: %v", err)
	}
	if s == nil || s.ID != id || s.Kind != "local" {
		t.Fatalf("source mismatch: %+v", s)
	}
	if s.LastScanned.Valid {
		t.Error("LastScanned should start null")
	}

	if err := db.UpdateSourceLastScanned(id, t0); err != nil {
		t.Fatalf("UpdateSourceLastScanned: %v", err)
	}
	s, err = db.FindSourceByPath("/tmp/cards")
	if err != nil {
		t.Fatalf("FindSourceByPath: %v", err)
	}
	if !s.LastScanned.Valid {
		t.Error("LastScanned not updated")
	}

	c := testCard("card-1")
	c.SourceID = id
	if err := db.InsertCard(c); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}
	cards, err := db.ListCardsBySourceID(id)
	if err != nil {
		t.Fatalf("ListCardsBySourceID: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "card-1" {
		t.Errorf("ListCardsBySourceID = %+v", cards)
	}
}
