package sync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dermotcahill/recur/internal/storage"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestRunSyncImportsAndRetires(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	file := filepath.Join(dir, "inbox.cards")
	content := "note: Water the plants\n---\ntodo: Rotate keys\npriority: high\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := db.InsertSource(dir, "local"); err != nil {
		t.Fatalf("InsertSource: %v", err)
	}

	opts := Options{ReposDir: filepath.Join(dir, "repos"), DefaultIntervalHours: 48}
	if err := RunSync(db, opts, t0); err != nil {
		t.Fatalf("RunSync: %v", err)
	}

	cards, err := db.ListCards()
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("imported %d cards, want 2", len(cards))
	}
	for _, c := range cards {
		if c.IntervalHours != 48 {
			t.Errorf("card %s interval = %d, want default 48", c.ID, c.IntervalHours)
		}
		if c.Fingerprint == "" || c.SourceID == 0 {
			t.Errorf("card %s missing provenance: %+v", c.ID, c)
		}
	}

	// Re-running must not duplicate.
	if err := RunSync(db, opts, t0.Add(time.Hour)); err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	cards, _ = db.ListCards()
	if len(cards) != 2 {
		t.Fatalf("re-sync duplicated cards: %d", len(cards))
	}

	// Dropping a block archives its card instead of deleting it.
	if err := os.WriteFile(file, []byte("note: Water the plants\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := RunSync(db, opts, t0.Add(2*time.Hour)); err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	cards, _ = db.ListCards()
	if len(cards) != 2 {
		t.Fatalf("retire deleted a card: %d remain", len(cards))
	}
	var archived int
	for _, c := range cards {
		if c.Archived {
			archived++
		}
	}
	if archived != 1 {
		t.Errorf("archived = %d cards, want 1", archived)
	}
}
