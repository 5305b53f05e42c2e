package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dermotcahill/recur/internal/config"
	"github.com/dermotcahill/recur/internal/domain"
	"github.com/dermotcahill/recur/internal/storage"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	s := NewServer(db, &cfg)
	s.now = func() time.Time { return t0 }
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func createCard(t *testing.T, s *Server, body string) domain.Card {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/cards", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create card: status %d: %s", w.Code, w.Body.String())
	}
	var c domain.Card
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	return c
}

func TestCreateAndQueue(t *testing.T) {
	s := newTestServer(t)
	c := createCard(t, s, `{"category":"todo","text":"ship release","priority":"high"}`)
	if c.Category != domain.Todo || c.Priority != domain.PriorityHigh {
		t.Errorf("card = %+v", c)
	}
	if c.IntervalHours != config.Default().DefaultIntervalHours {
		t.Errorf("IntervalHours = %d, want config default", c.IntervalHours)
	}

	w := doJSON(t, s, http.MethodGet, "/queue", "")
	if w.Code != http.StatusOK {
		t.Fatalf("queue: status %d", w.Code)
	}
	var res struct {
		Queued        []domain.Card `json:"queued"`
		TotalMatching int           `json:"total_matching"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(res.Queued) != 1 || res.Queued[0].ID != c.ID {
		t.Errorf("queued = %+v", res.Queued)
	}
	if res.TotalMatching != 1 {
		t.Errorf("total_matching = %d, want 1", res.TotalMatching)
	}
}

func TestQueueCategoryFilter(t *testing.T) {
	s := newTestServer(t)
	createCard(t, s, `{"category":"todo","text":"a todo"}`)
	createCard(t, s, `{"category":"note","text":"a note"}`)

	w := doJSON(t, s, http.MethodGet, "/queue?categories=note", "")
	var res struct {
		Queued []domain.Card `json:"queued"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(res.Queued) != 1 || res.Queued[0].Category != domain.Note {
		t.Errorf("queued = %+v", res.Queued)
	}

	if w := doJSON(t, s, http.MethodGet, "/queue?categories=bogus", ""); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bogus category: status %d, want 422", w.Code)
	}
}

func TestSkipEndpoint(t *testing.T) {
	s := newTestServer(t)
	c := createCard(t, s, `{"category":"todo","text":"skip me","initial_interval_hours":240}`)

	w := doJSON(t, s, http.MethodPost, "/cards/"+c.ID+"/skip", "")
	if w.Code != http.StatusOK {
		t.Fatalf("skip: status %d: %s", w.Code, w.Body.String())
	}
	var got domain.Card
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SkipCount != 1 {
		t.Errorf("SkipCount = %d, want 1", got.SkipCount)
	}
	if got.IntervalHours != 180 { // mild default: 240 * 0.75
		t.Errorf("IntervalHours = %d, want 180", got.IntervalHours)
	}
}

func TestRateEndpointPreconditions(t *testing.T) {
	s := newTestServer(t)
	todo := createCard(t, s, `{"category":"todo","text":"not ratable"}`)

	w := doJSON(t, s, http.MethodPost, "/cards/"+todo.ID+"/rate", `{"rating":"good"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("rating a todo: status %d, want 422", w.Code)
	}

	card := createCard(t, s, `{"category":"flashcard","text":"q","answer":"a","initial_interval_hours":96}`)
	w = doJSON(t, s, http.MethodPost, "/cards/"+card.ID+"/rate", `{"rating":"good"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("rate: status %d: %s", w.Code, w.Body.String())
	}
	var got domain.Card
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.IntervalHours != 96 {
		t.Errorf("good rating changed interval: %d", got.IntervalHours)
	}
}

func TestMissingCardIs404(t *testing.T) {
	s := newTestServer(t)
	if w := doJSON(t, s, http.MethodPost, "/cards/ghost/skip", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestPatchCard(t *testing.T) {
	s := newTestServer(t)
	c := createCard(t, s, `{"category":"note","text":"old text"}`)

	w := doJSON(t, s, http.MethodPatch, "/cards/"+c.ID, `{"text":"new text","priority":"medium","is_essential":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status %d: %s", w.Code, w.Body.String())
	}
	var got domain.Card
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Text != "new text" || got.Priority != domain.PriorityMedium || !got.IsEssential {
		t.Errorf("patch not applied: %+v", got)
	}
}

func TestFolderEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/folders", `{"name":"projects"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder: status %d", w.Code)
	}
	var f domain.Folder
	if err := json.Unmarshal(w.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode folder: %v", err)
	}

	if w := doJSON(t, s, http.MethodPost, "/folders", `{"name":""}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty folder name: status %d, want 422", w.Code)
	}

	if w := doJSON(t, s, http.MethodDelete, "/folders/"+f.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("delete folder: status %d, want 204", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/folders", "")
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("folders = %s, want []", body)
	}
}
