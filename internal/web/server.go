// Package web exposes the queue read API and the lifecycle write API over
// JSON HTTP. Handlers stamp the current time and hand everything to the
// engine; no scheduling decisions live here.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dermotcahill/recur/internal/config"
	"github.com/dermotcahill/recur/internal/domain"
	"github.com/dermotcahill/recur/internal/engine"
	"github.com/dermotcahill/recur/internal/lifecycle"
	"github.com/dermotcahill/recur/internal/queue"
	"github.com/dermotcahill/recur/internal/storage"
	syncsrc "github.com/dermotcahill/recur/internal/sync"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	db     *storage.DB
	engine *engine.Engine
	cfg    *config.Config
	router *http.ServeMux
	now    func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, cfg *config.Config) *Server {
	s := &Server{
		db:     db,
		engine: engine.New(db),
		cfg:    cfg,
		router: http.NewServeMux(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /queue", s.handleGetQueue)

	s.router.HandleFunc("POST /cards", s.handleCreateCard)
	s.router.HandleFunc("GET /cards/{id}", s.handleGetCard)
	s.router.HandleFunc("GET /cards/{id}/history", s.handleGetHistory)
	s.router.HandleFunc("PATCH /cards/{id}", s.handlePatchCard)
	s.router.HandleFunc("POST /cards/{id}/skip", s.cardAction(s.engine.Skip))
	s.router.HandleFunc("POST /cards/{id}/dismiss", s.cardAction(s.engine.Dismiss))
	s.router.HandleFunc("POST /cards/{id}/complete", s.cardAction(s.engine.Complete))
	s.router.HandleFunc("POST /cards/{id}/archive", s.cardAction(s.engine.Archive))
	s.router.HandleFunc("POST /cards/{id}/unarchive", s.cardAction(s.engine.Unarchive))
	s.router.HandleFunc("POST /cards/{id}/enqueue", s.cardAction(s.engine.Enqueue))
	s.router.HandleFunc("POST /cards/{id}/rate", s.handleRateCard)

	s.router.HandleFunc("GET /folders", s.handleGetFolders)
	s.router.HandleFunc("POST /folders", s.handleCreateFolder)
	s.router.HandleFunc("DELETE /folders/{id}", s.handleDeleteFolder)

	s.router.HandleFunc("POST /sync", s.handlePostSync)
}

// parseFilter reads categories and folders from the query string. Comma
// separated, empty means all; the folder value "none" selects folderless cards.
func parseFilter(r *http.Request) (queue.Filter, error) {
	var f queue.Filter
	if raw := r.URL.Query().Get("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			cat, err := domain.ParseCategory(strings.TrimSpace(part))
			if err != nil {
				return queue.Filter{}, err
			}
			f.Categories = append(f.Categories, cat)
		}
	}
	if raw := r.URL.Query().Get("folders"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Folders = append(f.Folders, part)
			}
		}
	}
	return f, nil
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.engine.FetchQueue(s.now(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"queued":         res.Queued,
		"next_upcoming":  res.NextUpcoming,
		"total_matching": res.TotalMatching,
	})
}

type createCardRequest struct {
	Category             domain.Category `json:"category"`
	Text                 string          `json:"text"`
	Answer               string          `json:"answer"`
	Tags                 []string        `json:"tags"`
	FolderID             string          `json:"folder_id"`
	Priority             domain.Priority `json:"priority"`
	InitialIntervalHours int             `json:"initial_interval_hours"`
	DueAt                time.Time       `json:"due_at"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text must not be empty", http.StatusBadRequest)
		return
	}
	interval := req.InitialIntervalHours
	if interval == 0 {
		interval = s.cfg.DefaultIntervalHours
	}
	card, err := s.engine.CreateCard(lifecycle.Params{
		Category:             req.Category,
		Text:                 req.Text,
		Answer:               req.Answer,
		Tags:                 req.Tags,
		FolderID:             req.FolderID,
		Priority:             req.Priority,
		InitialIntervalHours: interval,
		DueAt:                req.DueAt,
	}, s.now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.engine.Card(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.engine.History(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// patchCardRequest carries optional updates; nil fields are left alone.
type patchCardRequest struct {
	Text          *string          `json:"text"`
	Answer        *string          `json:"answer"`
	Tags          *[]string        `json:"tags"`
	FolderID      *string          `json:"folder_id"`
	Priority      *domain.Priority `json:"priority"`
	Category      *domain.Category `json:"category"`
	IntervalHours *int             `json:"interval_hours"`
	Essential     *bool            `json:"is_essential"`
	Dynamic       *bool            `json:"dynamic_interval"`
}

func (s *Server) handlePatchCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req patchCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	card, err := s.engine.Card(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Text != nil || req.Answer != nil || req.Tags != nil {
		text, answer, tags := card.Text, card.Answer, card.Tags
		if req.Text != nil {
			text = *req.Text
		}
		if req.Answer != nil {
			answer = *req.Answer
		}
		if req.Tags != nil {
			tags = *req.Tags
		}
		if card, err = s.engine.SetContent(id, text, answer, tags); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Category != nil {
		if card, err = s.engine.SetCategory(id, *req.Category); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Priority != nil {
		if card, err = s.engine.SetPriority(id, *req.Priority); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.FolderID != nil {
		if card, err = s.engine.MoveToFolder(id, *req.FolderID); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.IntervalHours != nil {
		if card, err = s.engine.SetInterval(id, *req.IntervalHours, s.now()); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Essential != nil && *req.Essential != card.IsEssential {
		if card, err = s.engine.ToggleEssential(id); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Dynamic != nil && *req.Dynamic != card.DynamicInterval {
		if card, err = s.engine.ToggleDynamic(id); err != nil {
			s.writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, card)
}

func (s *Server) cardAction(op func(id string, now time.Time) (*domain.Card, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := op(r.PathValue("id"), s.now())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleRateCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating domain.Rating `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	card, err := s.engine.Rate(r.PathValue("id"), s.now(), req.Rating)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleGetFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.engine.Folders()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if folders == nil {
		folders = []domain.Folder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	folder, err := s.engine.CreateFolder(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteFolder(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePostSync triggers a source sync in the foreground.
func (s *Server) handlePostSync(w http.ResponseWriter, r *http.Request) {
	opts := syncsrc.Options{
		ReposDir:             s.cfg.ReposDir,
		DefaultIntervalHours: s.cfg.DefaultIntervalHours,
	}
	if err := syncsrc.RunSync(s.db, opts, s.now()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps engine errors onto HTTP statuses. A failed save of a minor
// scheduling mutation is logged and reported, never fatal.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case domain.IsPrecondition(err),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidPolicy),
		errors.Is(err, domain.ErrInvalidRating):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
