package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dermotcahill/recur/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection. The same file is opened by both the
// app and the widget process; WAL plus a busy timeout lets them interleave.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows one writer at a time; a single pooled connection avoids
	// lock churn and keeps in-memory databases on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = `id, category, text, answer, tags, folder_id, priority,
	interval_hours, initial_interval_hours, next_due_at,
	is_recurring, is_essential, dynamic_interval, skip_enabled, skip_policy,
	rating_easy_policy, rating_hard_policy, reset_interval_on_complete,
	archived, last_removed_at, seen_count, skip_count, fingerprint, source_id`

// InsertCard inserts a new card together with any events already on it.
func (db *DB) InsertCard(c *domain.Card) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags for card %s: %w", c.ID, err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		string(c.Category),
		c.Text,
		c.Answer,
		string(tags),
		nullString(c.FolderID),
		c.Priority.String(),
		c.IntervalHours,
		c.InitialIntervalHours,
		c.NextDueAt.UTC(),
		c.IsRecurring,
		c.IsEssential,
		c.DynamicInterval,
		c.SkipEnabled,
		string(c.SkipPolicy),
		string(c.RatingEasyPolicy),
		string(c.RatingHardPolicy),
		c.ResetIntervalOnComplete,
		c.Archived,
		nullTime(c.LastRemovedAt),
		c.SeenCount,
		c.SkipCount,
		nullString(c.Fingerprint),
		nullInt64(c.SourceID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
	}
	if len(c.Events) > 0 {
		return db.AppendEvents(c.ID, c.Events)
	}
	return nil
}

// UpdateCard persists the card's scalar fields. Events are appended
// separately so the audit trail stays append-only.
func (db *DB) UpdateCard(c *domain.Card) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags for card %s: %w", c.ID, err)
	}
	res, err := db.conn.Exec(`
		UPDATE cards
		SET category = ?, text = ?, answer = ?, tags = ?, folder_id = ?, priority = ?,
		    interval_hours = ?, initial_interval_hours = ?, next_due_at = ?,
		    is_recurring = ?, is_essential = ?, dynamic_interval = ?, skip_enabled = ?,
		    skip_policy = ?, rating_easy_policy = ?, rating_hard_policy = ?,
		    reset_interval_on_complete = ?, archived = ?, last_removed_at = ?,
		    seen_count = ?, skip_count = ?
		WHERE id = ?
	`,
		string(c.Category),
		c.Text,
		c.Answer,
		string(tags),
		nullString(c.FolderID),
		c.Priority.String(),
		c.IntervalHours,
		c.InitialIntervalHours,
		c.NextDueAt.UTC(),
		c.IsRecurring,
		c.IsEssential,
		c.DynamicInterval,
		c.SkipEnabled,
		string(c.SkipPolicy),
		string(c.RatingEasyPolicy),
		string(c.RatingHardPolicy),
		c.ResetIntervalOnComplete,
		c.Archived,
		nullTime(c.LastRemovedAt),
		c.SeenCount,
		c.SkipCount,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("card %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

// AppendEvents appends audit events for a card.
func (db *DB) AppendEvents(cardID string, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin event append for card %s: %w", cardID, err)
	}
	defer tx.Rollback()

	for _, e := range events {
		var rating any
		if e.Kind == domain.EventRating {
			rating = string(e.Rating)
		}
		if _, err := tx.Exec(`
			INSERT INTO card_events (card_id, kind, rating, at)
			VALUES (?, ?, ?, ?)
		`, cardID, string(e.Kind), rating, e.At.UTC()); err != nil {
			return fmt.Errorf("failed to append %s event for card %s: %w", e.Kind, cardID, err)
		}
	}
	return tx.Commit()
}

// FindCardByID retrieves a card with its full event history.
// Returns (nil, nil) when the card does not exist.
func (db *DB) FindCardByID(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	if err := db.attachEvents(map[string]*domain.Card{c.ID: c}); err != nil {
		return nil, err
	}
	return c, nil
}

// FindCardByFingerprint retrieves an imported card by its content
// fingerprint. Returns (nil, nil) when no card matches.
func (db *DB) FindCardByFingerprint(fp string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE fingerprint = ?`, fp)
	c, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by fingerprint: %w", err)
	}
	if err := db.attachEvents(map[string]*domain.Card{c.ID: c}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCards retrieves all cards, archived included, with event histories
// attached. The queue selector does its own filtering.
func (db *DB) ListCards() ([]*domain.Card, error) {
	return db.listCardsWhere("", nil)
}

// ListCardsBySourceID retrieves all cards imported from one source.
func (db *DB) ListCardsBySourceID(sourceID int64) ([]*domain.Card, error) {
	return db.listCardsWhere("WHERE source_id = ?", []any{sourceID})
}

func (db *DB) listCardsWhere(where string, args []any) ([]*domain.Card, error) {
	rows, err := db.conn.Query(`SELECT `+cardColumns+` FROM cards `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.Card)
	var cards []*domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		byID[c.ID] = c
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	if err := db.attachEvents(byID); err != nil {
		return nil, err
	}
	return cards, nil
}

// attachEvents loads the event history for every card in the map in one query.
func (db *DB) attachEvents(byID map[string]*domain.Card) error {
	if len(byID) == 0 {
		return nil
	}
	query := `SELECT card_id, kind, rating, at FROM card_events ORDER BY card_id, at, id`
	var args []any
	if len(byID) == 1 {
		for id := range byID {
			query = `SELECT card_id, kind, rating, at FROM card_events WHERE card_id = ? ORDER BY at, id`
			args = append(args, id)
		}
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to load card events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cardID string
			kind   string
			rating sql.NullString
			at     time.Time
		)
		if err := rows.Scan(&cardID, &kind, &rating, &at); err != nil {
			return fmt.Errorf("failed to scan event row: %w", err)
		}
		c, ok := byID[cardID]
		if !ok {
			continue
		}
		k, err := domain.ParseEventKind(kind)
		if err != nil {
			return fmt.Errorf("card %s has a bad event: %w", cardID, err)
		}
		e := domain.Event{Kind: k, At: at.UTC()}
		if rating.Valid {
			r, err := domain.ParseRating(rating.String)
			if err != nil {
				return fmt.Errorf("card %s has a bad rating event: %w", cardID, err)
			}
			e.Rating = r
		}
		c.Events = append(c.Events, e)
	}
	return rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (*domain.Card, error) {
	var (
		c           domain.Card
		category    string
		tags        string
		folderID    sql.NullString
		priority    string
		skipPolicy  string
		easyPolicy  string
		hardPolicy  string
		lastRemoved sql.NullTime
		fingerprint sql.NullString
		sourceID    sql.NullInt64
	)
	err := s.Scan(
		&c.ID,
		&category,
		&c.Text,
		&c.Answer,
		&tags,
		&folderID,
		&priority,
		&c.IntervalHours,
		&c.InitialIntervalHours,
		&c.NextDueAt,
		&c.IsRecurring,
		&c.IsEssential,
		&c.DynamicInterval,
		&c.SkipEnabled,
		&skipPolicy,
		&easyPolicy,
		&hardPolicy,
		&c.ResetIntervalOnComplete,
		&c.Archived,
		&lastRemoved,
		&c.SeenCount,
		&c.SkipCount,
		&fingerprint,
		&sourceID,
	)
	if err != nil {
		return nil, err
	}

	if c.Category, err = domain.ParseCategory(category); err != nil {
		return nil, err
	}
	if c.Priority, err = domain.ParsePriority(priority); err != nil {
		return nil, err
	}
	if c.SkipPolicy, err = domain.ParsePolicy(skipPolicy); err != nil {
		return nil, err
	}
	if c.RatingEasyPolicy, err = domain.ParsePolicy(easyPolicy); err != nil {
		return nil, err
	}
	if c.RatingHardPolicy, err = domain.ParsePolicy(hardPolicy); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	c.NextDueAt = c.NextDueAt.UTC()
	c.FolderID = folderID.String
	if lastRemoved.Valid {
		c.LastRemovedAt = lastRemoved.Time.UTC()
	}
	c.Fingerprint = fingerprint.String
	c.SourceID = sourceID.Int64
	return &c, nil
}

// InsertFolder inserts a new folder.
func (db *DB) InsertFolder(f *domain.Folder) error {
	if _, err := db.conn.Exec(`INSERT INTO folders (id, name) VALUES (?, ?)`, f.ID, f.Name); err != nil {
		return fmt.Errorf("failed to insert folder %s: %w", f.Name, err)
	}
	return nil
}

// ListFolders retrieves all folders ordered by name.
func (db *DB) ListFolders() ([]domain.Folder, error) {
	rows, err := db.conn.Query(`SELECT id, name FROM folders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// DeleteFolder removes a folder, re-pointing its cards to "no folder" in the
// same transaction so no dangling references survive.
func (db *DB) DeleteFolder(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin folder delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE cards SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach cards from folder %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM folders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", id, err)
	}
	return tx.Commit()
}

// Source represents a card-file source, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Kind        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(path, kind string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, kind, last_scanned)
		VALUES (?, ?, NULL)
	`, path, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path. Returns (nil, nil) when
// the source does not exist.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`SELECT id, path, kind, last_scanned FROM sources WHERE path = ?`, path)
	if err := row.Scan(&s.ID, &s.Path, &s.Kind, &s.LastScanned); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT id, path, kind, last_scanned FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Kind, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64, at time.Time) error {
	_, err := db.conn.Exec(`UPDATE sources SET last_scanned = ? WHERE id = ?`, at.UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
