package storage

const schema = `
-- The 'folders' table groups cards; it carries no scheduling state.
CREATE TABLE IF NOT EXISTS folders (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

-- The 'sources' table tracks card-file origins, a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);

-- The 'cards' table stores each card with its full scheduling state.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    text TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]', -- JSON array of labels
    folder_id TEXT,
    priority TEXT NOT NULL DEFAULT 'none',
    interval_hours INTEGER NOT NULL,
    initial_interval_hours INTEGER NOT NULL,
    next_due_at DATETIME NOT NULL,
    is_recurring INTEGER NOT NULL DEFAULT 1,
    is_essential INTEGER NOT NULL DEFAULT 0,
    dynamic_interval INTEGER NOT NULL DEFAULT 1,
    skip_enabled INTEGER NOT NULL DEFAULT 1,
    skip_policy TEXT NOT NULL DEFAULT 'mild',
    rating_easy_policy TEXT NOT NULL DEFAULT 'mild',
    rating_hard_policy TEXT NOT NULL DEFAULT 'mild',
    reset_interval_on_complete INTEGER NOT NULL DEFAULT 0,
    archived INTEGER NOT NULL DEFAULT 0,
    last_removed_at DATETIME,
    seen_count INTEGER NOT NULL DEFAULT 0,
    skip_count INTEGER NOT NULL DEFAULT 0,
    fingerprint TEXT,
    source_id INTEGER,

    FOREIGN KEY(folder_id) REFERENCES folders(id),
    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- The 'card_events' table is the append-only audit trail per card.
CREATE TABLE IF NOT EXISTS card_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    kind TEXT NOT NULL,      -- enqueue, skip, removal, completion, rating
    rating TEXT,             -- set only when kind = 'rating'
    at DATETIME NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_next_due ON cards(archived, next_due_at);
CREATE INDEX IF NOT EXISTS idx_card_events_card ON card_events(card_id, at);
`
