package storage

const schema = `
-- Users own notes. Login is the external identity (messenger handle).
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    login TEXT NOT NULL UNIQUE,
    options TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL
);

-- Languages are created on first reference and never change.
CREATE TABLE IF NOT EXISTS languages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

-- A note is one studied item; deleting it cascades to cards and views.
CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    language_id INTEGER NOT NULL REFERENCES languages(id),
    type TEXT NOT NULL,
    field1 TEXT NOT NULL,
    field2 TEXT NOT NULL DEFAULT '',
    options TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL
);

-- A card is one directional prompt derived from a note.
-- stability/difficulty are NULL together until the first review.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    stability REAL,
    difficulty REAL,
    ts_last_review DATETIME,
    ts_scheduled DATETIME NOT NULL,
    created_at DATETIME NOT NULL
);

-- A view is one presentation of a card; graded views form the history.
CREATE TABLE IF NOT EXISTS views (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
    ts_review_started DATETIME NOT NULL,
    ts_review_finished DATETIME,
    answer TEXT,
    duration_ms INTEGER
);

CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(user_id, language_id);
CREATE INDEX IF NOT EXISTS idx_cards_note ON cards(note_id);
CREATE INDEX IF NOT EXISTS idx_cards_scheduled ON cards(ts_scheduled);
CREATE INDEX IF NOT EXISTS idx_views_card ON views(card_id);
CREATE INDEX IF NOT EXISTS idx_views_finished ON views(ts_review_finished);
`
