package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/analiz-sintez/begriff/internal/domain"
)

// InsertCard persists a new card and fills in its ID and creation time.
// A new card is scheduled at its creation instant, so it is immediately
// due, with no memory state yet.
func (db *DB) InsertCard(card *domain.Card) error {
	now := time.Now().UTC()
	if card.Scheduled.IsZero() {
		card.Scheduled = now
	}
	res, err := db.conn.Exec(`
		INSERT INTO cards (note_id, type, stability, difficulty, ts_last_review, ts_scheduled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, card.NoteID, string(card.Type), card.Stability, card.Difficulty,
		nullTime(card.LastReview), card.Scheduled, now)
	if err != nil {
		return fmt.Errorf("failed to insert card for note %d: %w", card.NoteID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get card id for note %d: %w", card.NoteID, err)
	}
	card.ID = id
	card.CreatedAt = now
	return nil
}

// FindCardByID retrieves a card, or nil when it does not exist.
func (db *DB) FindCardByID(id int64) (*domain.Card, error) {
	row := db.conn.QueryRow(cardColumns+` WHERE id = ?`, id)
	card, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card %d: %w", id, err)
	}
	return card, nil
}

// GetCardsByNoteID retrieves all cards generated from one note.
func (db *DB) GetCardsByNoteID(noteID int64) ([]domain.Card, error) {
	rows, err := db.conn.Query(cardColumns+` WHERE note_id = ? ORDER BY id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for note %d: %w", noteID, err)
	}
	return collectCards(rows)
}

// CardQuery is the base filter for due-card selection: the owning user,
// optionally narrowed to a language, optionally bounded by a due
// instant ("due by end of today" is the caller's end_ts).
type CardQuery struct {
	UserID     int64
	LanguageID *int64
	DueBefore  *time.Time
}

// GetCards returns the user's cards matching the query, soonest-due
// first. The query has no side effects.
func (db *DB) GetCards(q CardQuery) ([]domain.Card, error) {
	where := []string{"notes.user_id = ?"}
	args := []any{q.UserID}
	if q.LanguageID != nil {
		where = append(where, "notes.language_id = ?")
		args = append(args, *q.LanguageID)
	}
	if q.DueBefore != nil {
		where = append(where, "cards.ts_scheduled <= ?")
		args = append(args, q.DueBefore.UTC())
	}

	rows, err := db.conn.Query(cardColumns+`
		JOIN notes ON notes.id = cards.note_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY cards.ts_scheduled ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	return collectCards(rows)
}

// RecentlyReviewed returns the cards the user graded since the given
// instant, as the set of card IDs and the set of their note IDs. The
// selector uses it for sibling burying.
func (db *DB) RecentlyReviewed(userID int64, since time.Time) (cardIDs, noteIDs map[int64]bool, err error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT cards.id, cards.note_id
		FROM views
		JOIN cards ON cards.id = views.card_id
		JOIN notes ON notes.id = cards.note_id
		WHERE notes.user_id = ? AND views.ts_review_finished >= ?
	`, userID, since.UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query recent reviews: %w", err)
	}
	defer rows.Close()

	cardIDs = make(map[int64]bool)
	noteIDs = make(map[int64]bool)
	for rows.Next() {
		var cardID, noteID int64
		if err := rows.Scan(&cardID, &noteID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan recent review row: %w", err)
		}
		cardIDs[cardID] = true
		noteIDs[noteID] = true
	}
	return cardIDs, noteIDs, rows.Err()
}

// CountNewCardsStudied counts the cards whose first graded view falls
// after the given instant. This recomputes the session quota from the
// view history instead of persisting a counter.
func (db *DB) CountNewCardsStudied(userID int64, languageID *int64, since time.Time) (int, error) {
	where := "notes.user_id = ?"
	args := []any{userID}
	if languageID != nil {
		where += " AND notes.language_id = ?"
		args = append(args, *languageID)
	}
	args = append(args, since.UTC())

	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM (
			SELECT views.card_id, MIN(views.ts_review_finished) AS first_graded
			FROM views
			JOIN cards ON cards.id = views.card_id
			JOIN notes ON notes.id = cards.note_id
			WHERE views.ts_review_finished IS NOT NULL AND `+where+`
			GROUP BY views.card_id
		)
		WHERE first_graded >= ?
	`, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count new cards studied: %w", err)
	}
	return count, nil
}

const cardColumns = `
	SELECT cards.id, cards.note_id, cards.type, cards.stability, cards.difficulty,
	       cards.ts_last_review, cards.ts_scheduled, cards.created_at
	FROM cards`

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		c          domain.Card
		cardType   string
		stability  sql.NullFloat64
		difficulty sql.NullFloat64
		lastReview sql.NullTime
	)
	err := row.Scan(&c.ID, &c.NoteID, &cardType, &stability, &difficulty,
		&lastReview, &c.Scheduled, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Type = domain.CardType(cardType)
	if stability.Valid {
		c.Stability = &stability.Float64
	}
	if difficulty.Valid {
		c.Difficulty = &difficulty.Float64
	}
	if lastReview.Valid {
		t := lastReview.Time.UTC()
		c.LastReview = &t
	}
	c.Scheduled = c.Scheduled.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func collectCards(rows *sql.Rows) ([]domain.Card, error) {
	defer rows.Close()
	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
