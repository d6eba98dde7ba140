package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/analiz-sintez/begriff/internal/domain"
	"github.com/analiz-sintez/begriff/internal/srs"
)

// InsertView persists a new ungraded view and fills in its ID.
func (db *DB) InsertView(view *domain.View) error {
	if view.StartedAt.IsZero() {
		view.StartedAt = time.Now().UTC()
	}
	res, err := db.conn.Exec(`
		INSERT INTO views (card_id, ts_review_started)
		VALUES (?, ?)
	`, view.CardID, view.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert view for card %d: %w", view.CardID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get view id for card %d: %w", view.CardID, err)
	}
	view.ID = id
	return nil
}

// FindViewByID retrieves a view, or nil when it does not exist.
func (db *DB) FindViewByID(id int64) (*domain.View, error) {
	row := db.conn.QueryRow(`
		SELECT id, card_id, ts_review_started, ts_review_finished, answer, duration_ms
		FROM views WHERE id = ?
	`, id)
	view, err := scanView(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find view %d: %w", id, err)
	}
	return view, nil
}

// GetViewsByCardID retrieves a card's full review history, oldest first.
func (db *DB) GetViewsByCardID(cardID int64) ([]domain.View, error) {
	rows, err := db.conn.Query(`
		SELECT id, card_id, ts_review_started, ts_review_finished, answer, duration_ms
		FROM views WHERE card_id = ? ORDER BY ts_review_started ASC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get views for card %d: %w", cardID, err)
	}
	defer rows.Close()

	var views []domain.View
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan view row: %w", err)
		}
		views = append(views, *view)
	}
	return views, rows.Err()
}

// CountViewsByCardID returns how many times a card has been presented.
func (db *DB) CountViewsByCardID(cardID int64) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM views WHERE card_id = ?`, cardID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count views for card %d: %w", cardID, err)
	}
	return count, nil
}

// CommitReview writes a graded view together with its card's new memory
// state and schedule in one transaction. Partial application of the
// review update is never observable.
func (db *DB) CommitReview(view *domain.View, card *domain.Card) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	var answer any
	if view.Answer != nil {
		answer = view.Answer.String()
	}
	var durationMS any
	if view.Duration != nil {
		durationMS = view.Duration.Milliseconds()
	}
	if _, err := tx.Exec(`
		UPDATE views
		SET ts_review_finished = ?, answer = ?, duration_ms = ?
		WHERE id = ?
	`, nullTime(view.FinishedAt), answer, durationMS, view.ID); err != nil {
		return fmt.Errorf("failed to update view %d: %w", view.ID, err)
	}

	if _, err := tx.Exec(`
		UPDATE cards
		SET stability = ?, difficulty = ?, ts_last_review = ?, ts_scheduled = ?
		WHERE id = ?
	`, card.Stability, card.Difficulty, nullTime(card.LastReview),
		card.Scheduled.UTC(), card.ID); err != nil {
		return fmt.Errorf("failed to update card %d: %w", card.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review for view %d: %w", view.ID, err)
	}
	return nil
}

func scanView(row rowScanner) (*domain.View, error) {
	var (
		v          domain.View
		finished   sql.NullTime
		answer     sql.NullString
		durationMS sql.NullInt64
	)
	err := row.Scan(&v.ID, &v.CardID, &v.StartedAt, &finished, &answer, &durationMS)
	if err != nil {
		return nil, err
	}
	v.StartedAt = v.StartedAt.UTC()
	if finished.Valid {
		t := finished.Time.UTC()
		v.FinishedAt = &t
	}
	if answer.Valid {
		rating, err := srs.ParseRating(answer.String)
		if err != nil {
			return nil, fmt.Errorf("view %d: %w", v.ID, err)
		}
		v.Answer = &rating
	}
	if durationMS.Valid {
		d := time.Duration(durationMS.Int64) * time.Millisecond
		v.Duration = &d
	}
	return &v, nil
}
