package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/analiz-sintez/begriff/internal/apperr"
	"github.com/analiz-sintez/begriff/internal/domain"
)

// InsertNote persists a new note and fills in its ID and creation time.
func (db *DB) InsertNote(note *domain.Note) error {
	if note.Options == nil {
		note.Options = domain.Options{}
	}
	options, err := note.Options.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding note options: %w", err)
	}
	now := time.Now().UTC()
	res, err := db.conn.Exec(`
		INSERT INTO notes (user_id, language_id, type, field1, field2, options, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, note.UserID, note.LanguageID, string(note.Type), note.Field1, note.Field2, string(options), now)
	if err != nil {
		return fmt.Errorf("failed to insert note %q: %w", note.Field1, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get note id for %q: %w", note.Field1, err)
	}
	note.ID = id
	note.CreatedAt = now
	return nil
}

// InsertNoteWithCards persists a note together with its cards in one
// transaction, so a note can never be observed without its full card
// set. IDs and creation times are filled in on success.
func (db *DB) InsertNoteWithCards(note *domain.Note, cards []*domain.Card) error {
	if note.Options == nil {
		note.Options = domain.Options{}
	}
	options, err := note.Options.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding note options: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin note transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(`
		INSERT INTO notes (user_id, language_id, type, field1, field2, options, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, note.UserID, note.LanguageID, string(note.Type), note.Field1, note.Field2, string(options), now)
	if err != nil {
		return fmt.Errorf("failed to insert note %q: %w", note.Field1, err)
	}
	noteID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get note id for %q: %w", note.Field1, err)
	}

	cardIDs := make([]int64, len(cards))
	for i, card := range cards {
		scheduled := card.Scheduled
		if scheduled.IsZero() {
			scheduled = now
		}
		res, err := tx.Exec(`
			INSERT INTO cards (note_id, type, stability, difficulty, ts_last_review, ts_scheduled, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, noteID, string(card.Type), card.Stability, card.Difficulty,
			nullTime(card.LastReview), scheduled, now)
		if err != nil {
			return fmt.Errorf("failed to insert %s card for note %q: %w", card.Type, note.Field1, err)
		}
		cardIDs[i], err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get card id for note %q: %w", note.Field1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit note %q: %w", note.Field1, err)
	}

	note.ID = noteID
	note.CreatedAt = now
	for i, card := range cards {
		card.ID = cardIDs[i]
		card.NoteID = noteID
		if card.Scheduled.IsZero() {
			card.Scheduled = now
		}
		card.CreatedAt = now
	}
	return nil
}

// UpdateNote persists the mutable parts of a note: the explanation and
// the options bag.
func (db *DB) UpdateNote(note *domain.Note) error {
	options, err := note.Options.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding note options: %w", err)
	}
	_, err = db.conn.Exec(`
		UPDATE notes SET field2 = ?, options = ? WHERE id = ?
	`, note.Field2, string(options), note.ID)
	if err != nil {
		return fmt.Errorf("failed to update note %d: %w", note.ID, err)
	}
	return nil
}

// DeleteNote removes a note; its cards and their views go with it.
func (db *DB) DeleteNote(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete note %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: note %d", apperr.ErrNotFound, id)
	}
	return nil
}

// FindNoteByID retrieves a note, or nil when it does not exist.
func (db *DB) FindNoteByID(id int64) (*domain.Note, error) {
	row := db.conn.QueryRow(noteColumns+` WHERE id = ?`, id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note %d: %w", id, err)
	}
	return note, nil
}

// FindNoteByText retrieves a user's note for an exact word in a
// language, or nil. Used to deduplicate note creation.
func (db *DB) FindNoteByText(userID, languageID int64, field1 string) (*domain.Note, error) {
	row := db.conn.QueryRow(noteColumns+`
		WHERE user_id = ? AND language_id = ? AND field1 = ?
	`, userID, languageID, field1)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note %q: %w", field1, err)
	}
	return note, nil
}

// NoteQuery selects a user's notes. Text filters come in three forms:
// exact match, SQL LIKE when the pattern contains % or _, and regular
// expression when prefixed with "=~".
type NoteQuery struct {
	UserID            int64
	LanguageID        *int64
	TextFilter        string
	ExplanationFilter string
	OrderBy           string // "created_at" (default) or "field1"
}

const regexPrefix = "=~"

// SearchNotes returns the notes matching the query. LIKE and exact
// filters run in SQL; regex filters are applied after the scan since
// sqlite has no built-in REGEXP.
func (db *DB) SearchNotes(q NoteQuery) ([]domain.Note, error) {
	where := []string{"user_id = ?"}
	args := []any{q.UserID}

	if q.LanguageID != nil {
		where = append(where, "language_id = ?")
		args = append(args, *q.LanguageID)
	}

	var textRe, explRe *regexp.Regexp
	var err error
	if textRe, err = addTextFilter(&where, &args, "field1", q.TextFilter); err != nil {
		return nil, err
	}
	if explRe, err = addTextFilter(&where, &args, "field2", q.ExplanationFilter); err != nil {
		return nil, err
	}

	orderBy := "created_at DESC"
	switch q.OrderBy {
	case "", "created_at":
	case "field1":
		orderBy = "field1 ASC"
	default:
		return nil, fmt.Errorf("unsupported order_by %q", q.OrderBy)
	}

	query := noteColumns + " WHERE " + strings.Join(where, " AND ") + " ORDER BY " + orderBy
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		if textRe != nil && !textRe.MatchString(note.Field1) {
			continue
		}
		if explRe != nil && !explRe.MatchString(note.Field2) {
			continue
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

// addTextFilter appends the SQL condition for one filter and returns a
// compiled regexp when the filter uses the "=~" form.
func addTextFilter(where *[]string, args *[]any, column, filter string) (*regexp.Regexp, error) {
	switch {
	case filter == "":
		return nil, nil
	case strings.HasPrefix(filter, regexPrefix):
		re, err := regexp.Compile(strings.TrimPrefix(filter, regexPrefix))
		if err != nil {
			return nil, fmt.Errorf("invalid %s regex filter: %w", column, err)
		}
		return re, nil
	case strings.ContainsAny(filter, "%_"):
		*where = append(*where, column+" LIKE ?")
		*args = append(*args, filter)
		return nil, nil
	default:
		*where = append(*where, column+" = ?")
		*args = append(*args, filter)
		return nil, nil
	}
}

const noteColumns = `
	SELECT id, user_id, language_id, type, field1, field2, options, created_at
	FROM notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*domain.Note, error) {
	var (
		n        domain.Note
		noteType string
		options  []byte
	)
	err := row.Scan(&n.ID, &n.UserID, &n.LanguageID, &noteType, &n.Field1, &n.Field2, &options, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Type = domain.NoteType(noteType)
	if n.Options, err = domain.DecodeOptions(options); err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}
