// Package storage persists users, languages, notes, cards and views in
// sqlite. All timestamps are stored and returned in UTC.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/analiz-sintez/begriff/internal/apperr"
	"github.com/analiz-sintez/begriff/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up
// to date. Foreign keys are switched on so Note -> Card -> View deletes
// cascade.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure. The modernc driver exposes it only through the message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetOrCreateUser finds a user by login, creating the row on first
// reference. A lost creation race surfaces as apperr.ErrConflict so the
// caller can retry the lookup.
func (db *DB) GetOrCreateUser(login string) (*domain.User, error) {
	if u, err := db.findUserByLogin(login); err != nil {
		return nil, err
	} else if u != nil {
		return u, nil
	}

	now := time.Now().UTC()
	res, err := db.conn.Exec(`
		INSERT INTO users (login, options, created_at)
		VALUES (?, '{}', ?)
	`, login, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating user %s: %w", login, apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert user %s: %w", login, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id for %s: %w", login, err)
	}
	return &domain.User{ID: id, Login: login, Options: domain.Options{}, CreatedAt: now}, nil
}

func (db *DB) findUserByLogin(login string) (*domain.User, error) {
	var (
		u       domain.User
		options []byte
	)
	row := db.conn.QueryRow(`
		SELECT id, login, options, created_at
		FROM users WHERE login = ?
	`, login)
	err := row.Scan(&u.ID, &u.Login, &options, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", login, err)
	}
	if u.Options, err = domain.DecodeOptions(options); err != nil {
		return nil, fmt.Errorf("user %s: %w", login, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// UpdateUserOptions persists the user's options bag.
func (db *DB) UpdateUserOptions(user *domain.User) error {
	data, err := user.Options.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding options for user %d: %w", user.ID, err)
	}
	_, err = db.conn.Exec(`UPDATE users SET options = ? WHERE id = ?`, string(data), user.ID)
	if err != nil {
		return fmt.Errorf("failed to update options for user %d: %w", user.ID, err)
	}
	return nil
}

// GetOrCreateLanguage finds a language by name, creating it on first
// reference. Languages are immutable afterwards.
func (db *DB) GetOrCreateLanguage(name string) (*domain.Language, error) {
	var l domain.Language
	row := db.conn.QueryRow(`SELECT id, name FROM languages WHERE name = ?`, name)
	err := row.Scan(&l.ID, &l.Name)
	if err == nil {
		return &l, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find language %s: %w", name, err)
	}

	res, err := db.conn.Exec(`INSERT INTO languages (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating language %s: %w", name, apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert language %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get language id for %s: %w", name, err)
	}
	return &domain.Language{ID: id, Name: name}, nil
}

// FindLanguageByID retrieves a language, or nil when it does not exist.
func (db *DB) FindLanguageByID(id int64) (*domain.Language, error) {
	var l domain.Language
	row := db.conn.QueryRow(`SELECT id, name FROM languages WHERE id = ?`, id)
	err := row.Scan(&l.ID, &l.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find language %d: %w", id, err)
	}
	return &l, nil
}
