package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/analiz-sintez/begriff/internal/apperr"
	"github.com/analiz-sintez/begriff/internal/domain"
	"github.com/analiz-sintez/begriff/internal/storage"
)

type noteInput struct {
	UserID     int64  `validate:"required,gt=0"`
	LanguageID int64  `validate:"required,gt=0"`
	Text       string `validate:"required"`
}

// CreateNote creates a word note plus its two cards (forward and
// reverse), both scheduled immediately due with no memory state. When
// no explanation is given and a generator is configured, one is
// requested from the collaborator; a generation failure degrades to an
// empty explanation and never fails the creation.
func (s *Service) CreateNote(ctx context.Context, userID, languageID int64, text, explanation string) (*domain.Note, error) {
	in := noteInput{UserID: userID, LanguageID: languageID, Text: text}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	language, err := s.db.FindLanguageByID(languageID)
	if err != nil {
		return nil, err
	}
	if language == nil {
		return nil, fmt.Errorf("%w: language %d", apperr.ErrNotFound, languageID)
	}

	if explanation == "" && s.gen != nil {
		generated, err := s.gen.GenerateExplanation(ctx, text, language.Name, "")
		if err != nil {
			slog.Warn("explanation generation failed, keeping note without one",
				"word", text, "language", language.Name, "error", err)
		} else {
			explanation = generated
		}
	}

	note := &domain.Note{
		UserID:     userID,
		LanguageID: languageID,
		Type:       domain.WordNote,
		Field1:     text,
		Field2:     explanation,
		Options:    domain.Options{},
	}
	cards := []*domain.Card{
		{Type: domain.ForwardCard},
		{Type: domain.ReverseCard},
	}
	if err := s.db.InsertNoteWithCards(note, cards); err != nil {
		return nil, err
	}

	s.inject.invalidate(userID, languageID)
	slog.Info("note created", "note_id", note.ID, "user_id", userID, "word", text)
	return note, nil
}

// BaseForm reduces an inflected word to its dictionary form via the
// text-generation collaborator. Without a generator, or when generation
// fails, the word is returned unchanged.
func (s *Service) BaseForm(ctx context.Context, languageID int64, word string) (string, error) {
	if s.gen == nil || word == "" {
		return word, nil
	}
	language, err := s.db.FindLanguageByID(languageID)
	if err != nil {
		return word, err
	}
	if language == nil {
		return word, fmt.Errorf("%w: language %d", apperr.ErrNotFound, languageID)
	}
	base, err := s.gen.GenerateBaseForm(ctx, word, language.Name)
	if err != nil {
		slog.Warn("base form generation failed, keeping word as given",
			"word", word, "language", language.Name, "error", err)
		return word, nil
	}
	return base, nil
}

// Translate renders text between two languages via the text-generation
// collaborator.
func (s *Service) Translate(ctx context.Context, text, srcLang, dstLang string) (string, error) {
	if s.gen == nil {
		return "", fmt.Errorf("%w: no text generator configured", apperr.ErrValidation)
	}
	return s.gen.Translate(ctx, text, srcLang, dstLang)
}

// UpdateExplanation replaces a note's explanation text.
func (s *Service) UpdateExplanation(noteID int64, explanation string) error {
	note, err := s.db.FindNoteByID(noteID)
	if err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("%w: note %d", apperr.ErrNotFound, noteID)
	}
	note.Field2 = explanation
	return s.db.UpdateNote(note)
}

// SetNoteOption stores one leaf in a note's options bag.
func (s *Service) SetNoteOption(noteID int64, path string, value any) error {
	note, err := s.db.FindNoteByID(noteID)
	if err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("%w: note %d", apperr.ErrNotFound, noteID)
	}
	if err := note.Options.Set(path, value); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return s.db.UpdateNote(note)
}

// DeleteNote removes a note together with its cards and views.
func (s *Service) DeleteNote(noteID int64) error {
	return s.db.DeleteNote(noteID)
}

// NotesQuery narrows GetNotes. Text filters follow storage.NoteQuery
// semantics; MaturityFilter keeps notes having at least one card in one
// of the given classes.
type NotesQuery struct {
	LanguageID        *int64
	TextFilter        string
	ExplanationFilter string
	MaturityFilter    MaturitySet
	OrderBy           string
}

// GetNotes returns the user's notes matching the query.
func (s *Service) GetNotes(userID int64, q NotesQuery) ([]domain.Note, error) {
	notes, err := s.db.SearchNotes(storage.NoteQuery{
		UserID:            userID,
		LanguageID:        q.LanguageID,
		TextFilter:        q.TextFilter,
		ExplanationFilter: q.ExplanationFilter,
		OrderBy:           q.OrderBy,
	})
	if err != nil {
		return nil, err
	}
	if len(q.MaturityFilter) == 0 {
		return notes, nil
	}

	now := time.Now().UTC()
	var filtered []domain.Note
	for _, note := range notes {
		cards, err := s.db.GetCardsByNoteID(note.ID)
		if err != nil {
			return nil, err
		}
		for _, card := range cards {
			if q.MaturityFilter[card.Maturity(now, s.cfg.MatureThreshold())] {
				filtered = append(filtered, note)
				break
			}
		}
	}
	return filtered, nil
}
