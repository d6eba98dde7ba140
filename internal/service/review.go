package service

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/analiz-sintez/begriff/internal/apperr"
	"github.com/analiz-sintez/begriff/internal/domain"
	"github.com/analiz-sintez/begriff/internal/srs"
)

// StartView records that a card's front was shown to the user and
// returns the view id the grade must be submitted against.
func (s *Service) StartView(cardID int64) (int64, error) {
	card, err := s.db.FindCardByID(cardID)
	if err != nil {
		return 0, err
	}
	if card == nil {
		return 0, fmt.Errorf("%w: card %d", apperr.ErrNotFound, cardID)
	}
	view := &domain.View{CardID: cardID, StartedAt: time.Now().UTC()}
	if err := s.db.InsertView(view); err != nil {
		return 0, err
	}
	return view.ID, nil
}

// RecordAnswer grades a view, advances the owning card's memory state
// and commits both mutations in one transaction. An unknown or
// already-graded view is a non-fatal inconsistency (e.g. a duplicate
// button press): it is logged and the call returns without effect.
//
// This is the only writer of card memory state. Concurrent grades for
// the same card are not defended beyond the transaction's atomicity.
func (s *Service) RecordAnswer(viewID int64, grade srs.Rating) error {
	if !grade.IsValid() {
		return fmt.Errorf("%w: invalid grade %d", apperr.ErrValidation, int(grade))
	}

	view, err := s.db.FindViewByID(viewID)
	if err != nil {
		return err
	}
	if view == nil {
		slog.Warn("answer for unknown view ignored", "view_id", viewID, "grade", grade)
		return nil
	}
	if view.Graded() {
		slog.Warn("answer for already graded view ignored", "view_id", viewID, "grade", grade)
		return nil
	}

	card, err := s.db.FindCardByID(view.CardID)
	if err != nil {
		return err
	}
	if card == nil {
		return fmt.Errorf("%w: card %d for view %d", apperr.ErrNotFound, view.CardID, viewID)
	}

	now := time.Now().UTC()
	state, interval := s.params.Advance(
		card.MemoryState(), s.cfg.TargetRetention, card.ElapsedDays(now), grade)

	view.FinishedAt = &now
	view.Answer = &grade
	duration := now.Sub(view.StartedAt)
	view.Duration = &duration

	// round(interval) can be 0 for Again grades: the card comes back
	// today. Lapsed cards are not prioritized over new ones yet.
	// TODO: serve lapsed cards before brand-new ones in the selector.
	card.Stability = &state.Stability
	card.Difficulty = &state.Difficulty
	card.LastReview = &now
	card.Scheduled = now.AddDate(0, 0, int(math.Round(interval)))

	if err := s.db.CommitReview(view, card); err != nil {
		return err
	}

	slog.Info("review recorded",
		"view_id", viewID,
		"card_id", card.ID,
		"grade", grade.String(),
		"stability", state.Stability,
		"difficulty", state.Difficulty,
		"next_due", card.Scheduled,
	)
	return nil
}
