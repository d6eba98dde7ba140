package service

import (
	"math/rand/v2"
	"time"

	"github.com/analiz-sintez/begriff/internal/domain"
	"github.com/analiz-sintez/begriff/internal/storage"
)

// MaturitySet restricts a selection to the given maturity classes.
type MaturitySet map[domain.Maturity]bool

// SelectQuery shapes one due-card selection.
type SelectQuery struct {
	LanguageID *int64
	// EndTS keeps only cards scheduled at or before this instant,
	// typically "end of today" computed by the caller. Nil means no
	// due-date bound.
	EndTS *time.Time
	// BurySiblings hides cards whose note had another card graded
	// within the session window, unless the card itself was the one
	// graded (an Again re-queue must still come back).
	BurySiblings   bool
	MaturityFilter MaturitySet
	Randomize      bool
}

// SelectCards returns the user's cards matching the query: soonest-due
// first, or uniformly shuffled over the whole filtered set when
// Randomize is set. The query never writes.
func (s *Service) SelectCards(userID int64, q SelectQuery) ([]domain.Card, error) {
	cards, err := s.db.GetCards(storage.CardQuery{
		UserID:     userID,
		LanguageID: q.LanguageID,
		DueBefore:  q.EndTS,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if q.BurySiblings {
		reviewedCards, touchedNotes, err := s.db.RecentlyReviewed(userID, now.Add(-s.cfg.SessionWindow()))
		if err != nil {
			return nil, err
		}
		kept := cards[:0]
		for _, card := range cards {
			if touchedNotes[card.NoteID] && !reviewedCards[card.ID] {
				continue
			}
			kept = append(kept, card)
		}
		cards = kept
	}

	if len(q.MaturityFilter) > 0 {
		kept := cards[:0]
		for _, card := range cards {
			if q.MaturityFilter[card.Maturity(now, s.cfg.MatureThreshold())] {
				kept = append(kept, card)
			}
		}
		cards = kept
	}

	if q.Randomize {
		rand.Shuffle(len(cards), func(i, j int) {
			cards[i], cards[j] = cards[j], cards[i]
		})
	}
	return cards, nil
}

// NewCardsRemaining computes today's unused new-card budget from the
// view history: the per-session quota minus the cards first graded
// within the session window. It can go negative.
func (s *Service) NewCardsRemaining(userID int64, languageID *int64) (int, error) {
	since := time.Now().UTC().Add(-s.cfg.SessionWindow())
	studied, err := s.db.CountNewCardsStudied(userID, languageID, since)
	if err != nil {
		return 0, err
	}
	return s.cfg.NewCardsPerSession - studied, nil
}

// SessionCards selects the cards for a study session: due by endTS,
// siblings buried per configuration, and NEW cards hidden once the
// session's new-card budget is spent. Reviews keep flowing either way.
func (s *Service) SessionCards(userID int64, languageID *int64, endTS *time.Time, randomize bool) ([]domain.Card, error) {
	remaining, err := s.NewCardsRemaining(userID, languageID)
	if err != nil {
		return nil, err
	}
	q := SelectQuery{
		LanguageID:   languageID,
		EndTS:        endTS,
		BurySiblings: s.cfg.BurySiblings,
		Randomize:    randomize,
	}
	if remaining <= 0 {
		q.MaturityFilter = MaturitySet{domain.Young: true, domain.Mature: true}
	}
	return s.SelectCards(userID, q)
}
