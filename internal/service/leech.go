package service

import "github.com/analiz-sintez/begriff/internal/domain"

// IsLeech reports whether a card stays hard despite repeated review:
// its difficulty has reached the leech threshold over at least the
// configured number of views. Leech status never affects scheduling;
// presentation logic uses it to trigger supplementary aids.
func (s *Service) IsLeech(card *domain.Card) (bool, error) {
	if card.Difficulty == nil || *card.Difficulty < s.cfg.LeechDifficulty {
		return false, nil
	}
	views, err := s.db.CountViewsByCardID(card.ID)
	if err != nil {
		return false, err
	}
	return views >= s.cfg.LeechViewCount, nil
}
