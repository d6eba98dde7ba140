package srs

import (
	"math"
	"testing"
)

func TestAdvanceFirstReview(t *testing.T) {
	p := DefaultParams()

	state, ivl := p.Advance(nil, 0.9, 0, Good)

	if math.Abs(state.Stability-DefaultWeights[Good-1]) > 1e-9 {
		t.Errorf("expected initial stability %f, got %f", DefaultWeights[Good-1], state.Stability)
	}
	if state.Difficulty < 1 || state.Difficulty > 10 {
		t.Errorf("initial difficulty out of range: %f", state.Difficulty)
	}
	if ivl <= 0 {
		t.Errorf("expected a positive interval after Good, got %f", ivl)
	}
}

func TestAdvanceIsDeterministic(t *testing.T) {
	p := DefaultParams()
	prev := &MemoryState{Stability: 10, Difficulty: 5}

	s1, i1 := p.Advance(prev, 0.9, 12, Hard)
	s2, i2 := p.Advance(prev, 0.9, 12, Hard)

	if s1 != s2 || i1 != i2 {
		t.Errorf("Advance is not deterministic: (%v, %f) vs (%v, %f)", s1, i1, s2, i2)
	}
}

func TestAdvanceSuccessGrowsStability(t *testing.T) {
	p := DefaultParams()
	prev := &MemoryState{Stability: 10, Difficulty: 5}

	for _, grade := range []Rating{Hard, Good, Easy} {
		t.Run(grade.String(), func(t *testing.T) {
			next, _ := p.Advance(prev, 0.9, 10, grade)
			if next.Stability <= prev.Stability {
				t.Errorf("expected stability to grow after %s, got %f -> %f",
					grade, prev.Stability, next.Stability)
			}
		})
	}
}

func TestAdvanceGradeOrdering(t *testing.T) {
	p := DefaultParams()
	prev := &MemoryState{Stability: 10, Difficulty: 5}

	_, iHard := p.Advance(prev, 0.9, 10, Hard)
	_, iGood := p.Advance(prev, 0.9, 10, Good)
	_, iEasy := p.Advance(prev, 0.9, 10, Easy)

	if !(iHard < iGood && iGood < iEasy) {
		t.Errorf("expected hard < good < easy intervals, got %f, %f, %f", iHard, iGood, iEasy)
	}
}

func TestAdvanceAgainShrinksStability(t *testing.T) {
	p := DefaultParams()
	prev := &MemoryState{Stability: 30, Difficulty: 5}

	next, _ := p.Advance(prev, 0.9, 30, Again)

	if next.Stability >= prev.Stability {
		t.Errorf("expected stability to drop after a lapse, got %f -> %f",
			prev.Stability, next.Stability)
	}
	if next.Difficulty <= prev.Difficulty {
		t.Errorf("expected difficulty to rise after a lapse, got %f -> %f",
			prev.Difficulty, next.Difficulty)
	}
}

// Grading Again on a brand-new card may round down to a zero-day
// interval, i.e. the card is re-queued for today. This is accepted
// scheduling behavior, not an error.
func TestAgainOnNewCardCanRequeueToday(t *testing.T) {
	p := DefaultParams()

	state, ivl := p.Advance(nil, 0.9, 0, Again)

	if state.Stability != DefaultWeights[0] {
		t.Errorf("expected initial Again stability %f, got %f", DefaultWeights[0], state.Stability)
	}
	if math.Round(ivl) != 0 {
		t.Errorf("expected Again on a new card to round to a 0-day interval, got %f", ivl)
	}
}

func TestAdvanceDifficultyStaysClamped(t *testing.T) {
	p := DefaultParams()
	state := &MemoryState{Stability: 1, Difficulty: 9.9}

	for i := 0; i < 20; i++ {
		next, _ := p.Advance(state, 0.9, 1, Again)
		state = &next
		if state.Difficulty < 1 || state.Difficulty > 10 {
			t.Fatalf("difficulty escaped [1, 10] after %d lapses: %f", i+1, state.Difficulty)
		}
	}
}

func TestHigherRetentionShortensInterval(t *testing.T) {
	p := DefaultParams()
	prev := &MemoryState{Stability: 10, Difficulty: 5}

	_, relaxed := p.Advance(prev, 0.8, 10, Good)
	_, strict := p.Advance(prev, 0.95, 10, Good)

	if strict >= relaxed {
		t.Errorf("expected higher target retention to shorten the interval: %f >= %f", strict, relaxed)
	}
}

func TestParseRating(t *testing.T) {
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		got, err := ParseRating(r.String())
		if err != nil {
			t.Fatalf("ParseRating(%q): %v", r.String(), err)
		}
		if got != r {
			t.Errorf("ParseRating(%q) = %v, want %v", r.String(), got, r)
		}
	}
	if _, err := ParseRating("meh"); err == nil {
		t.Error("expected an error for an unknown rating name")
	}
}

func TestNewParamsRejectsZeroDecay(t *testing.T) {
	w := DefaultWeights
	w[20] = 0
	if _, err := NewParams(w); err == nil {
		t.Error("expected an error for a zero decay weight")
	}
}
