// Package srs implements the memory model: a pure FSRS-style function
// mapping (previous memory state, elapsed days, grade) to the next
// memory state and review interval.
package srs

import (
	"fmt"
	"math"
)

// Rating is the user's self-assessed recall quality for one review.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

var ratingNames = map[Rating]string{
	Again: "again",
	Hard:  "hard",
	Good:  "good",
	Easy:  "easy",
}

// IsValid reports whether r is one of the four grades.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

// ParseRating maps a grade name ("again", "hard", "good", "easy") back
// to its Rating.
func ParseRating(s string) (Rating, error) {
	for r, name := range ratingNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rating %q", s)
}

// MemoryState is the (stability, difficulty) pair describing how well a
// card is retained. Stability is the interval in days at which recall
// probability decays to 90%; difficulty is clamped to [1, 10].
type MemoryState struct {
	Stability  float64
	Difficulty float64
}

// Params holds the FSRS weight table. The weights are a fixed global
// table, not optimized per user.
type Params struct {
	W [21]float64

	decay  float64 // -W[20]
	factor float64 // 0.9^(1/decay) - 1
}

// DefaultWeights are the published FSRS-6 defaults.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956,
	6.4133, 0.8334, 3.0194, 0.001,
	1.8722, 0.1666, 0.796, 1.4835,
	0.0614, 0.2629, 1.6483, 0.6014,
	1.8729, 0.5425, 0.0912, 0.0658,
	0.1542,
}

// NewParams precomputes the decay constants for a weight table.
func NewParams(w [21]float64) (*Params, error) {
	if w[20] <= 0 {
		return nil, fmt.Errorf("invalid decay weight w[20]=%f", w[20])
	}
	decay := -w[20]
	return &Params{
		W:      w,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}, nil
}

// DefaultParams returns Params built from DefaultWeights.
func DefaultParams() *Params {
	p, err := NewParams(DefaultWeights)
	if err != nil {
		panic(err) // unreachable with DefaultWeights
	}
	return p
}

// Advance applies one review to a card's memory state and returns the
// new state plus the next interval in fractional days. A nil state
// means the card has never been reviewed and takes the initial-state
// branch. The caller rounds the interval; rounding can legitimately
// produce 0 for Again grades, which re-queues the card immediately.
//
// Advance is pure: no I/O, deterministic for identical inputs.
func (p *Params) Advance(state *MemoryState, targetRetention float64, elapsedDays int, grade Rating) (MemoryState, float64) {
	var next MemoryState
	if state == nil {
		next = MemoryState{
			Stability:  p.initStability(grade),
			Difficulty: p.initDifficulty(grade, true),
		}
	} else {
		r := p.retrievability(float64(elapsedDays), state.Stability)
		next = MemoryState{
			Stability:  p.nextStability(state.Difficulty, state.Stability, r, grade),
			Difficulty: p.nextDifficulty(state.Difficulty, grade),
		}
	}
	return next, p.interval(next.Stability, targetRetention)
}

// interval computes I(r, S) = (S / FACTOR) * (r^(1/DECAY) - 1) in days.
// The result is not clamped to a minimum of one day on purpose: a low
// post-lapse stability may schedule the card for today again.
func (p *Params) interval(stability, targetRetention float64) float64 {
	ivl := stability / p.factor * (math.Pow(targetRetention, 1.0/p.decay) - 1)
	return math.Max(ivl, 0)
}

// retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY.
func (p *Params) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+p.factor*elapsedDays/stability, p.decay)
}

// initStability returns S₀(G) = clamp_s(w[G-1]).
func (p *Params) initStability(grade Rating) float64 {
	return clampStability(p.W[grade-1])
}

// initDifficulty returns D₀(G) = w[4] - e^(w[5]*(G-1)) + 1.
func (p *Params) initDifficulty(grade Rating, clamp bool) float64 {
	d := p.W[4] - math.Exp(p.W[5]*float64(grade-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextDifficulty applies linear damping and mean reversion towards the
// initial Easy difficulty.
func (p *Params) nextDifficulty(difficulty float64, grade Rating) float64 {
	deltaD := -p.W[6] * (float64(grade) - 3)
	damped := difficulty + (10-difficulty)*deltaD/9
	target := p.initDifficulty(Easy, false)
	return clampDifficulty(p.W[7]*target + (1-p.W[7])*damped)
}

func (p *Params) nextStability(d, s, r float64, grade Rating) float64 {
	if grade == Again {
		return p.forgetStability(d, s, r)
	}
	return p.recallStability(d, s, r, grade)
}

// recallStability grows stability after a successful recall:
// S' = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hard * easy)
func (p *Params) recallStability(d, s, r float64, grade Rating) float64 {
	hardPenalty := 1.0
	if grade == Hard {
		hardPenalty = p.W[15]
	}
	easyBonus := 1.0
	if grade == Easy {
		easyBonus = p.W[16]
	}
	grown := s * (1 + math.Exp(p.W[8])*
		(11-d)*
		math.Pow(s, -p.W[9])*
		(math.Exp((1-r)*p.W[10])-1)*
		hardPenalty*easyBonus)
	return clampStability(grown)
}

// forgetStability shrinks stability after a lapse, bounded by the
// short-term floor S / e^(w[17]*w[18]).
func (p *Params) forgetStability(d, s, r float64) float64 {
	long := p.W[11] *
		math.Pow(d, -p.W[12]) *
		(math.Pow(s+1, p.W[13]) - 1) *
		math.Exp((1-r)*p.W[14])
	short := s / math.Exp(p.W[17]*p.W[18])
	return clampStability(math.Min(long, short))
}

func clampStability(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
