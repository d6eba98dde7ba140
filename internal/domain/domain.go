// Package domain holds the core entities of the vocabulary trainer:
// users own notes, notes generate cards, cards accumulate views.
package domain

import (
	"fmt"
	"time"

	"github.com/analiz-sintez/begriff/internal/srs"
)

// User is an account that owns notes. Login is the external identity
// (e.g. a messenger handle); it is unique.
type User struct {
	ID        int64
	Login     string
	Options   Options
	CreatedAt time.Time
}

// Language is created on first reference by name and never mutated.
type Language struct {
	ID   int64
	Name string
}

// NoteType tags what kind of studied item a note is.
type NoteType string

const (
	WordNote    NoteType = "word"
	ExampleNote NoteType = "example"
)

// Note is a studied item: a word or phrase (Field1) with an optional
// explanation (Field2). A note owns its cards; deleting a note cascades
// to cards and their views.
type Note struct {
	ID         int64
	UserID     int64
	LanguageID int64
	Type       NoteType
	Field1     string
	Field2     string
	Options    Options
	CreatedAt  time.Time
}

// CardType tags how a card derives its front and back from the note.
type CardType string

const (
	// ForwardCard shows the word and expects the explanation.
	ForwardCard CardType = "forward"
	// ReverseCard shows the explanation and expects the word.
	ReverseCard CardType = "reverse"
	// ImageCard shows a picture stored in the note options.
	ImageCard CardType = "image"
)

// Front returns the prompt side of a card of this type for the given note.
func (t CardType) Front(n *Note) string {
	switch t {
	case ReverseCard:
		return n.Field2
	case ImageCard:
		return n.Options.String("image/url", "")
	default:
		return n.Field1
	}
}

// Back returns the answer side of a card of this type for the given note.
func (t CardType) Back(n *Note) string {
	switch t {
	case ReverseCard:
		return n.Field1
	default:
		return n.Field2
	}
}

// Card is one directional prompt/answer pair, independently scheduled.
// Stability and Difficulty are nil together until the first review.
// Scheduled is always set; new cards default to "now" so they are
// immediately due.
type Card struct {
	ID         int64
	NoteID     int64
	Type       CardType
	Stability  *float64
	Difficulty *float64
	LastReview *time.Time
	Scheduled  time.Time
	CreatedAt  time.Time
}

// MemoryState returns the card's (stability, difficulty) pair, or nil if
// the card has never been reviewed.
func (c *Card) MemoryState() *srs.MemoryState {
	if c.Stability == nil || c.Difficulty == nil {
		return nil
	}
	return &srs.MemoryState{Stability: *c.Stability, Difficulty: *c.Difficulty}
}

// ElapsedDays returns whole days since the last review at the given
// instant, or 0 if the card was never reviewed.
func (c *Card) ElapsedDays(now time.Time) int {
	if c.LastReview == nil {
		return 0
	}
	d := int(now.Sub(*c.LastReview).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Maturity classifies a card by its scheduling state. It is derived at
// query time, never stored, so a card's class can shift between queries
// without any write.
type Maturity string

const (
	New    Maturity = "new"
	Young  Maturity = "young"
	Mature Maturity = "mature"
)

// ParseMaturity converts a class name into a Maturity.
func ParseMaturity(s string) (Maturity, error) {
	switch Maturity(s) {
	case New, Young, Mature:
		return Maturity(s), nil
	}
	return "", fmt.Errorf("unknown maturity %q", s)
}

// Maturity returns the card's class at the given instant. A card is NEW
// until its first review; afterwards it is YOUNG while scheduled within
// matureThreshold of now and MATURE beyond it.
func (c *Card) Maturity(now time.Time, matureThreshold time.Duration) Maturity {
	if c.LastReview == nil {
		return New
	}
	if c.Scheduled.After(now.Add(matureThreshold)) {
		return Mature
	}
	return Young
}

// View is one presentation-and-grading event for a card. It is created
// when the front is shown, mutated exactly once when the grade comes in,
// and immutable afterwards. The views of a card are its review history.
type View struct {
	ID         int64
	CardID     int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Answer     *srs.Rating
	Duration   *time.Duration
}

// Graded reports whether the view has received its answer.
func (v *View) Graded() bool {
	return v.FinishedAt != nil && v.Answer != nil
}
