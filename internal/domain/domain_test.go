package domain

import (
	"testing"
	"time"
)

func TestParseMaturity(t *testing.T) {
	for _, name := range []string{"new", "young", "mature"} {
		m, err := ParseMaturity(name)
		if err != nil || string(m) != name {
			t.Errorf("ParseMaturity(%q) = (%q, %v)", name, m, err)
		}
	}
	for _, name := range []string{"", "yuong", "NEW", "old"} {
		if _, err := ParseMaturity(name); err == nil {
			t.Errorf("ParseMaturity(%q) should fail", name)
		}
	}
}

func ptr[T any](v T) *T { return &v }

func TestCardTypeFrontBack(t *testing.T) {
	note := &Note{Field1: "Begriff", Field2: "a concept or notion"}
	note.Options = Options{}
	if err := note.Options.Set("image/url", "https://img.example/begriff.png"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		cardType CardType
		front    string
		back     string
	}{
		{ForwardCard, "Begriff", "a concept or notion"},
		{ReverseCard, "a concept or notion", "Begriff"},
		{ImageCard, "https://img.example/begriff.png", "a concept or notion"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cardType), func(t *testing.T) {
			if got := tt.cardType.Front(note); got != tt.front {
				t.Errorf("Front() = %q, want %q", got, tt.front)
			}
			if got := tt.cardType.Back(note); got != tt.back {
				t.Errorf("Back() = %q, want %q", got, tt.back)
			}
		})
	}
}

func TestMaturity(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := 21 * 24 * time.Hour

	tests := []struct {
		name string
		card Card
		want Maturity
	}{
		{
			name: "never reviewed",
			card: Card{Scheduled: now},
			want: New,
		},
		{
			name: "reviewed, due soon",
			card: Card{LastReview: ptr(now.Add(-24 * time.Hour)), Scheduled: now.Add(48 * time.Hour)},
			want: Young,
		},
		{
			name: "reviewed, due exactly at the threshold",
			card: Card{LastReview: ptr(now.Add(-24 * time.Hour)), Scheduled: now.Add(threshold)},
			want: Young,
		},
		{
			name: "reviewed, due far out",
			card: Card{LastReview: ptr(now.Add(-24 * time.Hour)), Scheduled: now.Add(threshold + time.Hour)},
			want: Mature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.Maturity(now, threshold); got != tt.want {
				t.Errorf("Maturity() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Every card falls into exactly one maturity class at a fixed instant.
func TestMaturityIsAPartition(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := 21 * 24 * time.Hour

	cards := []Card{
		{Scheduled: now},
		{Scheduled: now.Add(-time.Hour)},
		{LastReview: ptr(now), Scheduled: now},
		{LastReview: ptr(now), Scheduled: now.Add(threshold)},
		{LastReview: ptr(now), Scheduled: now.Add(threshold + time.Second)},
		{LastReview: ptr(now), Scheduled: now.Add(365 * 24 * time.Hour)},
	}
	for i, c := range cards {
		m := c.Maturity(now, threshold)
		if m != New && m != Young && m != Mature {
			t.Errorf("card %d: maturity %q is outside the partition", i, m)
		}
	}
}

func TestElapsedDays(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	never := Card{Scheduled: now}
	if got := never.ElapsedDays(now); got != 0 {
		t.Errorf("never-reviewed card: ElapsedDays = %d, want 0", got)
	}

	reviewed := Card{LastReview: ptr(now.Add(-49 * time.Hour))}
	if got := reviewed.ElapsedDays(now); got != 2 {
		t.Errorf("ElapsedDays = %d, want floor(49h/24h) = 2", got)
	}

	sameDay := Card{LastReview: ptr(now.Add(-30 * time.Minute))}
	if got := sameDay.ElapsedDays(now); got != 0 {
		t.Errorf("same-day review: ElapsedDays = %d, want 0", got)
	}
}

func TestMemoryStateBothOrNeither(t *testing.T) {
	c := Card{}
	if c.MemoryState() != nil {
		t.Error("card without reviews should have a nil memory state")
	}

	c.Stability = ptr(3.5)
	if c.MemoryState() != nil {
		t.Error("half-set memory pair must not produce a state")
	}

	c.Difficulty = ptr(5.0)
	st := c.MemoryState()
	if st == nil || st.Stability != 3.5 || st.Difficulty != 5.0 {
		t.Errorf("unexpected memory state: %+v", st)
	}
}
