package domain

import (
	"encoding/json"
	"testing"
)

func TestOptionsSetGet(t *testing.T) {
	o := Options{}

	if err := o.Set("srs.retention", 0.85); err != nil {
		t.Fatal(err)
	}
	if err := o.Set("notifications/daily", true); err != nil {
		t.Fatal(err)
	}
	if err := o.Set("ui.cards_per_page", 20); err != nil {
		t.Fatal(err)
	}

	if got := o.Float("srs/retention", 0); got != 0.85 {
		t.Errorf("Float = %f, want 0.85 (slash path must alias dot path)", got)
	}
	if !o.Bool("notifications.daily", false) {
		t.Error("Bool: expected stored true")
	}
	if got := o.Int("ui.cards_per_page", 0); got != 20 {
		t.Errorf("Int = %d, want 20", got)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}
	if got := o.String("missing.path", "fallback"); got != "fallback" {
		t.Errorf("String default = %q", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Errorf("Int default = %d", got)
	}
	if got := o.Bool("missing", true); got != true {
		t.Errorf("Bool default = %v", got)
	}
}

func TestOptionsRejectsOpenEndedValues(t *testing.T) {
	o := Options{}
	if err := o.Set("bad", []string{"a", "b"}); err == nil {
		t.Error("expected slices to be rejected")
	}
	if err := o.Set("bad", map[string]any{"x": 1}); err == nil {
		t.Error("expected raw maps to be rejected as leaf values")
	}
	if err := o.Set("", "x"); err == nil {
		t.Error("expected empty path to be rejected")
	}
}

func TestOptionsRefusesToClobberSubtrees(t *testing.T) {
	o := Options{}
	if err := o.Set("a.b", "leaf"); err != nil {
		t.Fatal(err)
	}
	if err := o.Set("a.b.c", "deeper"); err == nil {
		t.Error("expected setting below a leaf to fail")
	}
}

func TestOptionsJSONRoundTrip(t *testing.T) {
	o := Options{}
	if err := o.Set("image.url", "https://img.example/x.png"); err != nil {
		t.Fatal(err)
	}
	if err := o.Set("srs.new_per_day", 15); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeOptions(data)
	if err != nil {
		t.Fatal(err)
	}

	if got := decoded.String("image.url", ""); got != "https://img.example/x.png" {
		t.Errorf("url after round trip = %q", got)
	}
	// JSON numbers come back as float64; Int must still read them.
	if got := decoded.Int("srs.new_per_day", 0); got != 15 {
		t.Errorf("new_per_day after round trip = %d", got)
	}
}

func TestDecodeOptionsEmpty(t *testing.T) {
	o, err := DecodeOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Set("k", "v"); err != nil {
		t.Errorf("empty decoded bag should be usable: %v", err)
	}
}
