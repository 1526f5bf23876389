package model

import (
	"errors"
	"testing"
)

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestDrawRecordValidate_Valid(t *testing.T) {
	d := DrawRecord{DrawID: "113000123", DrawnAt: DrawnPlaceholder, Numbers: seq(1, 20)}
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDrawRecordValidate_Invalid(t *testing.T) {
	dup := seq(1, 20)
	dup[19] = 1
	outOfRange := seq(61, 20) // 61..80
	outOfRange[0] = 81

	tests := []struct {
		name string
		rec  DrawRecord
		want error
	}{
		{"empty id", DrawRecord{Numbers: seq(1, 20)}, ErrMissingDrawID},
		{"too few", DrawRecord{DrawID: "1", Numbers: seq(1, 19)}, ErrWrongNumberCount},
		{"too many", DrawRecord{DrawID: "1", Numbers: seq(1, 21)}, ErrWrongNumberCount},
		{"duplicate", DrawRecord{DrawID: "1", Numbers: dup}, ErrDuplicateNumber},
		{"out of range", DrawRecord{DrawID: "1", Numbers: outOfRange}, ErrNumberOutOfRange},
		{"zero", DrawRecord{DrawID: "1", Numbers: seq(0, 20)}, ErrNumberOutOfRange},
	}
	for _, tt := range tests {
		err := tt.rec.Validate()
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestNewDrawCollection_FirstWins(t *testing.T) {
	first := DrawRecord{DrawID: "113000001", DrawnAt: "first", Numbers: seq(1, 20)}
	second := DrawRecord{DrawID: "113000001", DrawnAt: "second", Numbers: seq(21, 20)}
	other := DrawRecord{DrawID: "113000002", Numbers: seq(41, 20)}

	c := NewDrawCollection([]DrawRecord{first, second, other})
	if len(c) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(c))
	}
	if c["113000001"].DrawnAt != "first" {
		t.Errorf("expected first record to win, got %q", c["113000001"].DrawnAt)
	}
}
