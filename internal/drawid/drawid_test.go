package drawid

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	v, err := Parse("113000123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 113000123 {
		t.Errorf("expected 113000123, got %d", v)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"abc",
		"113-000",
		" 113000123",
		"113000123 ",
		"1.5",
		"-1",
		"99999999999999999999", // overflows uint64
	}
	for _, id := range tests {
		_, err := Parse(id)
		if !errors.Is(err, ErrNotNumeric) {
			t.Errorf("expected ErrNotNumeric for %q, got %v", id, err)
		}
	}
}

func TestSequence(t *testing.T) {
	ids, err := Sequence("113000998", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"113000998", "113000999", "113001000", "113001001"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestSequence_KeepsWidth(t *testing.T) {
	ids, err := Sequence("0098", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"0098", "0099", "0100"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestSequence_Errors(t *testing.T) {
	if _, err := Sequence("113000001", 0); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
	if _, err := Sequence("abc", 3); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("expected ErrNotNumeric, got %v", err)
	}
	if _, err := Sequence("18446744073709551615", 2); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestGaps(t *testing.T) {
	ids := []string{"113000105", "113000101", "113000102", "113000102", "bogus", "113000110"}
	gaps := Gaps(ids)
	want := []Gap{
		{After: "113000102", Before: "113000105", Missing: 2},
		{After: "113000105", Before: "113000110", Missing: 4},
	}
	if !reflect.DeepEqual(gaps, want) {
		t.Errorf("expected %+v, got %+v", want, gaps)
	}
}

func TestGaps_Contiguous(t *testing.T) {
	if gaps := Gaps([]string{"3", "1", "2"}); len(gaps) != 0 {
		t.Errorf("expected no gaps, got %+v", gaps)
	}
}
