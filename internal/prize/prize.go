// Package prize holds the Bingo Bingo payout configuration: the star-pick
// tier tables (normal and promotional bonus), the flat category payouts, and
// the band thresholds that decide size and parity outcomes.
//
// All amounts are NTD per base bet of 25. Tables are plain data; swapping the
// active table for a promotion needs no change to the settlement algorithm.
package prize

import (
	"errors"
	"fmt"

	"github.com/atmx/bingo-engine/internal/model"
)

// MinStars and MaxStars bound the star count of a StarPick bet.
const (
	MinStars = 1
	MaxStars = 10
)

var ErrInvalidTable = errors.New("prize: invalid table")

// Table maps star count -> match count -> payout. A missing match key means
// no prize. High star counts carry an explicit 0-match tier.
type Table map[int]map[int]int64

// Lookup returns the payout for stars/matches and whether a tier exists.
func (t Table) Lookup(stars, matches int) (int64, bool) {
	row, ok := t[stars]
	if !ok {
		return 0, false
	}
	amount, ok := row[matches]
	return amount, ok
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for stars, row := range t {
		r := make(map[int]int64, len(row))
		for k, v := range row {
			r[k] = v
		}
		out[stars] = r
	}
	return out
}

// Validate checks stars are within range and every tier is reachable.
func (t Table) Validate() error {
	for stars, row := range t {
		if stars < MinStars || stars > MaxStars {
			return fmt.Errorf("%w: star count %d", ErrInvalidTable, stars)
		}
		for matches, amount := range row {
			if matches < 0 || matches > stars {
				return fmt.Errorf("%w: %d-star row has %d-match tier", ErrInvalidTable, stars, matches)
			}
			if amount < 0 {
				return fmt.Errorf("%w: negative payout at %d/%d", ErrInvalidTable, stars, matches)
			}
		}
	}
	return nil
}

// SizeBands decide the size category of a draw. A number is big when it is
// at least BigNumberMin; the draw is big when BigMin or more numbers are big,
// small when SmallMax or fewer are, and has no result in between.
type SizeBands struct {
	BigNumberMin int `json:"big_number_min"`
	BigMin       int `json:"big_min"`
	SmallMax     int `json:"small_max"`
}

// ParityBands decide the parity category of a draw from its odd count:
// odd at OddMin or more, even at EvenMax or fewer, tie at exactly Tie,
// small_odd strictly between Tie and OddMin, small_even strictly between
// EvenMax and Tie.
type ParityBands struct {
	OddMin  int `json:"odd_min"`
	EvenMax int `json:"even_max"`
	Tie     int `json:"tie"`
}

// Tables is the full payout configuration used by one settlement run.
type Tables struct {
	Normal Table            `json:"normal"`
	Bonus  Table            `json:"bonus"`
	Size   map[string]int64 `json:"size"`
	Parity map[string]int64 `json:"parity"`

	SizeBands   SizeBands   `json:"size_bands"`
	ParityBands ParityBands `json:"parity_bands"`
}

// Active selects the star-pick table for a run.
func (t Tables) Active(bonus bool) Table {
	if bonus {
		return t.Bonus
	}
	return t.Normal
}

// Validate checks both star tables.
func (t Tables) Validate() error {
	if err := t.Normal.Validate(); err != nil {
		return fmt.Errorf("normal: %w", err)
	}
	if err := t.Bonus.Validate(); err != nil {
		return fmt.Errorf("bonus: %w", err)
	}
	return nil
}

var normalTable = Table{
	1:  {1: 50},
	2:  {2: 75},
	3:  {3: 500, 2: 50},
	4:  {4: 1000, 3: 100, 2: 25},
	5:  {5: 7500, 4: 500, 3: 50},
	6:  {6: 25000, 5: 1000, 4: 200, 3: 25},
	7:  {7: 80000, 6: 3000, 5: 300, 4: 50, 0: 25},
	8:  {8: 500000, 7: 20000, 6: 1000, 5: 200, 4: 25, 0: 25},
	9:  {9: 1000000, 8: 100000, 7: 3000, 6: 500, 5: 100, 4: 25, 0: 50},
	10: {10: 5000000, 9: 250000, 8: 25000, 7: 2500, 6: 250, 5: 25, 0: 25},
}

// Promotional schedule: only the 3-star and 4-star rows change.
var bonusRows = map[int]map[int]int64{
	3: {3: 1000, 2: 50},
	4: {4: 2000, 3: 200, 2: 25},
}

// Default returns a fresh copy of the standard payout configuration.
func Default() Tables {
	bonus := normalTable.Clone()
	for stars, row := range bonusRows {
		r := make(map[int]int64, len(row))
		for k, v := range row {
			r[k] = v
		}
		bonus[stars] = r
	}

	return Tables{
		Normal: normalTable.Clone(),
		Bonus:  bonus,
		Size: map[string]int64{
			model.ChoiceBig:   150,
			model.ChoiceSmall: 150,
		},
		Parity: map[string]int64{
			model.ChoiceOdd:       150,
			model.ChoiceEven:      150,
			model.ChoiceSmallOdd:  50,
			model.ChoiceSmallEven: 50,
			model.ChoiceTie:       70,
		},
		SizeBands:   SizeBands{BigNumberMin: 41, BigMin: 13, SmallMax: 7},
		ParityBands: ParityBands{OddMin: 13, EvenMax: 7, Tie: 10},
	}
}
