// Package stats computes descriptive tallies over fetched draws: how often
// each number was drawn (hot/cold) and how draws fell into the size and
// parity categories. Nothing here predicts future draws.
package stats

import (
	"sort"

	"github.com/atmx/bingo-engine/internal/model"
	"github.com/atmx/bingo-engine/internal/prize"
	"github.com/atmx/bingo-engine/internal/settle"
)

// NumberCount is how many of the tallied draws contained Number.
type NumberCount struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// Frequency holds per-number counts over a set of draws.
type Frequency struct {
	Draws  int           `json:"draws"`
	Counts []NumberCount `json:"counts"` // ascending by number, 1..80
}

// Tally counts every number across records. Numbers outside 1..80 are
// ignored.
func Tally(records []model.DrawRecord) Frequency {
	var counts [model.MaxNumber + 1]int
	for _, r := range records {
		for _, n := range r.Numbers {
			if n >= model.MinNumber && n <= model.MaxNumber {
				counts[n]++
			}
		}
	}

	f := Frequency{
		Draws:  len(records),
		Counts: make([]NumberCount, 0, model.MaxNumber),
	}
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		f.Counts = append(f.Counts, NumberCount{Number: n, Count: counts[n]})
	}
	return f
}

// Hot returns the n most drawn numbers, ties broken by lower number.
func (f Frequency) Hot(n int) []NumberCount {
	return f.top(n, func(a, b NumberCount) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Number < b.Number
	})
}

// Cold returns the n least drawn numbers, ties broken by lower number.
func (f Frequency) Cold(n int) []NumberCount {
	return f.top(n, func(a, b NumberCount) bool {
		if a.Count != b.Count {
			return a.Count < b.Count
		}
		return a.Number < b.Number
	})
}

func (f Frequency) top(n int, less func(a, b NumberCount) bool) []NumberCount {
	sorted := append([]NumberCount(nil), f.Counts...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Distribution tallies size and parity outcomes per category.
type Distribution struct {
	Draws  int            `json:"draws"`
	Size   map[string]int `json:"size"`
	Parity map[string]int `json:"parity"`
}

// Distribute classifies every draw with the configured bands.
func Distribute(records []model.DrawRecord, tables prize.Tables) Distribution {
	d := Distribution{
		Draws:  len(records),
		Size:   make(map[string]int),
		Parity: make(map[string]int),
	}
	for _, r := range records {
		d.Size[settle.ClassifySize(r.Numbers, tables.SizeBands)]++
		d.Parity[settle.ClassifyParity(r.Numbers, tables.ParityBands)]++
	}
	return d
}
