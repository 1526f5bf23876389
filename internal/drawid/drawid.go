// Package drawid handles Bingo Bingo draw identifiers: validation, the
// consecutive-draw successor used by settlement, and gap detection.
//
// Draw ids are numeric strings such as 113000123 (ROC year prefix followed
// by a per-year counter). Settlement treats them as integers and assumes the
// id space is contiguous; Gaps exists so that assumption can be checked
// against fetched data instead of trusted blindly.
package drawid

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var numericRegex = regexp.MustCompile(`^\d+$`)

var (
	ErrNotNumeric   = errors.New("drawid: draw id must be numeric")
	ErrInvalidCount = errors.New("drawid: count must be positive")
	ErrOverflow     = errors.New("drawid: draw id range overflows")
)

// Parse returns the integer value of a draw id.
func Parse(id string) (uint64, error) {
	if !numericRegex.MatchString(id) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, id)
	}
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, id)
	}
	return v, nil
}

// Format renders v zero-padded to width digits.
func Format(v uint64, width int) string {
	return fmt.Sprintf("%0*d", width, v)
}

// Sequence returns count consecutive ids starting at start. Each id keeps the
// zero-padded width of start.
func Sequence(start string, count int) ([]string, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	base, err := Parse(start)
	if err != nil {
		return nil, err
	}
	if base > ^uint64(0)-uint64(count-1) {
		return nil, fmt.Errorf("%w: %s + %d", ErrOverflow, start, count)
	}

	ids := make([]string, count)
	for i := range ids {
		ids[i] = Format(base+uint64(i), len(start))
	}
	return ids, nil
}

// Gap is a run of missing ids between two present ones.
type Gap struct {
	After   string `json:"after"`
	Before  string `json:"before"`
	Missing uint64 `json:"missing"`
}

// Gaps sorts the numeric ids and reports every hole between neighbours.
// Non-numeric ids are ignored. Duplicates are not gaps.
func Gaps(ids []string) []Gap {
	type entry struct {
		raw string
		v   uint64
	}
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		v, err := Parse(id)
		if err != nil {
			continue
		}
		entries = append(entries, entry{raw: id, v: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].v < entries[j].v })

	var gaps []Gap
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.v-prev.v > 1 {
			gaps = append(gaps, Gap{
				After:   prev.raw,
				Before:  cur.raw,
				Missing: cur.v - prev.v - 1,
			})
		}
	}
	return gaps
}
