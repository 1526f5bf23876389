// Package model defines the core domain types shared across the bingo engine.
// All prize and cost amounts are whole NTD held in int64.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// NumbersPerDraw is the count of numbers drawn in every Bingo Bingo draw.
	NumbersPerDraw = 20

	// MinNumber and MaxNumber bound the number pool.
	MinNumber = 1
	MaxNumber = 80

	// UnitPrice is the cost of one base bet in NTD.
	UnitPrice int64 = 25

	// DrawnPlaceholder is used for DrawnAt when a source carries no draw time.
	DrawnPlaceholder = "drawn"
)

var (
	ErrWrongNumberCount = errors.New("model: draw must have exactly 20 numbers")
	ErrNumberOutOfRange = errors.New("model: number outside 1-80")
	ErrDuplicateNumber  = errors.New("model: duplicate number")
	ErrMissingDrawID    = errors.New("model: draw id is empty")
)

// DrawRecord is one normalized draw result. Records are built once per
// successful fetch and never modified afterwards.
type DrawRecord struct {
	DrawID  string `json:"draw_id"`
	DrawnAt string `json:"time"` // "YYYY-MM-DD HH:MM" or DrawnPlaceholder
	Numbers []int  `json:"numbers"`
}

// Validate checks the 20-distinct-numbers-in-range invariant.
func (d DrawRecord) Validate() error {
	if d.DrawID == "" {
		return ErrMissingDrawID
	}
	if len(d.Numbers) != NumbersPerDraw {
		return fmt.Errorf("%w: draw %s has %d", ErrWrongNumberCount, d.DrawID, len(d.Numbers))
	}
	var seen [MaxNumber + 1]bool
	for _, n := range d.Numbers {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("%w: draw %s has %d", ErrNumberOutOfRange, d.DrawID, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: draw %s repeats %d", ErrDuplicateNumber, d.DrawID, n)
		}
		seen[n] = true
	}
	return nil
}

// DrawCollection maps draw id to record. Settlement looks draws up by key,
// so source order is not significant here.
type DrawCollection map[string]DrawRecord

// NewDrawCollection indexes records by draw id. The first record seen for an
// id wins.
func NewDrawCollection(records []DrawRecord) DrawCollection {
	c := make(DrawCollection, len(records))
	for _, r := range records {
		if _, ok := c[r.DrawID]; ok {
			continue
		}
		c[r.DrawID] = r
	}
	return c
}

// BetMode selects how a bet is settled.
type BetMode string

const (
	ModeStarPick    BetMode = "star_pick"
	ModeSizeGuess   BetMode = "size_guess"
	ModeParityGuess BetMode = "parity_guess"
)

// Category choices for SizeGuess and ParityGuess.
const (
	ChoiceBig       = "big"
	ChoiceSmall     = "small"
	ChoiceOdd       = "odd"
	ChoiceEven      = "even"
	ChoiceSmallOdd  = "small_odd"
	ChoiceSmallEven = "small_even"
	ChoiceTie       = "tie"

	// OutcomeNone is the category of a draw that lands in a no-result band.
	OutcomeNone = "none"
)

// BetSpec describes one bet placed over a run of consecutive draws.
// Stars and Numbers apply to StarPick; Choice applies to the category modes.
type BetSpec struct {
	Mode        BetMode `json:"mode"`
	Stars       int     `json:"stars,omitempty"`
	Numbers     []int   `json:"numbers,omitempty"`
	Choice      string  `json:"choice,omitempty"`
	Multiplier  int     `json:"multiplier"`
	DrawSpan    int     `json:"draw_span"`
	StartDrawID string  `json:"start_draw_id"`
}

// SettlementRow is the outcome of one bet against one draw.
type SettlementRow struct {
	DrawID         string `json:"draw_id"`
	DrawnAt        string `json:"time"`
	WinningNumbers []int  `json:"winning_numbers"`
	MatchedNumbers []int  `json:"matched_numbers,omitempty"`
	MatchCount     int    `json:"match_count"`
	Outcome        string `json:"outcome"`
	BasePrize      int64  `json:"base_prize"`
	Prize          int64  `json:"prize"`
}

// Settlement statuses.
const (
	StatusSettled        = "settled"
	StatusNoDrawsInRange = "no_draws_in_range"
)

// SettlementResult aggregates a full settlement run.
type SettlementResult struct {
	Rows             []SettlementRow `json:"rows"`
	TotalCost        int64           `json:"total_cost"`
	TotalPrize       int64           `json:"total_prize"`
	Profit           int64           `json:"profit"`
	ReturnRate       decimal.Decimal `json:"return_rate"` // percent of cost paid back
	RequestedDrawIDs []string        `json:"requested_draw_ids"`
	MissingDrawIDs   []string        `json:"missing_draw_ids"`
	Status           string          `json:"status"`
	BonusActive      bool            `json:"bonus_active"`
}

// Attempt records one strategy try during a fetch sweep.
type Attempt struct {
	Strategy string        `json:"strategy"`
	OK       bool          `json:"ok"`
	Records  int           `json:"records"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// FetchResult is the outcome of one aggregator sweep.
type FetchResult struct {
	Records    []DrawRecord `json:"data"`
	Success    bool         `json:"success"`
	Source     string       `json:"source"`
	Diagnostic string       `json:"diagnostic,omitempty"`
	Attempts   []Attempt    `json:"attempts,omitempty"`
	FetchedAt  time.Time    `json:"fetched_at"`
	Synthetic  bool         `json:"synthetic"`
}

// Ticket is a stored bet owned by the caller.
type Ticket struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Bet         BetSpec   `json:"bet"`
	BonusActive bool      `json:"bonus_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
