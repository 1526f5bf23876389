// Package settle implements the Bingo Bingo settlement engine: given a bet,
// the draws fetched for a period range and the promotion flag, it computes
// the per-draw outcome and prize plus aggregate cost, payout and profit.
//
// The engine is stateless. Tables are read, never written, so one Engine
// can serve concurrent callers and the same inputs always yield the same
// result.
package settle

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atmx/bingo-engine/internal/drawid"
	"github.com/atmx/bingo-engine/internal/model"
	"github.com/atmx/bingo-engine/internal/prize"
)

var (
	// ErrInvalidBet wraps every bet validation failure.
	ErrInvalidBet = errors.New("settle: invalid bet")

	// ErrInvalidStartDraw is returned when the start draw id is not numeric.
	ErrInvalidStartDraw = errors.New("settle: start draw id must be numeric")
)

// Upper bounds on a single bet. They keep the id sequence allocation small
// and every cost and prize product well inside int64.
const (
	MaxDrawSpan   = 10000
	MaxMultiplier = 100000
)

var (
	sizeChoices = map[string]bool{
		model.ChoiceBig:   true,
		model.ChoiceSmall: true,
	}
	parityChoices = map[string]bool{
		model.ChoiceOdd:       true,
		model.ChoiceEven:      true,
		model.ChoiceSmallOdd:  true,
		model.ChoiceSmallEven: true,
		model.ChoiceTie:       true,
	}
)

// Engine settles bets against a fixed payout configuration.
type Engine struct {
	tables prize.Tables
}

// NewEngine creates an engine over the given tables.
func NewEngine(tables prize.Tables) (*Engine, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &Engine{tables: tables}, nil
}

// Tables returns the payout configuration in use.
func (e *Engine) Tables() prize.Tables {
	return e.tables
}

// Validate checks a bet before settlement. Every failure wraps ErrInvalidBet;
// a malformed start id additionally wraps ErrInvalidStartDraw.
func Validate(bet model.BetSpec) error {
	if bet.Multiplier < 1 {
		return fmt.Errorf("%w: multiplier must be at least 1, got %d", ErrInvalidBet, bet.Multiplier)
	}
	if bet.Multiplier > MaxMultiplier {
		return fmt.Errorf("%w: multiplier must be at most %d, got %d", ErrInvalidBet, MaxMultiplier, bet.Multiplier)
	}
	if bet.DrawSpan < 1 {
		return fmt.Errorf("%w: draw span must be at least 1, got %d", ErrInvalidBet, bet.DrawSpan)
	}
	if bet.DrawSpan > MaxDrawSpan {
		return fmt.Errorf("%w: draw span must be at most %d, got %d", ErrInvalidBet, MaxDrawSpan, bet.DrawSpan)
	}
	if _, err := drawid.Parse(bet.StartDrawID); err != nil {
		return fmt.Errorf("%w: %w: %q", ErrInvalidBet, ErrInvalidStartDraw, bet.StartDrawID)
	}

	switch bet.Mode {
	case model.ModeStarPick:
		return validateStarPick(bet)
	case model.ModeSizeGuess:
		if !sizeChoices[bet.Choice] {
			return fmt.Errorf("%w: size choice must be big or small, got %q", ErrInvalidBet, bet.Choice)
		}
	case model.ModeParityGuess:
		if !parityChoices[bet.Choice] {
			return fmt.Errorf("%w: unknown parity choice %q", ErrInvalidBet, bet.Choice)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidBet, bet.Mode)
	}
	return nil
}

func validateStarPick(bet model.BetSpec) error {
	if bet.Stars < prize.MinStars || bet.Stars > prize.MaxStars {
		return fmt.Errorf("%w: star count must be %d-%d, got %d",
			ErrInvalidBet, prize.MinStars, prize.MaxStars, bet.Stars)
	}
	if len(bet.Numbers) != bet.Stars {
		return fmt.Errorf("%w: %d-star bet needs exactly %d numbers, got %d",
			ErrInvalidBet, bet.Stars, bet.Stars, len(bet.Numbers))
	}
	seen := make(map[int]bool, len(bet.Numbers))
	for _, n := range bet.Numbers {
		if n < model.MinNumber || n > model.MaxNumber {
			return fmt.Errorf("%w: number %d outside %d-%d", ErrInvalidBet, n, model.MinNumber, model.MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("%w: number %d chosen twice", ErrInvalidBet, n)
		}
		seen[n] = true
	}
	return nil
}

// TotalCost is the price of a bet over its whole span.
func TotalCost(bet model.BetSpec) int64 {
	return model.UnitPrice * int64(bet.Multiplier) * int64(bet.DrawSpan)
}

// Settle runs the bet over DrawSpan consecutive ids from StartDrawID. Ids
// absent from draws are listed in MissingDrawIDs and otherwise skipped; an
// entirely empty range is a valid result with StatusNoDrawsInRange.
func (e *Engine) Settle(bet model.BetSpec, draws model.DrawCollection, bonusActive bool) (*model.SettlementResult, error) {
	if err := Validate(bet); err != nil {
		return nil, err
	}

	ids, err := drawid.Sequence(bet.StartDrawID, bet.DrawSpan)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBet, err)
	}

	table := e.tables.Active(bonusActive)
	multiplier := int64(bet.Multiplier)

	result := &model.SettlementResult{
		Rows:             []model.SettlementRow{},
		TotalCost:        TotalCost(bet),
		RequestedDrawIDs: ids,
		MissingDrawIDs:   []string{},
		BonusActive:      bonusActive,
	}

	for _, id := range ids {
		draw, ok := draws[id]
		if !ok {
			result.MissingDrawIDs = append(result.MissingDrawIDs, id)
			continue
		}

		row := e.settleDraw(bet, draw, table)
		row.Prize = row.BasePrize * multiplier
		result.TotalPrize += row.Prize
		result.Rows = append(result.Rows, row)
	}

	result.Profit = result.TotalPrize - result.TotalCost
	result.ReturnRate = returnRate(result.TotalPrize, result.TotalCost)
	result.Status = model.StatusSettled
	if len(result.Rows) == 0 {
		result.Status = model.StatusNoDrawsInRange
	}
	return result, nil
}

func (e *Engine) settleDraw(bet model.BetSpec, draw model.DrawRecord, table prize.Table) model.SettlementRow {
	row := model.SettlementRow{
		DrawID:         draw.DrawID,
		DrawnAt:        draw.DrawnAt,
		WinningNumbers: append([]int(nil), draw.Numbers...),
	}

	switch bet.Mode {
	case model.ModeStarPick:
		row.MatchedNumbers = Matched(bet.Numbers, draw.Numbers)
		row.MatchCount = len(row.MatchedNumbers)
		row.BasePrize, _ = table.Lookup(bet.Stars, row.MatchCount)
		row.Outcome = fmt.Sprintf("%d of %d matched", row.MatchCount, bet.Stars)

	case model.ModeSizeGuess:
		row.Outcome = ClassifySize(draw.Numbers, e.tables.SizeBands)
		if row.Outcome == bet.Choice {
			row.BasePrize = e.tables.Size[bet.Choice]
		}

	case model.ModeParityGuess:
		row.Outcome = ClassifyParity(draw.Numbers, e.tables.ParityBands)
		if row.Outcome == bet.Choice {
			row.BasePrize = e.tables.Parity[bet.Choice]
		}
	}
	return row
}

// Matched returns the chosen numbers present in the draw, ascending.
func Matched(chosen, winning []int) []int {
	drawn := make(map[int]bool, len(winning))
	for _, n := range winning {
		drawn[n] = true
	}
	var out []int
	for _, n := range chosen {
		if drawn[n] {
			out = append(out, n)
			delete(drawn, n)
		}
	}
	sort.Ints(out)
	return out
}

var hundred = decimal.NewFromInt(100)

func returnRate(totalPrize, totalCost int64) decimal.Decimal {
	if totalCost <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(totalPrize).
		Div(decimal.NewFromInt(totalCost)).
		Mul(hundred).
		Round(2)
}
