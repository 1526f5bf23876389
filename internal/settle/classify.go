package settle

import (
	"github.com/atmx/bingo-engine/internal/model"
	"github.com/atmx/bingo-engine/internal/prize"
)

// ClassifySize returns big, small or none for a draw.
func ClassifySize(numbers []int, bands prize.SizeBands) string {
	big := 0
	for _, n := range numbers {
		if n >= bands.BigNumberMin {
			big++
		}
	}
	switch {
	case big >= bands.BigMin:
		return model.ChoiceBig
	case big <= bands.SmallMax:
		return model.ChoiceSmall
	default:
		return model.OutcomeNone
	}
}

// ClassifyParity returns the parity category for a draw from its odd count.
func ClassifyParity(numbers []int, bands prize.ParityBands) string {
	odd := 0
	for _, n := range numbers {
		if n%2 != 0 {
			odd++
		}
	}
	switch {
	case odd >= bands.OddMin:
		return model.ChoiceOdd
	case odd <= bands.EvenMax:
		return model.ChoiceEven
	case odd == bands.Tie:
		return model.ChoiceTie
	case odd > bands.Tie:
		return model.ChoiceSmallOdd
	default:
		return model.ChoiceSmallEven
	}
}
