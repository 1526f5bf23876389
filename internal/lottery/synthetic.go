package lottery

import (
	"time"

	"github.com/atmx/bingo-engine/internal/model"
)

// SyntheticSource names the stand-in source used when fallback is enabled.
const SyntheticSource = "synthetic"

// sampleDraws are fixed demonstration draws. They are not real results.
var sampleDraws = []model.DrawRecord{
	{DrawID: "113000123", DrawnAt: model.DrawnPlaceholder, Numbers: []int{3, 8, 12, 15, 22, 27, 31, 38, 42, 45, 50, 55, 61, 65, 68, 70, 72, 75, 78, 80}},
	{DrawID: "113000124", DrawnAt: model.DrawnPlaceholder, Numbers: []int{1, 5, 9, 14, 18, 25, 30, 33, 40, 44, 48, 52, 58, 60, 66, 69, 73, 76, 77, 79}},
	{DrawID: "113000125", DrawnAt: model.DrawnPlaceholder, Numbers: []int{2, 4, 10, 15, 20, 26, 31, 35, 41, 46, 51, 56, 59, 62, 67, 71, 74, 75, 78, 80}},
}

// syntheticResult keeps the failed sweep's diagnostic and attempts and
// swaps in the sample draws, flagged so no caller mistakes them for data.
func syntheticResult(failed model.FetchResult, now time.Time) model.FetchResult {
	records := make([]model.DrawRecord, len(sampleDraws))
	for i, r := range sampleDraws {
		r.Numbers = append([]int(nil), r.Numbers...)
		records[i] = r
	}
	return model.FetchResult{
		Records:    records,
		Success:    true,
		Source:     SyntheticSource,
		Diagnostic: failed.Diagnostic,
		Attempts:   failed.Attempts,
		FetchedAt:  now.UTC(),
		Synthetic:  true,
	}
}
