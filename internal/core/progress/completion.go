package progress

import (
	"math"
	"time"
)

type CompletionStats struct {
	TotalDays         int        `json:"total_days"`
	CompletedDays     int        `json:"completed_days"`
	CompletionRate    float64    `json:"completion_rate"`
	LastCompletedDate *time.Time `json:"last_completed_date,omitempty"`
}

// ComputeCompletionStats reports completion over the inclusive window
// [start, end]. Records outside the window are ignored. A window with
// end before start has zero days and a zero rate.
func ComputeCompletionStats(records []Record, start, end time.Time) CompletionStats {
	start, end = Day(start), Day(end)

	total := DaysBetween(start, end) + 1
	if total <= 0 {
		return CompletionStats{}
	}

	stats := CompletionStats{TotalDays: total}
	for _, r := range newSeries(records).within(start, end) {
		if !IsCompleted(r) {
			continue
		}
		stats.CompletedDays++
		last := r.Date
		stats.LastCompletedDate = &last
	}
	stats.CompletionRate = Rate(stats.CompletedDays, total)

	return stats
}

// Rate returns part/whole as a percentage rounded to two decimals, or 0 when
// whole is not positive.
func Rate(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
