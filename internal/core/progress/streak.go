package progress

import "time"

type StreakResult struct {
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`
}

// ComputeStreaks derives the current and best streak from records.
//
// The current streak counts completed days walking backward from today and
// stops at the first day that is missing or incomplete, so an unlogged today
// yields 0. The best streak is the longest run of consecutive completed days
// anywhere in records; pass the full history for it to be meaningful.
func ComputeStreaks(records []Record, today time.Time) StreakResult {
	s := newSeries(records)
	return StreakResult{
		CurrentStreak: s.currentStreak(Day(today)),
		BestStreak:    s.bestStreak(),
	}
}

func (s series) currentStreak(today time.Time) int {
	streak := 0
	for day := today; ; day = day.AddDate(0, 0, -1) {
		r, ok := s.at(day)
		if !ok || !IsCompleted(r) {
			return streak
		}
		streak++
	}
}

func (s series) bestStreak() int {
	best, run := 0, 0
	var prev time.Time

	for _, r := range s.days {
		if !IsCompleted(r) {
			continue
		}

		if run > 0 && DaysBetween(prev, r.Date) == 1 {
			run++
		} else {
			run = 1
		}
		prev = r.Date

		if run > best {
			best = run
		}
	}

	return best
}
