// Package progress aggregates dated habit progress records into streaks,
// completion rates, calendar views and achievement progress.
//
// Every function in this package is pure: no I/O, no wall-clock reads and no
// shared state. Dates are normalized with Day before any comparison, so
// callers may pass timestamps with a time-of-day component.
package progress

import (
	"sort"
	"time"
)

// CompletionThreshold is the value at or above which a day counts as completed.
const CompletionThreshold = 100

const (
	minValue = 0
	maxValue = 100
)

// Record is a single day of progress for one habit.
type Record struct {
	Date      time.Time
	Value     int
	Notes     *string
	Mood      *string
	UpdatedAt time.Time
}

// Anomalies counts input that violated the record contract and was repaired.
type Anomalies struct {
	Clamped    int
	Duplicates int
}

func (a Anomalies) Any() bool {
	return a.Clamped > 0 || a.Duplicates > 0
}

// Day reduces t to its calendar date, expressed as UTC midnight.
// The calendar date is read in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of calendar days from a to b.
// The result is negative when b is before a. Both days are UTC midnights,
// so the Unix difference is an exact multiple of a day at any distance.
func DaysBetween(a, b time.Time) int {
	return int((Day(b).Unix() - Day(a).Unix()) / secondsPerDay)
}

// IsCompleted reports whether the record meets the completion threshold.
func IsCompleted(r Record) bool {
	return clamp(r.Value) >= CompletionThreshold
}

func clamp(v int) int {
	if v < minValue {
		return minValue
	}
	if v > maxValue {
		return maxValue
	}
	return v
}

// Sanitize returns the records normalized to one per day, sorted ascending.
//
// Dates are truncated with Day and values clamped to [0,100]. When several
// records share a day the one with the latest UpdatedAt wins; on a tie the
// one appearing last in the input wins.
func Sanitize(records []Record) ([]Record, Anomalies) {
	var an Anomalies
	byDay := make(map[time.Time]Record, len(records))

	for _, r := range records {
		r.Date = Day(r.Date)
		if v := clamp(r.Value); v != r.Value {
			r.Value = v
			an.Clamped++
		}

		if prev, ok := byDay[r.Date]; ok {
			an.Duplicates++
			if r.UpdatedAt.Before(prev.UpdatedAt) {
				continue
			}
		}
		byDay[r.Date] = r
	}

	out := make([]Record, 0, len(byDay))
	for _, r := range byDay {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out, an
}

// series is a sanitized record set with a date index.
type series struct {
	days  []Record
	index map[time.Time]int
}

func newSeries(records []Record) series {
	days, _ := Sanitize(records)
	index := make(map[time.Time]int, len(days))
	for i, r := range days {
		index[r.Date] = i
	}
	return series{days: days, index: index}
}

func (s series) at(day time.Time) (Record, bool) {
	i, ok := s.index[day]
	if !ok {
		return Record{}, false
	}
	return s.days[i], true
}

// within returns the records in [from, to]. Both bounds must already be days.
func (s series) within(from, to time.Time) []Record {
	lo := sort.Search(len(s.days), func(i int) bool {
		return !s.days[i].Date.Before(from)
	})
	hi := sort.Search(len(s.days), func(i int) bool {
		return s.days[i].Date.After(to)
	})
	if lo >= hi {
		return nil
	}
	return s.days[lo:hi]
}
