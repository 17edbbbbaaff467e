package progress

import "time"

type CalendarDay struct {
	Date        time.Time `json:"date"`
	HasProgress bool      `json:"has_progress"`
	Value       int       `json:"value"`
	Completed   bool      `json:"completed"`
	Notes       *string   `json:"notes"`
	Mood        *string   `json:"mood,omitempty"`
}

// ProjectCalendar returns one entry per day in [start, end], ascending and
// without gaps. Days with no record have HasProgress false and a zero value.
func ProjectCalendar(records []Record, start, end time.Time) []CalendarDay {
	start, end = Day(start), Day(end)

	n := DaysBetween(start, end) + 1
	if n <= 0 {
		return []CalendarDay{}
	}

	s := newSeries(records)
	days := make([]CalendarDay, 0, n)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		cd := CalendarDay{Date: day}
		if r, ok := s.at(day); ok {
			cd.HasProgress = true
			cd.Value = r.Value
			cd.Completed = IsCompleted(r)
			cd.Notes = r.Notes
			cd.Mood = r.Mood
		}
		days = append(days, cd)
	}

	return days
}
