package progress

import "time"

type Kind string

const (
	KindStreak     Kind = "streak"
	KindCompletion Kind = "completion"
	KindMilestone  Kind = "milestone"
)

// LookbackDays is how far back from today achievement metrics reach.
// The window [today-LookbackDays, today] is inclusive on both ends.
const LookbackDays = 30

// Definition describes an achievement measured against one metric.
type Definition struct {
	Type        string
	Name        string
	Description string
	Kind        Kind
	Threshold   int
}

var (
	DailyStreak = Definition{
		Type:        "daily_streak",
		Name:        "Daily Streak",
		Description: "Complete the habit every day",
		Kind:        KindStreak,
		Threshold:   30,
	}
	CompletionMaster = Definition{
		Type:        "completion_master",
		Name:        "Completion Master",
		Description: "Complete the habit fully for a number of days",
		Kind:        KindCompletion,
		Threshold:   20,
	}
	ProgressMilestone = Definition{
		Type:        "progress_milestone",
		Name:        "Progress Milestone",
		Description: "Accumulate total progress points",
		Kind:        KindMilestone,
		Threshold:   1000,
	}
)

// Tracked are reported as progress indicators, in this order.
var Tracked = []Definition{DailyStreak, CompletionMaster, ProgressMilestone}

// Badges are only ever awarded, never reported as progress.
var Badges = []Definition{
	{Type: "week_warrior", Name: "Week Warrior", Description: "Keep a 7 day streak", Kind: KindStreak, Threshold: 7},
	{Type: "month_master", Name: "Month Master", Description: "Keep a 30 day streak", Kind: KindStreak, Threshold: 30},
	{Type: "perfect_ten", Name: "Perfect Ten", Description: "Fully complete 10 days", Kind: KindCompletion, Threshold: 10},
	{Type: "progress_pro", Name: "Progress Pro", Description: "Reach 1000 progress points", Kind: KindMilestone, Threshold: 1000},
}

// Lookup finds a tracked or badge definition by type.
func Lookup(achievementType string) (Definition, bool) {
	for _, d := range Tracked {
		if d.Type == achievementType {
			return d, true
		}
	}
	for _, d := range Badges {
		if d.Type == achievementType {
			return d, true
		}
	}
	return Definition{}, false
}

// Metrics are the lookback-window figures achievements are measured against.
type Metrics struct {
	CurrentStreak int `json:"current_streak"`
	CompletedDays int `json:"completed_days"`
	TotalValue    int `json:"total_value"`
}

func (d Definition) measure(m Metrics) int {
	switch d.Kind {
	case KindStreak:
		return m.CurrentStreak
	case KindCompletion:
		return m.CompletedDays
	case KindMilestone:
		return m.TotalValue
	}
	return 0
}

// Satisfied reports whether m meets the definition's threshold.
func (d Definition) Satisfied(m Metrics) bool {
	return d.measure(m) >= d.Threshold
}

type AchievementProgress struct {
	HabitID          string    `json:"habit_id"`
	HabitName        string    `json:"habit_name"`
	Type             string    `json:"type"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Kind             Kind      `json:"kind"`
	CurrentProgress  int       `json:"current_progress"`
	RequiredProgress int       `json:"required_progress"`
	IsCompleted      bool      `json:"is_completed"`
	AsOf             time.Time `json:"as_of"`
}

// LookbackStart returns the first day of the lookback window ending today.
func LookbackStart(today time.Time) time.Time {
	return Day(today).AddDate(0, 0, -LookbackDays)
}

// Measure computes the lookback-window metrics. Records outside the window
// are ignored. The streak and completion figures come from ComputeStreaks
// and ComputeCompletionStats over the same windowed records.
func Measure(records []Record, today time.Time) Metrics {
	today = Day(today)
	from := LookbackStart(today)
	window := newSeries(records).within(from, today)

	m := Metrics{
		CurrentStreak: ComputeStreaks(window, today).CurrentStreak,
		CompletedDays: ComputeCompletionStats(window, from, today).CompletedDays,
	}
	for _, r := range window {
		m.TotalValue += r.Value
	}
	return m
}

// Evaluate projects metrics onto each definition.
func Evaluate(defs []Definition, habitID, habitName string, m Metrics, today time.Time) []AchievementProgress {
	out := make([]AchievementProgress, 0, len(defs))
	for _, d := range defs {
		current := d.measure(m)
		out = append(out, AchievementProgress{
			HabitID:          habitID,
			HabitName:        habitName,
			Type:             d.Type,
			Name:             d.Name,
			Description:      d.Description,
			Kind:             d.Kind,
			CurrentProgress:  current,
			RequiredProgress: d.Threshold,
			IsCompleted:      current >= d.Threshold,
			AsOf:             Day(today),
		})
	}
	return out
}

// EvaluateAchievementProgress returns the streak, completion and milestone
// progress of a habit, in that order, over the lookback window ending today.
func EvaluateAchievementProgress(habitID, habitName string, records []Record, today time.Time) []AchievementProgress {
	return Evaluate(Tracked, habitID, habitName, Measure(records, today), today)
}
