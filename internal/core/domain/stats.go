package domain

import (
	"time"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

type WeeklyStats struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TotalHabits int         `json:"total_habits"`
	OverallRate float64     `json:"overall_completion_rate"`
	HabitStats  []HabitStat `json:"habits"`
}

type HabitStat struct {
	HabitID        string  `json:"habit_id"`
	HabitTitle     string  `json:"habit_title"`
	Color          string  `json:"color"`
	Icon           string  `json:"icon"`
	TotalValue     int     `json:"total_value"`
	CompletionRate float64 `json:"completion_rate"`
	DaysCompleted  int     `json:"days_completed"`
	DailyProgress  []int   `json:"daily_progress"`
}

type StatsInput struct {
	UserID    string
	StartDate time.Time
	EndDate   time.Time
}

// HabitStatistics is the full progress report of one habit over a window.
// Streaks are computed over the whole history, everything else over the window.
type HabitStatistics struct {
	HabitID           string                 `json:"habit_id"`
	HabitName         string                 `json:"habit_name"`
	StartDate         string                 `json:"start_date"`
	EndDate           string                 `json:"end_date"`
	TotalDays         int                    `json:"total_days"`
	CompletedDays     int                    `json:"completed_days"`
	CompletionRate    float64                `json:"completion_rate"`
	CurrentStreak     int                    `json:"current_streak"`
	BestStreak        int                    `json:"best_streak"`
	LastCompletedDate *time.Time             `json:"last_completed_date,omitempty"`
	DailyProgress     []progress.CalendarDay `json:"daily_progress"`
}

type UserAchievementProgress struct {
	TotalAchievements     int                            `json:"total_achievements"`
	CompletedAchievements int                            `json:"completed_achievements"`
	OverallCompletion     float64                        `json:"overall_completion"`
	Progress              []progress.AchievementProgress `json:"progress"`
	AchievementsByType    map[string]int                 `json:"achievements_by_type"`
	RecentAchievements    []*Achievement                 `json:"recent_achievements"`
}
