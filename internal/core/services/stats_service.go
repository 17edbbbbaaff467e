package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

type StatsService struct {
	habitRepo domain.HabitRepository
	entryRepo domain.HabitEntryRepository
	clock     domain.Clock
}

func NewStatsService(habitRepo domain.HabitRepository, entryRepo domain.HabitEntryRepository, clock domain.Clock) *StatsService {
	return &StatsService{
		habitRepo: habitRepo,
		entryRepo: entryRepo,
		clock:     clock,
	}
}

func (s *StatsService) ownedHabit(ctx context.Context, habitID, userID string) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return habit, nil
}

// GetHabitStatistics reports completion and the calendar over [start, end].
// Streaks always cover the whole history and end today.
func (s *StatsService) GetHabitStatistics(ctx context.Context, habitID, userID string, start, end time.Time) (*domain.HabitStatistics, error) {
	habit, err := s.ownedHabit(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.entryRepo.ListAllByHabitID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	start, end = progress.Day(start), progress.Day(end)
	records := recordsFor("habit_statistics", habitID, history)

	completion := progress.ComputeCompletionStats(records, start, end)
	streaks := progress.ComputeStreaks(records, s.clock.Today())

	return &domain.HabitStatistics{
		HabitID:           habit.ID,
		HabitName:         habit.Title,
		StartDate:         start.Format(dateLayout),
		EndDate:           end.Format(dateLayout),
		TotalDays:         completion.TotalDays,
		CompletedDays:     completion.CompletedDays,
		CompletionRate:    completion.CompletionRate,
		CurrentStreak:     streaks.CurrentStreak,
		BestStreak:        streaks.BestStreak,
		LastCompletedDate: completion.LastCompletedDate,
		DailyProgress:     progress.ProjectCalendar(records, start, end),
	}, nil
}

func (s *StatsService) GetCalendar(ctx context.Context, habitID, userID string, start, end time.Time) ([]progress.CalendarDay, error) {
	if _, err := s.ownedHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}

	start, end = progress.Day(start), progress.Day(end)

	entries, err := s.entryRepo.ListByHabitID(ctx, habitID, start, end)
	if err != nil {
		return nil, err
	}

	return progress.ProjectCalendar(recordsFor("calendar", habitID, entries), start, end), nil
}

// GetWeeklyStats summarizes every habit of the user over the input window.
func (s *StatsService) GetWeeklyStats(ctx context.Context, input domain.StatsInput) (*domain.WeeklyStats, error) {
	startDate := progress.Day(input.StartDate)
	endDate := progress.Day(input.EndDate)

	habits, err := s.habitRepo.ListByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByUserIDAndDateRange(ctx, input.UserID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	byHabit := make(map[string][]*domain.HabitEntry)
	for _, e := range entries {
		byHabit[e.HabitID] = append(byHabit[e.HabitID], e)
	}

	stats := &domain.WeeklyStats{
		StartDate:   startDate.Format(dateLayout),
		EndDate:     endDate.Format(dateLayout),
		TotalHabits: len(habits),
		HabitStats:  make([]domain.HabitStat, 0, len(habits)),
	}

	totalDaysPossible := 0
	totalDaysCompleted := 0

	for _, h := range habits {
		records := recordsFor("weekly_stats", h.ID, byHabit[h.ID])
		completion := progress.ComputeCompletionStats(records, startDate, endDate)
		calendar := progress.ProjectCalendar(records, startDate, endDate)

		hStat := domain.HabitStat{
			HabitID:        h.ID,
			HabitTitle:     h.Title,
			Color:          h.Color,
			Icon:           h.Icon,
			CompletionRate: completion.CompletionRate,
			DaysCompleted:  completion.CompletedDays,
			DailyProgress:  make([]int, 0, len(calendar)),
		}
		for _, day := range calendar {
			hStat.TotalValue += day.Value
			hStat.DailyProgress = append(hStat.DailyProgress, day.Value)
		}

		totalDaysPossible += completion.TotalDays
		totalDaysCompleted += completion.CompletedDays

		stats.HabitStats = append(stats.HabitStats, hStat)
	}

	stats.OverallRate = progress.Rate(totalDaysCompleted, totalDaysPossible)

	return stats, nil
}
