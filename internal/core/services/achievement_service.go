package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/metrics"
)

type AchievementService struct {
	habitRepo domain.HabitRepository
	entryRepo domain.HabitEntryRepository
	repo      domain.AchievementRepository
	clock     domain.Clock
}

func NewAchievementService(habitRepo domain.HabitRepository, entryRepo domain.HabitEntryRepository, repo domain.AchievementRepository, clock domain.Clock) *AchievementService {
	return &AchievementService{
		habitRepo: habitRepo,
		entryRepo: entryRepo,
		repo:      repo,
		clock:     clock,
	}
}

// lookback fetches only the days achievement metrics look at.
func (s *AchievementService) lookback(ctx context.Context, habitID string) ([]progress.Record, error) {
	today := s.clock.Today()

	entries, err := s.entryRepo.ListByHabitID(ctx, habitID, progress.LookbackStart(today), today)
	if err != nil {
		return nil, err
	}

	return recordsFor("achievements", habitID, entries), nil
}

func (s *AchievementService) ownedHabit(ctx context.Context, habitID, userID string) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return habit, nil
}

func (s *AchievementService) habitProgress(ctx context.Context, habit *domain.Habit) ([]progress.AchievementProgress, error) {
	records, err := s.lookback(ctx, habit.ID)
	if err != nil {
		return nil, err
	}
	return progress.EvaluateAchievementProgress(habit.ID, habit.Title, records, s.clock.Today()), nil
}

// GetHabitProgress returns the streak, completion and milestone progress of one habit.
func (s *AchievementService) GetHabitProgress(ctx context.Context, habitID, userID string) ([]progress.AchievementProgress, error) {
	habit, err := s.ownedHabit(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}
	return s.habitProgress(ctx, habit)
}

func (s *AchievementService) GetUserProgress(ctx context.Context, userID string) (*domain.UserAchievementProgress, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &domain.UserAchievementProgress{
		Progress:           make([]progress.AchievementProgress, 0, len(habits)*len(progress.Tracked)),
		AchievementsByType: make(map[string]int),
		RecentAchievements: make([]*domain.Achievement, 0),
	}

	for _, h := range habits {
		items, err := s.habitProgress(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("progress of habit %s: %w", h.ID, err)
		}
		summary.Progress = append(summary.Progress, items...)
	}

	for _, p := range summary.Progress {
		if p.IsCompleted {
			summary.CompletedAchievements++
		}
	}
	summary.TotalAchievements = len(summary.Progress)
	summary.OverallCompletion = progress.Rate(summary.CompletedAchievements, summary.TotalAchievements)

	awarded, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	recentSince := s.clock.Now().AddDate(0, 0, -progress.LookbackDays)
	for _, a := range awarded {
		summary.AchievementsByType[a.Type]++
		if !a.AwardedAt.Before(recentSince) {
			summary.RecentAchievements = append(summary.RecentAchievements, a)
		}
	}

	return summary, nil
}

func (s *AchievementService) ListAwarded(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *AchievementService) ListAwardedForHabit(ctx context.Context, habitID, userID string) ([]*domain.Achievement, error) {
	if _, err := s.ownedHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByHabitID(ctx, habitID)
}

// CheckAndAward grants every tracked achievement and badge the habit has
// reached and returns the ones that were not held before.
func (s *AchievementService) CheckAndAward(ctx context.Context, habitID string) ([]*domain.Achievement, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	records, err := s.lookback(ctx, habitID)
	if err != nil {
		return nil, err
	}

	m := progress.Measure(records, s.clock.Today())
	now := s.clock.Now()

	var awarded []*domain.Achievement
	for _, defs := range [][]progress.Definition{progress.Tracked, progress.Badges} {
		for _, def := range defs {
			if !def.Satisfied(m) {
				continue
			}

			a, err := domain.NewAchievement(habit.UserID, habit, def.Type, now)
			if err != nil {
				return awarded, err
			}

			isNew, err := s.repo.Award(ctx, a)
			if err != nil {
				return awarded, fmt.Errorf("award %s: %w", def.Type, err)
			}
			if !isNew {
				continue
			}

			metrics.AchievementsAwarded.WithLabelValues(def.Type).Inc()
			log.WithFields(log.Fields{
				"habit_id": habit.ID,
				"user_id":  habit.UserID,
				"type":     def.Type,
			}).Info("achievement awarded")

			awarded = append(awarded, a)
		}
	}

	return awarded, nil
}
