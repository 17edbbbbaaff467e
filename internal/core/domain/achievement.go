package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

var (
	ErrUnknownAchievement = errors.New("unknown achievement type")
)

// Achievement is an award that has been granted to a user for one habit.
// A user holds each achievement type at most once per habit.
type Achievement struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	HabitID     string        `json:"habit_id" db:"habit_id"`
	HabitName   string        `json:"habit_name" db:"habit_name"`
	Type        string        `json:"type" db:"type"`
	Kind        progress.Kind `json:"kind" db:"kind"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	AwardedAt   time.Time     `json:"awarded_at" db:"awarded_at"`
}

// NewAchievement builds an award row for a known achievement type.
func NewAchievement(userID string, habit *Habit, achievementType string, at time.Time) (*Achievement, error) {
	def, ok := progress.Lookup(achievementType)
	if !ok {
		return nil, ErrUnknownAchievement
	}

	return &Achievement{
		ID:          uuid.NewString(),
		UserID:      userID,
		HabitID:     habit.ID,
		HabitName:   habit.Title,
		Type:        def.Type,
		Kind:        def.Kind,
		Name:        def.Name,
		Description: def.Description,
		AwardedAt:   at.UTC(),
	}, nil
}

type AchievementRepository interface {
	// Award inserts the achievement unless the user already holds that type for the habit.
	// It reports whether a new row was written; an existing row is left untouched.
	Award(ctx context.Context, a *Achievement) (bool, error)

	// ListByUserID returns every award of a user, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*Achievement, error)

	// ListByHabitID returns the awards of a single habit, newest first.
	ListByHabitID(ctx context.Context, habitID string) ([]*Achievement, error)
}
