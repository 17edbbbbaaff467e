package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
)

func TestPostgresAchievementRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresAchievementRepository(db)
	ctx := context.Background()
	now := dbNow(t, db)

	userID := uuid.NewString()
	habit := &domain.Habit{ID: uuid.NewString(), UserID: userID, Title: "Journal"}
	insertUser(t, db, userID, "achievements@test.com", now)
	insertHabit(t, db, habit.ID, userID, habit.Title, now)

	t.Run("Award is idempotent per habit and type", func(t *testing.T) {
		first, err := domain.NewAchievement(userID, habit, "week_warrior", now.Add(-time.Hour))
		require.NoError(t, err)

		isNew, err := repo.Award(ctx, first)
		require.NoError(t, err)
		assert.True(t, isNew)

		again, err := domain.NewAchievement(userID, habit, "week_warrior", now)
		require.NoError(t, err)

		isNew, err = repo.Award(ctx, again)
		require.NoError(t, err)
		assert.False(t, isNew, "second award of the same type must be a no-op")
	})

	t.Run("Lists newest first", func(t *testing.T) {
		later, err := domain.NewAchievement(userID, habit, "perfect_ten", now)
		require.NoError(t, err)
		_, err = repo.Award(ctx, later)
		require.NoError(t, err)

		byUser, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, byUser, 2)
		assert.Equal(t, "perfect_ten", byUser[0].Type)
		assert.Equal(t, "Journal", byUser[1].HabitName)

		byHabit, err := repo.ListByHabitID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Len(t, byHabit, 2)
	})
}
