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

func TestPostgresEntryRepository_Integration(t *testing.T) {
	db := setupTestDBWithDriver(t, "postgres")
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresEntryRepository(db)
	ctx := context.Background()
	uid := uuid.NewString()
	hid := uuid.NewString()

	now := time.Now().UTC().Truncate(time.Second)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	insertUser(t, db, uid, "entries@test.com", now)
	insertHabit(t, db, hid, uid, "Habit Test", now)

	t.Run("Full CRUD Lifecycle & Soft Delete", func(t *testing.T) {
		entry := domain.NewHabitEntry(hid, uid, today, 100)
		entry.SetDetails("Original Note", "calm")

		require.NoError(t, repo.Create(ctx, entry))

		fetched, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, fetched.Value)
		assert.Equal(t, "Original Note", *fetched.Notes)
		assert.Equal(t, "calm", *fetched.Mood)
		assert.Equal(t, 1, fetched.Version)

		byDate, err := repo.GetByDate(ctx, hid, today)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, byDate.ID)

		fetched.Value = 60
		fetched.SetDetails("Updated Note", "")
		require.NoError(t, repo.Update(ctx, fetched))
		assert.Equal(t, 2, fetched.Version)

		updated, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, 60, updated.Value)
		assert.Nil(t, updated.Mood)

		require.NoError(t, repo.Delete(ctx, entry.ID, uid))

		_, err = repo.GetByID(ctx, entry.ID)
		assert.ErrorIs(t, err, domain.ErrEntryNotFound)

		var exists bool
		require.NoError(t, db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM habit_entries WHERE id=$1 AND deleted_at IS NOT NULL)", entry.ID))
		assert.True(t, exists, "row must remain with deleted_at for sync")
	})

	t.Run("One entry per day", func(t *testing.T) {
		day := today.AddDate(0, 0, -20)
		require.NoError(t, repo.Create(ctx, domain.NewHabitEntry(hid, uid, day, 30)))

		err := repo.Create(ctx, domain.NewHabitEntry(hid, uid, day, 70))
		assert.ErrorIs(t, err, domain.ErrEntryAlreadyExists)
	})

	t.Run("Optimistic Locking: Version Conflict", func(t *testing.T) {
		e := domain.NewHabitEntry(hid, uid, today.AddDate(0, 0, -30), 10)
		require.NoError(t, repo.Create(ctx, e))

		clientA, err := repo.GetByID(ctx, e.ID)
		require.NoError(t, err)
		clientB, err := repo.GetByID(ctx, e.ID)
		require.NoError(t, err)

		clientA.Value = 20
		require.NoError(t, repo.Update(ctx, clientA))

		clientB.Value = 30
		err = repo.Update(ctx, clientB)

		assert.ErrorIs(t, err, domain.ErrEntryConflict)
		assert.Equal(t, 1, clientB.Version, "a rejected update must not bump the local version")
	})

	t.Run("List Methods: Worker vs API", func(t *testing.T) {
		localHid := uuid.NewString()
		insertHabit(t, db, localHid, uid, "Isolated Habit", now)

		for _, offset := range []int{-5, -2, 0} {
			require.NoError(t, repo.Create(ctx, domain.NewHabitEntry(localHid, uid, today.AddDate(0, 0, offset), 100)))
		}

		apiList, err := repo.ListByHabitID(ctx, localHid, today.AddDate(0, 0, -3), today)
		require.NoError(t, err)
		require.Len(t, apiList, 2, "range is inclusive")
		assert.True(t, apiList[0].Date.Before(apiList[1].Date), "entries are ordered by date")

		workerList, err := repo.ListAllByHabitID(ctx, localHid)
		require.NoError(t, err)
		assert.Len(t, workerList, 3, "worker reads the complete history")
	})

	t.Run("Sync Engine: GetChanges Delta", func(t *testing.T) {
		checkpoint := time.Now().UTC()
		time.Sleep(10 * time.Millisecond)

		e := domain.NewHabitEntry(hid, uid, today.AddDate(0, 0, -40), 88)
		e.UpdatedAt = time.Now().UTC()
		require.NoError(t, repo.Create(ctx, e))

		changes, err := repo.GetChanges(ctx, uid, checkpoint)
		require.NoError(t, err)

		ids := make([]string, 0, len(changes))
		for _, c := range changes {
			ids = append(ids, c.ID)
		}
		assert.Contains(t, ids, e.ID)
	})
}

func TestPostgresEntryRepository_ListByUserIDAndDateRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresEntryRepository(db)
	ctx := context.Background()

	userID := uuid.NewString()
	habitID := uuid.NewString()
	now := time.Now().UTC()

	insertUser(t, db, userID, "stats-user@test.com", now)
	insertHabit(t, db, habitID, userID, "Stats", now)

	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i, offset := range []int{0, 1, 5} {
		e := domain.NewHabitEntry(habitID, userID, base.AddDate(0, 0, offset), 10*(i+1))
		require.NoError(t, repo.Create(ctx, e))
	}

	results, err := repo.ListByUserIDAndDateRange(ctx, userID, base, base.AddDate(0, 0, 2))

	require.NoError(t, err)
	assert.Len(t, results, 2, "only entries within range")
}
