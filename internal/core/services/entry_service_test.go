package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/services"
)

type entryFixture struct {
	svc       *services.EntryService
	entryRepo *MockHabitEntryRepo
	habitRepo *MockHabitRepo
	worker    *spyRecalculator
}

func newEntryFixture() entryFixture {
	f := entryFixture{
		entryRepo: new(MockHabitEntryRepo),
		habitRepo: new(MockHabitRepo),
		worker:    &spyRecalculator{},
	}
	f.svc = services.NewEntryService(f.entryRepo, f.habitRepo, f.worker)
	return f
}

func TestEntryService_Create(t *testing.T) {
	ctx := context.Background()
	habit := &domain.Habit{ID: "h1", UserID: "u1"}

	t.Run("Success: Validates ownership, creates entry and enqueues the worker", func(t *testing.T) {
		f := newEntryFixture()
		f.habitRepo.On("GetByID", ctx, "h1").Return(habit, nil)
		f.entryRepo.On("Create", ctx, mock.AnythingOfType("*domain.HabitEntry")).Return(nil)

		entry, err := f.svc.Create(ctx, services.CreateEntryInput{
			HabitID: "h1", UserID: "u1",
			Date:  time.Date(2024, 3, 10, 18, 45, 0, 0, time.UTC),
			Value: 100, Notes: "after isha",
		})

		require.NoError(t, err)
		assert.Equal(t, day("2024-03-10"), entry.Date, "date must be truncated to the day")
		require.NotNil(t, entry.Notes)
		assert.Equal(t, "after isha", *entry.Notes)
		assert.Equal(t, []string{"h1"}, f.worker.Jobs())
	})

	t.Run("Fail: Value out of range never reaches the DB", func(t *testing.T) {
		f := newEntryFixture()

		_, err := f.svc.Create(ctx, services.CreateEntryInput{HabitID: "h1", UserID: "u1", Date: day("2024-03-10"), Value: 101})

		assert.ErrorIs(t, err, domain.ErrEntryValueRange)
		f.habitRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		assert.Empty(t, f.worker.Jobs())
	})

	t.Run("Security: Fails if habit belongs to another user", func(t *testing.T) {
		f := newEntryFixture()
		f.habitRepo.On("GetByID", ctx, "h1").Return(habit, nil)

		_, err := f.svc.Create(ctx, services.CreateEntryInput{HabitID: "h1", UserID: "u2", Date: day("2024-03-10"), Value: 50})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		f.entryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Fail: Duplicate day is reported", func(t *testing.T) {
		f := newEntryFixture()
		f.habitRepo.On("GetByID", ctx, "h1").Return(habit, nil)
		f.entryRepo.On("Create", ctx, mock.Anything).Return(domain.ErrEntryAlreadyExists)

		_, err := f.svc.Create(ctx, services.CreateEntryInput{HabitID: "h1", UserID: "u1", Date: day("2024-03-10"), Value: 50})

		assert.ErrorIs(t, err, domain.ErrEntryAlreadyExists)
		assert.Empty(t, f.worker.Jobs())
	})
}

func TestEntryService_RecordProgress(t *testing.T) {
	ctx := context.Background()
	habit := &domain.Habit{ID: "h1", UserID: "u1"}
	target := day("2024-03-10")

	t.Run("Creates the day when missing", func(t *testing.T) {
		f := newEntryFixture()
		f.entryRepo.On("GetByDate", ctx, "h1", target).Return(nil, domain.ErrEntryNotFound)
		f.habitRepo.On("GetByID", ctx, "h1").Return(habit, nil)
		f.entryRepo.On("Create", ctx, mock.Anything).Return(nil)

		entry, created, err := f.svc.RecordProgress(ctx, services.CreateEntryInput{HabitID: "h1", UserID: "u1", Date: target.Add(9 * time.Hour), Value: 40})

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 40, entry.Value)
	})

	t.Run("Updates the existing day", func(t *testing.T) {
		f := newEntryFixture()
		existing := domain.NewHabitEntry("h1", "u1", target, 40)
		f.entryRepo.On("GetByDate", ctx, "h1", target).Return(existing, nil)
		f.entryRepo.On("Update", ctx, existing).Return(nil)

		entry, created, err := f.svc.RecordProgress(ctx, services.CreateEntryInput{HabitID: "h1", UserID: "u1", Date: target, Value: 100, Mood: "grateful"})

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 100, entry.Value)
		assert.Equal(t, "grateful", *entry.Mood)
		assert.Equal(t, []string{"h1"}, f.worker.Jobs())
	})

	t.Run("Falls back to update when a concurrent create wins", func(t *testing.T) {
		f := newEntryFixture()
		existing := domain.NewHabitEntry("h1", "u1", target, 10)
		f.entryRepo.On("GetByDate", ctx, "h1", target).Return(nil, domain.ErrEntryNotFound).Once()
		f.entryRepo.On("GetByDate", ctx, "h1", target).Return(existing, nil).Once()
		f.habitRepo.On("GetByID", ctx, "h1").Return(habit, nil)
		f.entryRepo.On("Create", ctx, mock.Anything).Return(domain.ErrEntryAlreadyExists)
		f.entryRepo.On("Update", ctx, existing).Return(nil)

		entry, created, err := f.svc.RecordProgress(ctx, services.CreateEntryInput{HabitID: "h1", UserID: "u1", Date: target, Value: 70})

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 70, entry.Value)
		f.entryRepo.AssertExpectations(t)
	})

	t.Run("Security: Cannot overwrite another user's day", func(t *testing.T) {
		f := newEntryFixture()
		f.entryRepo.On("GetByDate", ctx, "h1", target).Return(domain.NewHabitEntry("h1", "u1", target, 40), nil)

		_, _, err := f.svc.RecordProgress(ctx, services.CreateEntryInput{HabitID: "h1", UserID: "u2", Date: target, Value: 100})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestEntryService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Should update valid entry", func(t *testing.T) {
		f := newEntryFixture()
		existing := domain.NewHabitEntry("h1", "u1", day("2024-03-10"), 30)
		f.entryRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		f.entryRepo.On("Update", ctx, existing).Return(nil)

		updated, err := f.svc.Update(ctx, services.UpdateEntryInput{ID: existing.ID, UserID: "u1", Value: 90, Notes: "n", Version: 1})

		require.NoError(t, err)
		assert.Equal(t, 90, updated.Value)
		assert.Equal(t, []string{"h1"}, f.worker.Jobs())
	})

	t.Run("Concurrency: Should fail if version conflict", func(t *testing.T) {
		f := newEntryFixture()
		existing := domain.NewHabitEntry("h1", "u1", day("2024-03-10"), 30)
		existing.Version = 4
		f.entryRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)

		_, err := f.svc.Update(ctx, services.UpdateEntryInput{ID: existing.ID, UserID: "u1", Value: 90, Version: 3})

		assert.ErrorIs(t, err, domain.ErrEntryConflict)
		f.entryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Security: Should fail if updating entry of another user", func(t *testing.T) {
		f := newEntryFixture()
		existing := domain.NewHabitEntry("h1", "u1", day("2024-03-10"), 30)
		f.entryRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)

		_, err := f.svc.Update(ctx, services.UpdateEntryInput{ID: existing.ID, UserID: "u2", Value: 90})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestEntryService_DeleteAndRead(t *testing.T) {
	ctx := context.Background()
	existing := domain.NewHabitEntry("h1", "u1", day("2024-03-10"), 30)

	t.Run("Success: Deletes owned entry and enqueues", func(t *testing.T) {
		f := newEntryFixture()
		f.entryRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		f.entryRepo.On("Delete", ctx, existing.ID, "u1").Return(nil)

		require.NoError(t, f.svc.Delete(ctx, existing.ID, "u1"))
		assert.Equal(t, []string{"h1"}, f.worker.Jobs())
	})

	t.Run("Fail: NotFound is propagated", func(t *testing.T) {
		f := newEntryFixture()
		f.entryRepo.On("GetByID", ctx, "ghost").Return(nil, domain.ErrEntryNotFound)

		assert.ErrorIs(t, f.svc.Delete(ctx, "ghost", "u1"), domain.ErrEntryNotFound)
	})

	t.Run("ListByHabitID normalizes the range", func(t *testing.T) {
		f := newEntryFixture()
		f.habitRepo.On("GetByID", ctx, "h1").Return(&domain.Habit{ID: "h1", UserID: "u1"}, nil)
		f.entryRepo.On("ListByHabitID", ctx, "h1", day("2024-03-01"), day("2024-03-31")).Return([]*domain.HabitEntry{existing}, nil)

		list, err := f.svc.ListByHabitID(ctx, "h1", "u1",
			time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Security: Listing another user's habit is refused", func(t *testing.T) {
		f := newEntryFixture()
		f.habitRepo.On("GetByID", ctx, "h1").Return(&domain.Habit{ID: "h1", UserID: "u1"}, nil)

		_, err := f.svc.ListByHabitID(ctx, "h1", "u2", day("2024-03-01"), day("2024-03-31"))

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("GetDelta propagates sync parameters", func(t *testing.T) {
		f := newEntryFixture()
		since := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		f.entryRepo.On("GetChanges", ctx, "u1", since).Return([]*domain.HabitEntry{existing}, nil)

		delta, err := f.svc.GetDelta(ctx, "u1", since)

		require.NoError(t, err)
		assert.Len(t, delta, 1)
	})
}
