package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
	ErrUnauthorized  = errors.New("resource does not belong to user")
)

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a non-deleted habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all non-deleted habits associated with a specific user.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// ListActive retrieves every habit that is neither archived nor deleted.
	// Used by the nightly streak recalculation.
	ListActive(ctx context.Context) ([]*Habit, error)

	// Update modifies the state of an existing habit.
	// It fails with ErrHabitConflict when habit.Version is stale and bumps it on success.
	Update(ctx context.Context, habit *Habit) error

	// Delete soft-deletes a habit.
	Delete(ctx context.Context, id string) error

	// GetChanges returns only the habits changed after a specific date, deleted ones included.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Habit, error)

	// UpdateStreaks stores derived streak counters without touching the version.
	UpdateStreaks(ctx context.Context, id string, current, longest int) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}
