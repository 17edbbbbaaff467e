package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEntryNotFound      = errors.New("habit entry not found")
	ErrEntryConflict      = errors.New("habit entry version conflict")
	ErrEntryAlreadyExists = errors.New("an entry for this habit and date already exists")
)

type HabitEntryRepository interface {
	// Create persists a new entry. At most one active entry may exist per habit and day;
	// a second one must fail with ErrEntryAlreadyExists.
	Create(ctx context.Context, entry *HabitEntry) error

	// Update modifies an existing entry.
	// Implementations must handle Optimistic Locking (version check) to prevent data races.
	Update(ctx context.Context, entry *HabitEntry) error

	// Delete performs a Soft Delete on the entry.
	// It requires userID to ensure the user actually owns the entry being deleted.
	Delete(ctx context.Context, id string, userID string) error

	// GetByID retrieves a single active (non-deleted) entry by its ID.
	GetByID(ctx context.Context, id string) (*HabitEntry, error)

	// GetByDate retrieves the active entry of a habit for one calendar day.
	GetByDate(ctx context.Context, habitID string, day time.Time) (*HabitEntry, error)

	// ListByHabitID retrieves entries for a specific habit within an inclusive day range,
	// ordered by date.
	ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*HabitEntry, error)

	// ListAllByHabitID retrieves the full active history of a habit, ordered by date.
	// Best streaks are computed over it.
	ListAllByHabitID(ctx context.Context, habitID string) ([]*HabitEntry, error)

	// ListByUserIDAndDateRange retrieves the active entries of every habit of a user
	// within an inclusive day range.
	ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*HabitEntry, error)

	// GetChanges returns all changes (creations, updates, soft-deletes)
	// that occurred after the 'since' timestamp, for offline clients.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*HabitEntry, error)
}
