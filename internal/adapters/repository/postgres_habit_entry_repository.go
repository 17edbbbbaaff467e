package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
)

var ErrEntryReference = errors.New("referenced habit or user does not exist")

const entryColumns = `
    id, habit_id, user_id, entry_date, value, notes, mood,
    version, created_at, updated_at, deleted_at`

type PostgresEntryRepository struct {
	db *sqlx.DB
}

func NewPostgresEntryRepository(db *sqlx.DB) *PostgresEntryRepository {
	return &PostgresEntryRepository{db: db}
}

func (r *PostgresEntryRepository) Create(ctx context.Context, entry *domain.HabitEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO habit_entries (
			id, habit_id, user_id,
			entry_date, value, notes, mood,
			version, created_at, updated_at, deleted_at
		) VALUES (
			:id, :habit_id, :user_id,
			:entry_date, :value, :notes, :mood,
			:version, :created_at, :updated_at, :deleted_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		switch pgCode(err) {
		case pgForeignKeyViolation:
			return ErrEntryReference
		case pgUniqueViolation:
			return domain.ErrEntryAlreadyExists
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (r *PostgresEntryRepository) get(ctx context.Context, query string, args ...interface{}) (*domain.HabitEntry, error) {
	var entry domain.HabitEntry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *PostgresEntryRepository) selectEntries(ctx context.Context, query string, args ...interface{}) ([]*domain.HabitEntry, error) {
	entries := []*domain.HabitEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresEntryRepository) GetByID(ctx context.Context, id string) (*domain.HabitEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM habit_entries WHERE id = $1 AND deleted_at IS NULL`
	return r.get(ctx, query, id)
}

func (r *PostgresEntryRepository) GetByDate(ctx context.Context, habitID string, day time.Time) (*domain.HabitEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM habit_entries
		WHERE habit_id = $1 AND entry_date = $2 AND deleted_at IS NULL`
	return r.get(ctx, query, habitID, day)
}

func (r *PostgresEntryRepository) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.HabitEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM habit_entries
		WHERE habit_id = $1
		  AND entry_date >= $2
		  AND entry_date <= $3
		  AND deleted_at IS NULL
		ORDER BY entry_date ASC`
	return r.selectEntries(ctx, query, habitID, from, to)
}

func (r *PostgresEntryRepository) ListAllByHabitID(ctx context.Context, habitID string) ([]*domain.HabitEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM habit_entries
		WHERE habit_id = $1 AND deleted_at IS NULL
		ORDER BY entry_date ASC`
	return r.selectEntries(ctx, query, habitID)
}

func (r *PostgresEntryRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.HabitEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM habit_entries
		WHERE user_id = $1
		  AND entry_date >= $2
		  AND entry_date <= $3
		  AND deleted_at IS NULL
		ORDER BY habit_id, entry_date ASC`
	return r.selectEntries(ctx, query, userID, from, to)
}

// Update bumps the version itself; the caller passes the version it read.
func (r *PostgresEntryRepository) Update(ctx context.Context, entry *domain.HabitEntry) error {
	prevVersion, prevUpdatedAt := entry.Version, entry.UpdatedAt
	entry.Version++
	entry.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE habit_entries
		SET value = :value,
		    notes = :notes,
		    mood = :mood,
		    version = :version,
		    updated_at = :updated_at
		WHERE id = :id
		  AND version = :version - 1
		  AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		entry.Version, entry.UpdatedAt = prevVersion, prevUpdatedAt
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		entry.Version, entry.UpdatedAt = prevVersion, prevUpdatedAt
		exists, err := r.exists(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("existence check failed: %w", err)
		}
		if !exists {
			return domain.ErrEntryNotFound
		}
		return domain.ErrEntryConflict
	}

	return nil
}

func (r *PostgresEntryRepository) Delete(ctx context.Context, id string, userID string) error {
	now := time.Now().UTC()

	query := `
		UPDATE habit_entries
		SET deleted_at = $1,
		    updated_at = $1,
		    version = version + 1
		WHERE id = $2
		  AND user_id = $3
		  AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, now, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

func (r *PostgresEntryRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.HabitEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM habit_entries
		WHERE user_id = $1
		  AND updated_at > $2
		ORDER BY updated_at ASC`
	return r.selectEntries(ctx, query, userID, since)
}

func (r *PostgresEntryRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM habit_entries WHERE id = $1 AND deleted_at IS NULL", id)
	return count > 0, err
}
