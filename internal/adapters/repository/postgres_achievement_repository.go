package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
)

const achievementColumns = `
    id, user_id, habit_id, habit_name, type, kind, name, description, awarded_at`

type PostgresAchievementRepository struct {
	db *sqlx.DB
}

func NewPostgresAchievementRepository(db *sqlx.DB) *PostgresAchievementRepository {
	return &PostgresAchievementRepository{db: db}
}

// Award relies on the unique (user_id, habit_id, type) index: a conflicting
// insert writes nothing and returns no row.
func (r *PostgresAchievementRepository) Award(ctx context.Context, a *domain.Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (` + achievementColumns + `)
		VALUES (:id, :user_id, :habit_id, :habit_name, :type, :kind, :name, :description, :awarded_at)
		ON CONFLICT (user_id, habit_id, type) DO NOTHING
		RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, a)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return false, domain.ErrHabitNotFound
		}
		return false, fmt.Errorf("insert achievement: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

func (r *PostgresAchievementRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	list := []*domain.Achievement{}
	query := `
		SELECT ` + achievementColumns + ` FROM achievements
		WHERE user_id = $1
		ORDER BY awarded_at DESC`

	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *PostgresAchievementRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Achievement, error) {
	list := []*domain.Achievement{}
	query := `
		SELECT ` + achievementColumns + ` FROM achievements
		WHERE habit_id = $1
		ORDER BY awarded_at DESC`

	if err := r.db.SelectContext(ctx, &list, query, habitID); err != nil {
		return nil, err
	}
	return list, nil
}
