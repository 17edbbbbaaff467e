package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order, each once, inside its own transaction.
var migrations = []migration{
	{1, "users", migration001Users},
	{2, "habits", migration002Habits},
	{3, "habit_entries", migration003Entries},
	{4, "achievements", migration004Achievements},
}

// Migrate brings the schema up to date and returns how many migrations ran.
func Migrate(ctx context.Context, db *sqlx.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		ran, err := applyMigration(ctx, db, m)
		if err != nil {
			return applied, err
		}
		if ran {
			applied++
			log.WithFields(log.Fields{"version": m.version, "name": m.name}).Info("migration applied")
		}
	}
	return applied, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, m migration) (bool, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version); err != nil {
		return false, fmt.Errorf("migration %d: check: %w", m.version, err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return false, fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return false, fmt.Errorf("migration %d: record: %w", m.version, err)
	}

	return true, tx.Commit()
}

const migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          VARCHAR(100) NOT NULL DEFAULT '',
    email         VARCHAR(255) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const migration002Habits = `
CREATE TABLE IF NOT EXISTS habits (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title          VARCHAR(100) NOT NULL,
    description    VARCHAR(500) NOT NULL DEFAULT '',
    color          VARCHAR(7) NOT NULL DEFAULT '#4CAF50',
    icon           VARCHAR(50) NOT NULL DEFAULT 'default_icon',
    sort_order     INTEGER NOT NULL DEFAULT 0,
    frequency_type VARCHAR(10) NOT NULL DEFAULT 'daily',
    reminder_time  VARCHAR(5),
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    archived_at    TIMESTAMPTZ,
    version        INTEGER NOT NULL DEFAULT 1,
    deleted_at     TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_habits_user ON habits (user_id) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_habits_user_updated ON habits (user_id, updated_at);`

const migration003Entries = `
CREATE TABLE IF NOT EXISTS habit_entries (
    id          TEXT PRIMARY KEY,
    habit_id    TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
    user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    entry_date  DATE NOT NULL,
    value       INTEGER NOT NULL CHECK (value BETWEEN 0 AND 100),
    notes       VARCHAR(500),
    mood        VARCHAR(50),
    version     INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    deleted_at  TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_habit_entries_day
    ON habit_entries (habit_id, entry_date) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_habit_entries_user_date ON habit_entries (user_id, entry_date);
CREATE INDEX IF NOT EXISTS idx_habit_entries_user_updated ON habit_entries (user_id, updated_at);`

const migration004Achievements = `
CREATE TABLE IF NOT EXISTS achievements (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    habit_id    TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
    habit_name  VARCHAR(100) NOT NULL,
    type        VARCHAR(50) NOT NULL,
    kind        VARCHAR(20) NOT NULL,
    name        VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    awarded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, habit_id, type)
);`
