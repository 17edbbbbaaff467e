package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupTestDB(t *testing.T) *sqlx.DB {
	return setupTestDBWithDriver(t, "pgx")
}

// setupTestDBWithDriver connects through "pgx" or the lib/pq "postgres" driver.
func setupTestDBWithDriver(t *testing.T, driver string) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envOr("DB_USER", "kanso_user"),
		envOr("DB_PASSWORD", "secret"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "kanso_db"),
	)

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}
	_, err = Migrate(context.Background(), db)
	require.NoError(t, err, "Failed to migrate test database")
	return db
}

func cleanup(t *testing.T, db *sqlx.DB) {
	_, err := db.Exec("TRUNCATE TABLE achievements, habit_entries, habits, users CASCADE")
	require.NoError(t, err, "Failed to clean up database")
}

func dbNow(t *testing.T, db *sqlx.DB) time.Time {
	var now time.Time
	require.NoError(t, db.QueryRow("SELECT NOW()").Scan(&now))
	return now
}

func insertUser(t *testing.T, db *sqlx.DB, id, email string, now time.Time) {
	_, err := db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
        VALUES ($1, '', $2, 'hash', $3, $3)`, id, email, now)
	require.NoError(t, err, "Failed to create user fixture")
}

func insertHabit(t *testing.T, db *sqlx.DB, id, userID, title string, now time.Time) {
	_, err := db.Exec(`INSERT INTO habits (id, user_id, title, color, icon, frequency_type, version, created_at, updated_at)
        VALUES ($1, $2, $3, '#4CAF50', 'default_icon', 'daily', 1, $4, $4)`, id, userID, title, now)
	require.NoError(t, err, "Failed to create habit fixture")
}
