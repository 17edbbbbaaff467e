package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
)

func TestHabitHandler_CRUD(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, "owner")

	habit := srv.createHabit(t, token, "Read")
	assert.Equal(t, "owner", habit.UserID)
	assert.Equal(t, 1, habit.Version)

	t.Run("Success: get and list", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/habits/"+habit.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got domain.Habit
		decode(t, w, &got)
		assert.Equal(t, "Read", got.Title)

		w = srv.do(t, http.MethodGet, "/api/v1/habits", token, nil)
		var list []domain.Habit
		decode(t, w, &list)
		assert.Len(t, list, 1)
	})

	t.Run("Success: update bumps the version", func(t *testing.T) {
		w := srv.do(t, http.MethodPut, "/api/v1/habits/"+habit.ID, token, map[string]any{
			"title":   "Read 20 pages",
			"version": 1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got domain.Habit
		decode(t, w, &got)
		assert.Equal(t, "Read 20 pages", got.Title)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("Fail: stale version is a conflict", func(t *testing.T) {
		w := srv.do(t, http.MethodPut, "/api/v1/habits/"+habit.ID, token, map[string]any{
			"title":   "Too late",
			"version": 1,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "version conflict")
	})

	t.Run("Fail: empty title on create", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/habits", token, map[string]string{"title": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success: delete hides the habit", func(t *testing.T) {
		other := srv.createHabit(t, token, "Temporary")

		assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/v1/habits/"+other.ID, token, nil).Code)
		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/habits/"+other.ID, token, nil).Code)
	})
}

func TestHabitHandler_Isolation(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.login(t, "owner")
	intruder := srv.login(t, "intruder")

	habit := srv.createHabit(t, owner, "Private")

	tests := []struct {
		name   string
		method string
		body   any
	}{
		{"Fail: get", http.MethodGet, nil},
		{"Fail: update", http.MethodPut, map[string]any{"title": "Mine now"}},
		{"Fail: delete", http.MethodDelete, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, tt.method, "/api/v1/habits/"+habit.ID, intruder, tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}

	w := srv.do(t, http.MethodGet, "/api/v1/habits", intruder, nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHabitHandler_Sync(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, "owner")

	before := time.Now().UTC().Add(-time.Minute)
	srv.createHabit(t, token, "Run")

	t.Run("Success: changes since last sync", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/habits/sync?last_sync="+before.Format(time.RFC3339), token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Changes   []domain.Habit `json:"changes"`
			Timestamp time.Time      `json:"timestamp"`
		}
		decode(t, w, &resp)
		assert.Len(t, resp.Changes, 1)
		assert.False(t, resp.Timestamp.IsZero())
	})

	t.Run("Fail: bad last_sync", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/habits/sync?last_sync=yesterday", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
