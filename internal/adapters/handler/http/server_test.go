package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/services"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// testServer is the full API over in-memory storage with a frozen clock.
type testServer struct {
	router       *gin.Engine
	users        *repository.InMemoryUserRepository
	habits       *repository.InMemoryHabitRepository
	entries      *repository.InMemoryEntryRepository
	tokens       *services.TokenService
	achievements *services.AchievementService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := domain.FixedClock(testNow)
	users := repository.NewInMemoryUserRepository()
	habits := repository.NewInMemoryHabitRepository()
	entries := repository.NewInMemoryEntryRepository()
	awarded := repository.NewInMemoryAchievementRepository()

	tokens := services.NewTokenService("handler-secret", "kanso-test", time.Hour, users)
	achievements := services.NewAchievementService(habits, entries, awarded, clock)

	router := NewRouter(RouterDependencies{
		AuthHandler:        NewAuthHandler(services.NewAuthService(users, tokens)),
		HabitHandler:       NewHabitHandler(services.NewHabitService(habits)),
		EntryHandler:       NewEntryHandler(services.NewEntryService(entries, habits, nil), clock),
		StatsHandler:       NewStatsHandler(services.NewStatsService(habits, entries, clock), clock),
		AchievementHandler: NewAchievementHandler(achievements),
		TokenValidator:     tokens,
		StartTime:          testNow,
	})

	return &testServer{
		router:       router,
		users:        users,
		habits:       habits,
		entries:      entries,
		tokens:       tokens,
		achievements: achievements,
	}
}

// login stores a user and returns a bearer token for it.
func (s *testServer) login(t *testing.T, id string) string {
	t.Helper()

	user, err := domain.NewUser(id, "", id+"@kanso.app")
	require.NoError(t, err)
	require.NoError(t, s.users.Create(context.Background(), user))

	token, err := s.tokens.GenerateToken(id)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// createHabit goes through the API so ownership is set like in production.
func (s *testServer) createHabit(t *testing.T, token, title string) *domain.Habit {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/v1/habits", token, map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var h domain.Habit
	decode(t, w, &h)
	return &h
}

func (s *testServer) record(t *testing.T, token, habitID, date string, value int) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPut, "/api/v1/entries/progress", token, map[string]any{
		"habit_id": habitID,
		"date":     date,
		"value":    value,
	})
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
