package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

// The in-memory repositories store copies, so callers holding a pointer
// cannot bypass the version checks.

type InMemoryHabitRepository struct {
	store map[string]domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit.Version = 1
	r.store[habit.ID] = *habit
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok || habit.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	return &habit, nil
}

func (r *InMemoryHabitRepository) filter(keep func(h domain.Habit) bool) []*domain.Habit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := make([]*domain.Habit, 0)
	for _, h := range r.store {
		if keep(h) {
			h := h
			habits = append(habits, &h)
		}
	}
	return habits
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	habits := r.filter(func(h domain.Habit) bool {
		return h.UserID == userID && h.DeletedAt == nil
	})

	sort.Slice(habits, func(i, j int) bool {
		if habits[i].SortOrder != habits[j].SortOrder {
			return habits[i].SortOrder < habits[j].SortOrder
		}
		return habits[i].CreatedAt.After(habits[j].CreatedAt)
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) ListActive(ctx context.Context) ([]*domain.Habit, error) {
	habits := r.filter(func(h domain.Habit) bool { return h.IsActive() })
	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[habit.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	habit.UpdatedAt = time.Now().UTC()
	habit.CurrentStreak, habit.LongestStreak = stored.CurrentStreak, stored.LongestStreak
	r.store[habit.ID] = *habit
	return nil
}

func (r *InMemoryHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}

	stored.CurrentStreak, stored.LongestStreak = current, longest
	r.store[id] = stored
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}

	now := time.Now().UTC()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	stored.Version++
	r.store[id] = stored
	return nil
}

func (r *InMemoryHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	habits := r.filter(func(h domain.Habit) bool {
		return h.UserID == userID && h.UpdatedAt.After(since)
	})
	sort.Slice(habits, func(i, j int) bool {
		return habits[i].UpdatedAt.Before(habits[j].UpdatedAt)
	})
	return habits, nil
}

type InMemoryEntryRepository struct {
	store map[string]domain.HabitEntry

	mu sync.RWMutex
}

func NewInMemoryEntryRepository() *InMemoryEntryRepository {
	return &InMemoryEntryRepository{
		store: make(map[string]domain.HabitEntry),
	}
}

func (r *InMemoryEntryRepository) Create(ctx context.Context, entry *domain.HabitEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.Date = progress.Day(entry.Date)
	for _, e := range r.store {
		if e.HabitID == entry.HabitID && e.DeletedAt == nil && e.Date.Equal(entry.Date) {
			return domain.ErrEntryAlreadyExists
		}
	}

	r.store[entry.ID] = *entry
	return nil
}

func (r *InMemoryEntryRepository) Update(ctx context.Context, entry *domain.HabitEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[entry.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrEntryNotFound
	}
	if stored.Version != entry.Version {
		return domain.ErrEntryConflict
	}

	entry.Version++
	entry.UpdatedAt = time.Now().UTC()
	r.store[entry.ID] = *entry
	return nil
}

func (r *InMemoryEntryRepository) Delete(ctx context.Context, id string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil || stored.UserID != userID {
		return domain.ErrEntryNotFound
	}

	now := time.Now().UTC()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	stored.Version++
	r.store[id] = stored
	return nil
}

func (r *InMemoryEntryRepository) GetByID(ctx context.Context, id string) (*domain.HabitEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.store[id]
	if !ok || e.DeletedAt != nil {
		return nil, domain.ErrEntryNotFound
	}
	return &e, nil
}

func (r *InMemoryEntryRepository) GetByDate(ctx context.Context, habitID string, day time.Time) (*domain.HabitEntry, error) {
	day = progress.Day(day)
	found := r.filter(func(e domain.HabitEntry) bool {
		return e.HabitID == habitID && e.DeletedAt == nil && e.Date.Equal(day)
	})
	if len(found) == 0 {
		return nil, domain.ErrEntryNotFound
	}
	return found[0], nil
}

func (r *InMemoryEntryRepository) filter(keep func(e domain.HabitEntry) bool) []*domain.HabitEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*domain.HabitEntry, 0)
	for _, e := range r.store {
		if keep(e) {
			e := e
			entries = append(entries, &e)
		}
	}
	return entries
}

func byDate(entries []*domain.HabitEntry) []*domain.HabitEntry {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func (r *InMemoryEntryRepository) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.HabitEntry, error) {
	return byDate(r.filter(func(e domain.HabitEntry) bool {
		return e.HabitID == habitID && e.DeletedAt == nil && inRange(e.Date, from, to)
	})), nil
}

func (r *InMemoryEntryRepository) ListAllByHabitID(ctx context.Context, habitID string) ([]*domain.HabitEntry, error) {
	return byDate(r.filter(func(e domain.HabitEntry) bool {
		return e.HabitID == habitID && e.DeletedAt == nil
	})), nil
}

func (r *InMemoryEntryRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.HabitEntry, error) {
	return byDate(r.filter(func(e domain.HabitEntry) bool {
		return e.UserID == userID && e.DeletedAt == nil && inRange(e.Date, from, to)
	})), nil
}

func (r *InMemoryEntryRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.HabitEntry, error) {
	entries := r.filter(func(e domain.HabitEntry) bool {
		return e.UserID == userID && e.UpdatedAt.After(since)
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
	})
	return entries, nil
}

type InMemoryUserRepository struct {
	byID map[string]domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{byID: make(map[string]domain.User)}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = user.UpdatedAt
	r.byID[user.ID] = stored
	return nil
}

type InMemoryAchievementRepository struct {
	awards []domain.Achievement

	mu sync.RWMutex
}

func NewInMemoryAchievementRepository() *InMemoryAchievementRepository {
	return &InMemoryAchievementRepository{}
}

func (r *InMemoryAchievementRepository) Award(ctx context.Context, a *domain.Achievement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, held := range r.awards {
		if held.UserID == a.UserID && held.HabitID == a.HabitID && held.Type == a.Type {
			return false, nil
		}
	}
	r.awards = append(r.awards, *a)
	return true, nil
}

func (r *InMemoryAchievementRepository) list(keep func(a domain.Achievement) bool) []*domain.Achievement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Achievement, 0)
	for _, a := range r.awards {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AwardedAt.After(out[j].AwardedAt)
	})
	return out
}

func (r *InMemoryAchievementRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	return r.list(func(a domain.Achievement) bool { return a.UserID == userID }), nil
}

func (r *InMemoryAchievementRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Achievement, error) {
	return r.list(func(a domain.Achievement) bool { return a.HabitID == habitID }), nil
}
