package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

// CachedHabitRepository caches the habit list of each user. Every write
// through it drops the owner's list.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedHabitRepository(next domain.HabitRepository, rdb *redis.Client, ttl time.Duration) *CachedHabitRepository {
	return &CachedHabitRepository{
		next:  next,
		cache: rdb,
		ttl:   ttl,
	}
}

func (r *CachedHabitRepository) cacheKey(userID string) string {
	return fmt.Sprintf("habits:%s", userID)
}

func (r *CachedHabitRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("[CACHE] failed to invalidate habits")
	}
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	key := r.cacheKey(userID)

	var habits []*domain.Habit
	hit, err := cache.GetJSON(ctx, r.cache, key, &habits)
	switch {
	case hit:
		return habits, nil
	case errors.Is(err, cache.ErrCorrupted):
		log.WithField("user_id", userID).Warn("[CACHE] corrupted habit list, cleaning up key")
		r.cache.Del(ctx, key)
	case err != nil:
		log.WithError(err).Warn("[CACHE] redis read error")
	}

	habits, err = r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, r.cache, key, habits, r.ttl); err != nil {
		log.WithError(err).Warn("[CACHE] redis set error")
	}

	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) ListActive(ctx context.Context) ([]*domain.Habit, error) {
	return r.next.ListActive(ctx)
}

func (r *CachedHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

// writeByID runs write and then drops the list of the habit's owner. The
// owner is looked up first because a deleted habit can no longer be read.
func (r *CachedHabitRepository) writeByID(ctx context.Context, id string, write func() error) error {
	owner := ""
	if habit, err := r.next.GetByID(ctx, id); err == nil {
		owner = habit.UserID
	}

	if err := write(); err != nil {
		return err
	}
	if owner != "" {
		r.invalidate(ctx, owner)
	}
	return nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, id string) error {
	return r.writeByID(ctx, id, func() error { return r.next.Delete(ctx, id) })
}

// UpdateStreaks invalidates too: cached lists carry the streak counters.
func (r *CachedHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	return r.writeByID(ctx, id, func() error { return r.next.UpdateStreaks(ctx, id, current, longest) })
}
