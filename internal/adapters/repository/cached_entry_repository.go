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

var _ domain.HabitEntryRepository = (*CachedEntryRepository)(nil)

// CachedEntryRepository memoizes date-range reads of a habit. Keys embed a
// per-habit generation that every write increments, so stale ranges are
// never read again and simply expire.
type CachedEntryRepository struct {
	next  domain.HabitEntryRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedEntryRepository(next domain.HabitEntryRepository, rdb *redis.Client, ttl time.Duration) *CachedEntryRepository {
	return &CachedEntryRepository{
		next:  next,
		cache: rdb,
		ttl:   ttl,
	}
}

func generationKey(habitID string) string {
	return fmt.Sprintf("entries:%s:gen", habitID)
}

func (r *CachedEntryRepository) generation(ctx context.Context, habitID string) (int64, error) {
	gen, err := r.cache.Get(ctx, generationKey(habitID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *CachedEntryRepository) bump(ctx context.Context, habitID string) {
	if err := r.cache.Incr(ctx, generationKey(habitID)).Err(); err != nil {
		log.WithError(err).WithField("habit_id", habitID).Warn("[CACHE] failed to bump entry generation")
	}
}

func (r *CachedEntryRepository) rangeKey(habitID string, gen int64, from, to time.Time) string {
	return fmt.Sprintf("entries:%s:%d:%s:%s", habitID, gen, from.Format("20060102"), to.Format("20060102"))
}

func (r *CachedEntryRepository) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.HabitEntry, error) {
	gen, err := r.generation(ctx, habitID)
	if err != nil {
		log.WithError(err).Warn("[CACHE] redis read error")
		return r.next.ListByHabitID(ctx, habitID, from, to)
	}

	key := r.rangeKey(habitID, gen, from, to)

	var entries []*domain.HabitEntry
	hit, err := cache.GetJSON(ctx, r.cache, key, &entries)
	switch {
	case hit:
		return entries, nil
	case errors.Is(err, cache.ErrCorrupted):
		r.cache.Del(ctx, key)
	case err != nil:
		log.WithError(err).Warn("[CACHE] redis read error")
	}

	entries, err = r.next.ListByHabitID(ctx, habitID, from, to)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, r.cache, key, entries, r.ttl); err != nil {
		log.WithError(err).Warn("[CACHE] redis set error")
	}

	return entries, nil
}

func (r *CachedEntryRepository) Create(ctx context.Context, entry *domain.HabitEntry) error {
	if err := r.next.Create(ctx, entry); err != nil {
		return err
	}
	r.bump(ctx, entry.HabitID)
	return nil
}

func (r *CachedEntryRepository) Update(ctx context.Context, entry *domain.HabitEntry) error {
	if err := r.next.Update(ctx, entry); err != nil {
		return err
	}
	r.bump(ctx, entry.HabitID)
	return nil
}

func (r *CachedEntryRepository) Delete(ctx context.Context, id string, userID string) error {
	entry, err := r.next.GetByID(ctx, id)
	if err == nil && entry != nil {
		defer r.bump(ctx, entry.HabitID)
	}

	return r.next.Delete(ctx, id, userID)
}

func (r *CachedEntryRepository) GetByID(ctx context.Context, id string) (*domain.HabitEntry, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedEntryRepository) GetByDate(ctx context.Context, habitID string, day time.Time) (*domain.HabitEntry, error) {
	return r.next.GetByDate(ctx, habitID, day)
}

func (r *CachedEntryRepository) ListAllByHabitID(ctx context.Context, habitID string) ([]*domain.HabitEntry, error) {
	return r.next.ListAllByHabitID(ctx, habitID)
}

func (r *CachedEntryRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.HabitEntry, error) {
	return r.next.ListByUserIDAndDateRange(ctx, userID, from, to)
}

func (r *CachedEntryRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.HabitEntry, error) {
	return r.next.GetChanges(ctx, userID, since)
}
