package workers

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/metrics"
)

const defaultQueueSize = 100

type HabitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Habit, error)
	ListActive(ctx context.Context) ([]*domain.Habit, error)
	UpdateStreaks(ctx context.Context, id string, current, longest int) error
}

type EntryRepository interface {
	ListAllByHabitID(ctx context.Context, habitID string) ([]*domain.HabitEntry, error)
}

// Awarder grants the achievements a habit has reached.
type Awarder interface {
	CheckAndAward(ctx context.Context, habitID string) ([]*domain.Achievement, error)
}

// ProgressWorker recomputes the stored streaks and achievements of habits
// whose progress changed.
type ProgressWorker struct {
	habitRepo HabitRepository
	entryRepo EntryRepository
	awarder   Awarder
	clock     domain.Clock
	jobs      chan string
	done      chan struct{}
	once      sync.Once
}

func NewProgressWorker(hRepo HabitRepository, eRepo EntryRepository, awarder Awarder, clock domain.Clock, queueSize int) *ProgressWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &ProgressWorker{
		habitRepo: hRepo,
		entryRepo: eRepo,
		awarder:   awarder,
		clock:     clock,
		jobs:      make(chan string, queueSize),
		done:      make(chan struct{}),
	}
}

// Start consumes jobs until ctx is cancelled. Calling it twice has no effect.
func (w *ProgressWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		go func() {
			defer close(w.done)
			log.Info("progress worker started")
			for {
				select {
				case habitID := <-w.jobs:
					w.handle(ctx, habitID)
				case <-ctx.Done():
					log.Info("progress worker shutting down")
					return
				}
			}
		}()
	})
}

// Done is closed once the worker loop has exited.
func (w *ProgressWorker) Done() <-chan struct{} {
	return w.done
}

// Enqueue never blocks. When the queue is full the job is dropped; the
// nightly recalculation picks the habit up again.
func (w *ProgressWorker) Enqueue(habitID string) {
	select {
	case w.jobs <- habitID:
	default:
		metrics.WorkerQueueDropped.Inc()
		log.WithField("habit_id", habitID).Warn("progress worker queue full, dropping job")
	}
}

func (w *ProgressWorker) handle(ctx context.Context, habitID string) {
	if err := w.Process(ctx, habitID); err != nil {
		metrics.WorkerJobs.WithLabelValues("error").Inc()
		log.WithError(err).WithField("habit_id", habitID).Error("progress recalculation failed")
		return
	}
	metrics.WorkerJobs.WithLabelValues("ok").Inc()
}

// Process recalculates one habit synchronously.
func (w *ProgressWorker) Process(ctx context.Context, habitID string) error {
	habit, err := w.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return fmt.Errorf("fetch habit: %w", err)
	}

	entries, err := w.entryRepo.ListAllByHabitID(ctx, habitID)
	if err != nil {
		return fmt.Errorf("fetch entries: %w", err)
	}

	records, anomalies := progress.Sanitize(domain.ToRecords(entries))
	metrics.ObserveEvaluation("recalculate", anomalies)
	if anomalies.Any() {
		log.WithFields(log.Fields{
			"habit_id":   habitID,
			"clamped":    anomalies.Clamped,
			"duplicates": anomalies.Duplicates,
		}).Warn("progress records repaired before recalculation")
	}

	streaks := progress.ComputeStreaks(records, w.clock.Today())

	if habit.UpdateStreak(streaks.CurrentStreak, streaks.BestStreak) {
		if err := w.habitRepo.UpdateStreaks(ctx, habit.ID, habit.CurrentStreak, habit.LongestStreak); err != nil {
			return fmt.Errorf("store streaks: %w", err)
		}
		log.WithFields(log.Fields{
			"habit_id": habit.ID,
			"current":  habit.CurrentStreak,
			"longest":  habit.LongestStreak,
		}).Debug("streaks updated")
	}

	if w.awarder == nil {
		return nil
	}
	if _, err := w.awarder.CheckAndAward(ctx, habitID); err != nil {
		return fmt.Errorf("award achievements: %w", err)
	}
	return nil
}

// RecalculateAll processes every active habit in the caller's goroutine and
// returns how many succeeded. A failing habit is logged and skipped.
func (w *ProgressWorker) RecalculateAll(ctx context.Context) (int, error) {
	habits, err := w.habitRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active habits: %w", err)
	}

	ok := 0
	for _, h := range habits {
		if err := ctx.Err(); err != nil {
			return ok, err
		}
		if err := w.Process(ctx, h.ID); err != nil {
			metrics.WorkerJobs.WithLabelValues("error").Inc()
			log.WithError(err).WithField("habit_id", h.ID).Warn("recalculation skipped habit")
			continue
		}
		metrics.WorkerJobs.WithLabelValues("ok").Inc()
		ok++
	}

	log.WithFields(log.Fields{"habits": len(habits), "ok": ok}).Info("recalculation finished")
	return ok, nil
}
