package services

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

// Recalculator is notified whenever the progress of a habit changes.
type Recalculator interface {
	Enqueue(habitID string)
}

type EntryService struct {
	repo      domain.HabitEntryRepository
	habitRepo domain.HabitRepository
	worker    Recalculator
}

func NewEntryService(repo domain.HabitEntryRepository, habitRepo domain.HabitRepository, worker Recalculator) *EntryService {
	return &EntryService{
		repo:      repo,
		habitRepo: habitRepo,
		worker:    worker,
	}
}

type CreateEntryInput struct {
	HabitID string
	UserID  string
	Date    time.Time
	Value   int
	Notes   string
	Mood    string
}

type UpdateEntryInput struct {
	ID      string
	UserID  string
	Value   int
	Notes   string
	Mood    string
	Version int
}

func (s *EntryService) authorizeHabit(ctx context.Context, habitID, userID string) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return habit, nil
}

func (s *EntryService) notify(habitID string) {
	if s.worker != nil {
		s.worker.Enqueue(habitID)
	}
}

// Create adds the progress of a day that has none yet.
func (s *EntryService) Create(ctx context.Context, input CreateEntryInput) (*domain.HabitEntry, error) {
	entry := domain.NewHabitEntry(input.HabitID, input.UserID, input.Date, input.Value)
	entry.SetDetails(input.Notes, input.Mood)

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.authorizeHabit(ctx, entry.HabitID, entry.UserID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.notify(entry.HabitID)

	return entry, nil
}

// RecordProgress sets the progress of a day, creating the entry if the day
// has none. The returned flag is true when a new entry was created.
func (s *EntryService) RecordProgress(ctx context.Context, input CreateEntryInput) (*domain.HabitEntry, bool, error) {
	day := progress.Day(input.Date)

	existing, err := s.repo.GetByDate(ctx, input.HabitID, day)
	if errors.Is(err, domain.ErrEntryNotFound) {
		entry, createErr := s.Create(ctx, input)
		if !errors.Is(createErr, domain.ErrEntryAlreadyExists) {
			return entry, createErr == nil, createErr
		}
		// A concurrent request created the day first.
		existing, err = s.repo.GetByDate(ctx, input.HabitID, day)
	}
	if err != nil {
		return nil, false, err
	}

	if existing.UserID != input.UserID {
		return nil, false, domain.ErrUnauthorized
	}

	updated, err := s.apply(ctx, existing, input.Value, input.Notes, input.Mood)
	return updated, false, err
}

func (s *EntryService) Update(ctx context.Context, input UpdateEntryInput) (*domain.HabitEntry, error) {
	existing, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && existing.Version != input.Version {
		return nil, domain.ErrEntryConflict
	}

	return s.apply(ctx, existing, input.Value, input.Notes, input.Mood)
}

func (s *EntryService) apply(ctx context.Context, entry *domain.HabitEntry, value int, notes, mood string) (*domain.HabitEntry, error) {
	entry.Value = value
	entry.SetDetails(notes, mood)
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"habit_id":  entry.HabitID,
		"date":      entry.Date.Format(dateLayout),
		"value":     entry.Value,
		"completed": entry.IsCompleted(),
	}).Debug("progress updated")

	s.notify(entry.HabitID)

	return entry, nil
}

func (s *EntryService) GetByID(ctx context.Context, id string, userID string) (*domain.HabitEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return entry, nil
}

func (s *EntryService) ListByHabitID(ctx context.Context, habitID string, userID string, from, to time.Time) ([]*domain.HabitEntry, error) {
	if _, err := s.authorizeHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}

	return s.repo.ListByHabitID(ctx, habitID, progress.Day(from), progress.Day(to))
}

func (s *EntryService) Delete(ctx context.Context, id string, userID string) error {
	entry, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.notify(entry.HabitID)

	return nil
}

func (s *EntryService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.HabitEntry, error) {
	return s.repo.GetChanges(ctx, userID, since)
}
