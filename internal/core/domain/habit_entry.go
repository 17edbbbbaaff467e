package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

const (
	MinEntryValue = 0
	MaxEntryValue = 100
	MaxNotesLen   = 500
	MaxMoodLen    = 50
)

var (
	ErrInvalidEntry      = errors.New("invalid habit entry data")
	ErrEntryValueRange   = fmt.Errorf("%w: value must be between %d and %d", ErrInvalidEntry, MinEntryValue, MaxEntryValue)
	ErrEntryNotesTooLong = fmt.Errorf("%w: notes are too long (max %d chars)", ErrInvalidEntry, MaxNotesLen)
	ErrEntryMoodTooLong  = fmt.Errorf("%w: mood is too long (max %d chars)", ErrInvalidEntry, MaxMoodLen)
)

// HabitEntry is the stored progress of one habit on one calendar day.
type HabitEntry struct {
	ID      string `json:"id" db:"id"`
	HabitID string `json:"habit_id" db:"habit_id"`
	UserID  string `json:"user_id" db:"user_id"`

	Date  time.Time `json:"date" db:"entry_date"`
	Value int       `json:"value" db:"value"`
	Notes *string   `json:"notes,omitempty" db:"notes"`
	Mood  *string   `json:"mood,omitempty" db:"mood"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// NewHabitEntry truncates date to its calendar day.
func NewHabitEntry(habitID, userID string, date time.Time, value int) *HabitEntry {
	now := time.Now().UTC()

	return &HabitEntry{
		ID:      uuid.NewString(),
		HabitID: habitID,
		UserID:  userID,
		Date:    progress.Day(date),
		Value:   value,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetDetails sets notes and mood; blank strings clear them.
func (e *HabitEntry) SetDetails(notes, mood string) {
	e.Notes = optional(notes)
	e.Mood = optional(mood)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (e *HabitEntry) Validate() error {
	if strings.TrimSpace(e.HabitID) == "" {
		return fmt.Errorf("%w: habit_id is required", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidEntry)
	}
	if e.Value < MinEntryValue || e.Value > MaxEntryValue {
		return ErrEntryValueRange
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEntry)
	}
	if e.Notes != nil && utf8.RuneCountInString(*e.Notes) > MaxNotesLen {
		return ErrEntryNotesTooLong
	}
	if e.Mood != nil && utf8.RuneCountInString(*e.Mood) > MaxMoodLen {
		return ErrEntryMoodTooLong
	}
	return nil
}

func (e *HabitEntry) IsCompleted() bool {
	return progress.IsCompleted(e.ToRecord())
}

func (e *HabitEntry) ToRecord() progress.Record {
	return progress.Record{
		Date:      e.Date,
		Value:     e.Value,
		Notes:     e.Notes,
		Mood:      e.Mood,
		UpdatedAt: e.UpdatedAt,
	}
}

// ToRecords converts entries for the progress engine, skipping deleted ones.
func ToRecords(entries []*HabitEntry) []progress.Record {
	out := make([]progress.Record, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.DeletedAt != nil {
			continue
		}
		out = append(out, e.ToRecord())
	}
	return out
}
