package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitDescTooLong   = errors.New("habit description is too long (max 500 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidColor       = errors.New("invalid color format (must be #RRGGBB)")
	ErrInvalidFrequency   = errors.New("invalid frequency (must be daily, weekly, or monthly)")
	ErrHabitArchived      = errors.New("cannot update an archived habit")
	ErrInvalidReminder    = errors.New("invalid reminder format (must be HH:MM 24h)")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
var reminderRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

const (
	HabitFreqDaily   = "daily"
	HabitFreqWeekly  = "weekly"
	HabitFreqMonthly = "monthly"
	DefaultIcon      = "default_icon"
	DefaultColor     = "#4CAF50"
	MaxTitleLen      = 100
	MaxDescLen       = 500
)

type Habit struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Color         string     `json:"color"`
	Icon          string     `json:"icon"`
	SortOrder     int        `json:"sort_order"`
	FrequencyType string     `json:"frequency_type"`
	ReminderTime  *string    `json:"reminder_time,omitempty"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

func validate(title, desc, color, frequency, reminder string) error {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return ErrHabitTitleEmpty
	}
	if len(trimmedTitle) > MaxTitleLen {
		return ErrHabitTitleTooLong
	}

	if len(strings.TrimSpace(desc)) > MaxDescLen {
		return ErrHabitDescTooLong
	}

	switch frequency {
	case HabitFreqDaily, HabitFreqWeekly, HabitFreqMonthly:
	default:
		return ErrInvalidFrequency
	}

	if reminder != "" && !reminderRegex.MatchString(reminder) {
		return ErrInvalidReminder
	}

	if color != "" && !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}

	return nil
}

// NewHabit creates a daily habit with default appearance.
func NewHabit(title, userID string) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	if err := validate(title, "", DefaultColor, HabitFreqDaily, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         strings.TrimSpace(title),
		Color:         DefaultColor,
		Icon:          DefaultIcon,
		FrequencyType: HabitFreqDaily,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Update replaces the editable fields. An empty frequency keeps daily, an
// empty reminder clears it. Version is left to the repository.
func (h *Habit) Update(title, description, color, icon, frequency, reminder string) error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	if frequency == "" {
		frequency = HabitFreqDaily
	}

	cleanDesc := strings.TrimSpace(description)
	if err := validate(title, cleanDesc, color, frequency, reminder); err != nil {
		return err
	}

	if icon == "" {
		icon = DefaultIcon
	}
	if color == "" {
		color = DefaultColor
	}

	var remPtr *string
	if reminder != "" {
		remPtr = &reminder
	}

	h.Title = strings.TrimSpace(title)
	h.Description = cleanDesc
	h.Color = color
	h.Icon = icon
	h.FrequencyType = frequency
	h.ReminderTime = remPtr
	h.UpdatedAt = time.Now().UTC()

	return nil
}

func (h *Habit) ChangePosition(newOrder int) error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	h.SortOrder = newOrder
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (h *Habit) Archive() {
	if h.ArchivedAt != nil {
		return
	}

	now := time.Now().UTC()
	h.ArchivedAt = &now
	h.UpdatedAt = now
}

func (h *Habit) Restore() {
	if h.ArchivedAt == nil {
		return
	}
	h.ArchivedAt = nil
	h.UpdatedAt = time.Now().UTC()
}

// UpdateStreak stores recomputed streaks and reports whether anything changed.
func (h *Habit) UpdateStreak(current, longest int) bool {
	if h.CurrentStreak == current && h.LongestStreak == longest {
		return false
	}
	h.CurrentStreak = current
	h.LongestStreak = longest
	h.UpdatedAt = time.Now().UTC()
	return true
}

func (h *Habit) IsActive() bool {
	return h.ArchivedAt == nil && h.DeletedAt == nil
}
