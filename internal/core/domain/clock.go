package domain

import (
	"time"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

// Clock decides which calendar day it is for the service.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: time.Now, loc: loc}
}

// FixedClock always reports t. Intended for tests and backfills.
func FixedClock(t time.Time) Clock {
	return Clock{now: func() time.Time { return t }, loc: t.Location()}
}

func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now().UTC()
}

// Today is the current calendar day in the clock's location, as UTC midnight.
func (c Clock) Today() time.Time {
	loc := c.loc
	if loc == nil {
		loc = time.UTC
	}
	return progress.Day(c.Now().In(loc))
}
