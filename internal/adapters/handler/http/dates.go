package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

const (
	dateLayout   = "2006-01-02"
	maxRangeDays = 366
)

var errInvalidDateRange = errors.New("invalid date range")

// parseDateRange reads start_date and end_date (YYYY-MM-DD). A missing end
// is today; a missing start is defaultDays-1 days before the end. The
// inclusive window may span at most maxRangeDays days.
func parseDateRange(c *gin.Context, today time.Time, defaultDays int) (time.Time, time.Time, error) {
	end := progress.Day(today)
	if s := c.Query("end_date"); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", errInvalidDateRange)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -(defaultDays - 1))
	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", errInvalidDateRange)
		}
		start = parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date cannot be after end_date", errInvalidDateRange)
	}
	if progress.DaysBetween(start, end)+1 > maxRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: max %d days allowed", errInvalidDateRange, maxRangeDays)
	}

	return start, end, nil
}

// parseDay accepts YYYY-MM-DD or RFC3339.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC3339", errInvalidDateRange)
	}
	return t, nil
}
