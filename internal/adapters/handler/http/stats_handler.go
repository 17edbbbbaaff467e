package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/services"
)

const (
	defaultWeeklyDays = 7
	defaultStatsDays  = 30
)

type StatsHandler struct {
	svc   *services.StatsService
	clock domain.Clock
}

func NewStatsHandler(svc *services.StatsService, clock domain.Clock) *StatsHandler {
	return &StatsHandler{svc: svc, clock: clock}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/weekly", h.GetWeeklyStats)
	r.GET("/habits/:id/stats", h.GetHabitStatistics)
	r.GET("/habits/:id/calendar", h.GetCalendar)
}

func (h *StatsHandler) GetWeeklyStats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c, h.clock.Today(), defaultWeeklyDays)
	if err != nil {
		handleError(c, err)
		return
	}

	stats, err := h.svc.GetWeeklyStats(c.Request.Context(), domain.StatsInput{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetHabitStatistics(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c, h.clock.Today(), defaultStatsDays)
	if err != nil {
		handleError(c, err)
		return
	}

	stats, err := h.svc.GetHabitStatistics(c.Request.Context(), c.Param("id"), userID, start, end)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetCalendar(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c, h.clock.Today(), defaultStatsDays)
	if err != nil {
		handleError(c, err)
		return
	}

	days, err := h.svc.GetCalendar(c.Request.Context(), c.Param("id"), userID, start, end)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit_id":   c.Param("id"),
		"start_date": start.Format(dateLayout),
		"end_date":   end.Format(dateLayout),
		"days":       days,
	})
}
