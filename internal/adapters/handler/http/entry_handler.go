package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/services"
)

const defaultEntryRangeDays = 31

type EntryHandler struct {
	svc   *services.EntryService
	clock domain.Clock
}

func NewEntryHandler(svc *services.EntryService, clock domain.Clock) *EntryHandler {
	return &EntryHandler{
		svc:   svc,
		clock: clock,
	}
}

// Value has no required tag: zero is a valid progress value.
type createEntryRequest struct {
	HabitID string `json:"habit_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Value   int    `json:"value" binding:"min=0,max=100"`
	Notes   string `json:"notes" binding:"max=500"`
	Mood    string `json:"mood" binding:"max=50"`
}

type updateEntryRequest struct {
	Value   int    `json:"value" binding:"min=0,max=100"`
	Notes   string `json:"notes" binding:"max=500"`
	Mood    string `json:"mood" binding:"max=50"`
	Version int    `json:"version" binding:"required"`
}

func (h *EntryHandler) RegisterRoutes(router *gin.RouterGroup) {
	entries := router.Group("/entries")
	{
		entries.POST("", h.Create)
		entries.PUT("/progress", h.RecordProgress)
		entries.GET("", h.ListByHabit)
		entries.GET("/sync", h.Sync)
		entries.GET("/:id", h.Get)
		entries.PUT("/:id", h.Update)
		entries.DELETE("/:id", h.Delete)
	}
}

func (h *EntryHandler) bindCreate(c *gin.Context, userID string) (services.CreateEntryInput, bool) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return services.CreateEntryInput{}, false
	}

	date, err := parseDay(req.Date)
	if err != nil {
		handleError(c, err)
		return services.CreateEntryInput{}, false
	}

	return services.CreateEntryInput{
		HabitID: req.HabitID,
		UserID:  userID,
		Date:    date,
		Value:   req.Value,
		Notes:   req.Notes,
		Mood:    req.Mood,
	}, true
}

func (h *EntryHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	input, ok := h.bindCreate(c, userID)
	if !ok {
		return
	}

	entry, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// RecordProgress sets the progress of a day whether or not it was logged before.
func (h *EntryHandler) RecordProgress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	input, ok := h.bindCreate(c, userID)
	if !ok {
		return
	}

	entry, created, err := h.svc.RecordProgress(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, entry)
}

func (h *EntryHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	entry, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	entry, err := h.svc.Update(c.Request.Context(), services.UpdateEntryInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Value:   req.Value,
		Notes:   req.Notes,
		Mood:    req.Mood,
		Version: req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EntryHandler) ListByHabit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	habitID := c.Query("habit_id")
	if habitID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit_id is required"})
		return
	}

	to := h.clock.Today()
	from := to.AddDate(0, 0, -(defaultEntryRangeDays - 1))

	if s := c.Query("to"); s != "" {
		parsed, err := parseDay(s)
		if err != nil {
			handleError(c, err)
			return
		}
		to = parsed
	}
	if s := c.Query("from"); s != "" {
		parsed, err := parseDay(s)
		if err != nil {
			handleError(c, err)
			return
		}
		from = parsed
	}

	list, err := h.svc.ListByHabitID(c.Request.Context(), habitID, userID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *EntryHandler) Sync(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var since time.Time
	if s := c.Query("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (use RFC3339)"})
			return
		}
		since = parsed
	}

	changes, err := h.svc.GetDelta(c.Request.Context(), userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}
