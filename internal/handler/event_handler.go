package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	"github.com/futebagres/pelada-api/pkg/response"
)

type eventService interface {
	Preview(req dto.SchedulePreviewRequest) (*models.EventSchedule, error)
	Create(ctx context.Context, ownerID string, draft dto.EventDraft) (*models.Event, error)
	List(ctx context.Context, userID, search string) (*dto.EventLists, error)
	Get(ctx context.Context, userID, eventID string) (*models.Event, error)
	Join(ctx context.Context, userID string, req dto.JoinEventRequest) (*models.Event, error)
	Leave(ctx context.Context, userID, eventID string) error
	Occurrences(ctx context.Context, userID, eventID string, query dto.OccurrenceQuery) ([]models.Occurrence, bool, error)
}

type calendarFeed interface {
	Build(ctx context.Context, userID string) (string, error)
	BuildFromToken(ctx context.Context, token string) (string, error)
	SubscriptionLink(userID string) (*dto.CalendarLink, error)
}

// EventHandler exposes match scheduling endpoints.
type EventHandler struct {
	service eventService
	feed    calendarFeed
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService, feed calendarFeed) *EventHandler {
	return &EventHandler{service: svc, feed: feed}
}

// Preview godoc
// @Summary Preview end time and code
// @Description Computes the wrapped end time and a candidate join code without saving
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SchedulePreviewRequest true "Start time and duration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/schedule [post]
func (h *EventHandler) Preview(c *gin.Context) {
	var req dto.SchedulePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Preview(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.EventDraft true "Event form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	draft := dto.NewEventDraft()
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, bindError(err, "invalid event payload"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), userID, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// List godoc
// @Summary Owned and joined events
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param search query string false "Filter by title or code"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	lists, err := h.service.List(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lists, nil)
}

// Get godoc
// @Summary Event detail
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	event, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Join godoc
// @Summary Join event by code
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.JoinEventRequest true "Join code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/join [post]
func (h *EventHandler) Join(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req dto.JoinEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid join payload"))
		return
	}
	event, err := h.service.Join(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Leave godoc
// @Summary Leave event
// @Tags Events
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /events/{id}/participants/me [delete]
func (h *EventHandler) Leave(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.service.Leave(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Occurrences godoc
// @Summary Expand event dates
// @Description Lists concrete match instances between from and to (inclusive)
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param from query string false "YYYY-MM-DD, defaults to today"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/occurrences [get]
func (h *EventHandler) Occurrences(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var query dto.OccurrenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid occurrence query"))
		return
	}
	occurrences, truncated, err := h.service.Occurrences(c.Request.Context(), userID, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrences, nil, map[string]interface{}{
		"count":     len(occurrences),
		"truncated": truncated,
	})
}

// Calendar godoc
// @Summary iCalendar feed
// @Description Owned and joined events as text/calendar, recurring ones with an RRULE
// @Tags Events
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string
// @Router /events/calendar.ics [get]
func (h *EventHandler) Calendar(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	body, err := h.feed.Build(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// CalendarLink godoc
// @Summary Calendar subscription link
// @Description Issues a signed URL that calendar apps can poll without a bearer token
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /events/calendar/link [get]
func (h *EventHandler) CalendarLink(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	link, err := h.feed.SubscriptionLink(userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// SubscribedCalendar godoc
// @Summary Calendar feed by subscription token
// @Tags Events
// @Produce text/calendar
// @Param token path string true "Signed token with .ics suffix"
// @Success 200 {string} string
// @Failure 401 {object} response.Envelope
// @Router /calendar/{token} [get]
func (h *EventHandler) SubscribedCalendar(c *gin.Context) {
	body, err := h.feed.BuildFromToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
