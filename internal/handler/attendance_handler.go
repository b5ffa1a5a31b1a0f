package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	"github.com/futebagres/pelada-api/internal/service"
	"github.com/futebagres/pelada-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, actorID, eventID string, req dto.MarkAttendanceRequest) (*models.Attendance, bool, error)
	Unmark(ctx context.Context, actorID, eventID string, req dto.UnmarkAttendanceRequest) error
	List(ctx context.Context, userID string) (*dto.AttendanceList, error)
	Heatmap(ctx context.Context, userID, date string) (*dto.HeatmapResponse, error)
	Export(ctx context.Context, userID, format string) (*service.AttendanceExport, error)
}

// AttendanceHandler serves presence marking and the heatmap.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark a participant present
// @Description Owner only. Date defaults to today in the club timezone.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body dto.MarkAttendanceRequest true "Participant and date"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events/{id}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid attendance payload"))
		return
	}
	record, created, err := h.service.Mark(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(c, status, record, nil)
}

// Unmark godoc
// @Summary Remove a marked day
// @Tags Attendance
// @Accept json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body dto.UnmarkAttendanceRequest true "Participant and date"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/attendance [delete]
func (h *AttendanceHandler) Unmark(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req dto.UnmarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid attendance payload"))
		return
	}
	if err := h.service.Unmark(c.Request.Context(), userID, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary Own attendance dates
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Heatmap godoc
// @Summary 31-day attendance strip
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Centre day YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/heatmap [get]
func (h *AttendanceHandler) Heatmap(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	heatmap, err := h.service.Heatmap(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, heatmap, nil)
}

// Export godoc
// @Summary Download attendance history
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), userID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
