package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/futebagres/pelada-api/internal/dto"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
	"github.com/futebagres/pelada-api/pkg/response"
)

type dashboardService interface {
	Get(ctx context.Context, userID, search string) (*dto.DashboardView, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Home screen
// @Description Owned and joined events plus the attendance heatmap. meta.cache_hit reports a cached view.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param search query string false "Filter events by title or code"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	view, cacheHit, err := h.service.Get(c.Request.Context(), userID, strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil, withCacheMeta(c, cacheHit))
}
