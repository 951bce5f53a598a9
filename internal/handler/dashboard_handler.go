package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/service"
	"github.com/obratech/procurement-api/pkg/response"
)

// DashboardHandler exposes the request-count overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Fetch request counts by status
// @Tags dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
