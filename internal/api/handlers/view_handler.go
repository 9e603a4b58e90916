// internal/api/handlers/view_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/api/middleware"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/projection"
)

// ViewHandler serves the read-only dashboards.
type ViewHandler struct {
	Views *projection.Views
	log   *slog.Logger
}

func NewViewHandler(views *projection.Views) *ViewHandler {
	return &ViewHandler{Views: views, log: logging.New("views")}
}

func (h *ViewHandler) GetAvailableOrganizations(c *gin.Context) {
	list, err := h.Views.AvailableOrganizations(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "Failed to retrieve organizations", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ViewHandler) GetNotifications(c *gin.Context) {
	list, err := h.Views.Notifications(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, h.log, "Failed to retrieve notifications", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ViewHandler) GetMyTracking(c *gin.Context) {
	list, err := h.Views.MealTracking(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tracking", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
