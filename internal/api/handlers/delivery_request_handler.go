// internal/api/handlers/delivery_request_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/api/middleware"
	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/projection"
)

// DeliveryRequestHandler lets a donor organization answer delivery requests.
type DeliveryRequestHandler struct {
	Tickets *lifecycle.Service
	Views   *projection.Views
	log     *slog.Logger
}

func NewDeliveryRequestHandler(tickets *lifecycle.Service, views *projection.Views) *DeliveryRequestHandler {
	return &DeliveryRequestHandler{Tickets: tickets, Views: views, log: logging.New("delivery-requests")}
}

// List returns the organization's delivery log, optionally filtered by ?status=.
func (h *DeliveryRequestHandler) List(c *gin.Context) {
	status := models.DeliveryRequestStatus(c.Query("status"))
	switch status {
	case "", models.DeliveryRequestPending, models.DeliveryRequestAccepted, models.DeliveryRequestDeclined:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	logs, err := h.Views.DeliveryLogs(c.Request.Context(), middleware.Actor(c).ID, status)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve delivery requests", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *DeliveryRequestHandler) Accept(c *gin.Context) { h.resolve(c, true) }

func (h *DeliveryRequestHandler) Reject(c *gin.Context) { h.resolve(c, false) }

func (h *DeliveryRequestHandler) resolve(c *gin.Context, approve bool) {
	t, err := h.Tickets.ResolveDeliveryRequest(c.Request.Context(), middleware.Actor(c), c.Param("ticketID"), approve)
	if err != nil {
		respondError(c, h.log, "Failed to answer delivery request", err)
		return
	}
	c.JSON(http.StatusOK, t)
}
