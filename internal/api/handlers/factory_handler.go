// internal/api/handlers/factory_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/api/middleware"
	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/logging"
)

// FactoryHandler serves the conversion sub-flow.
type FactoryHandler struct {
	Tickets *lifecycle.Service
	log     *slog.Logger
}

func NewFactoryHandler(tickets *lifecycle.Service) *FactoryHandler {
	return &FactoryHandler{Tickets: tickets, log: logging.New("factory")}
}

type FactoryAcceptRequest struct {
	DeliveryNote string `json:"deliveryNote"`
}

func (h *FactoryHandler) GetQueue(c *gin.Context) {
	list, err := h.Tickets.FactoryQueue(c.Request.Context(), middleware.Actor(c).ID)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve conversion queue", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FactoryHandler) Accept(c *gin.Context) {
	var req FactoryAcceptRequest
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	t, err := h.Tickets.FactoryAccept(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.DeliveryNote)
	if err != nil {
		respondError(c, h.log, "Failed to accept ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *FactoryHandler) Decline(c *gin.Context) {
	t, err := h.Tickets.FactoryDecline(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "Failed to decline ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *FactoryHandler) Convert(c *gin.Context) {
	t, err := h.Tickets.Convert(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "Failed to convert ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}
