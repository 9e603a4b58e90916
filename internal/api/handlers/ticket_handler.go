// internal/api/handlers/ticket_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/api/middleware"
	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/ticket"
)

// TicketHandler serves donor organizations and recipients.
type TicketHandler struct {
	Tickets *lifecycle.Service
	log     *slog.Logger
}

func NewTicketHandler(tickets *lifecycle.Service) *TicketHandler {
	return &TicketHandler{Tickets: tickets, log: logging.New("tickets")}
}

type CreateTicketRequest struct {
	FoodType           string    `json:"foodType" binding:"required"`
	Category           string    `json:"category" binding:"required,oneof=prepared produce bakery dairy meat other"`
	WeightKg           float64   `json:"weightKg" binding:"required,gt=0"`
	Pieces             int       `json:"pieces" binding:"min=0"`
	Notes              string    `json:"notes"`
	ExpiryDate         time.Time `json:"expiryDate" binding:"required"`
	PickupFrom         string    `json:"pickupFrom"`
	PickupTo           string    `json:"pickupTo"`
	DeliveryCapability string    `json:"deliveryCapability" binding:"required,oneof=factory-only self-delivery accepts-requests none"`
}

type SelectDeliveryMethodRequest struct {
	Method string  `json:"method" binding:"required,oneof=self-pickup organization-delivery third-party-shipping"`
	Fee    float64 `json:"fee" binding:"min=0"`
}

func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.Tickets.CreateTicket(c.Request.Context(), middleware.Actor(c), ticket.Draft{
		FoodType:   req.FoodType,
		Category:   models.Category(req.Category),
		WeightKg:   req.WeightKg,
		Pieces:     req.Pieces,
		Notes:      req.Notes,
		ExpiryDate: req.ExpiryDate,
		PickupFrom: req.PickupFrom,
		PickupTo:   req.PickupTo,
		Capability: models.DeliveryCapability(req.DeliveryCapability),
	})
	if err != nil {
		respondError(c, h.log, "Failed to create ticket", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GetMyTickets lists the caller organization's own tickets.
func (h *TicketHandler) GetMyTickets(c *gin.Context) {
	list, err := h.Tickets.PostedBy(c.Request.Context(), middleware.Actor(c).ID)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tickets", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TicketHandler) GetAvailableTickets(c *gin.Context) {
	list, err := h.Tickets.AvailableToRecipients(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tickets", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAcceptedTickets lists what the caller has claimed.
func (h *TicketHandler) GetAcceptedTickets(c *gin.Context) {
	list, err := h.Tickets.AcceptedBy(c.Request.Context(), middleware.Actor(c).ID)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tickets", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	t, err := h.Tickets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "Failed to retrieve ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) AcceptTicket(c *gin.Context) {
	t, err := h.Tickets.Accept(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "Failed to accept ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) DeclineTicket(c *gin.Context) {
	t, err := h.Tickets.Decline(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "Failed to decline ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) GetDeliveryMethods(c *gin.Context) {
	methods, err := h.Tickets.DeliveryMethods(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "Failed to retrieve delivery methods", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticketID": c.Param("id"), "methods": methods})
}

func (h *TicketHandler) SelectDeliveryMethod(c *gin.Context) {
	var req SelectDeliveryMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, t, err := h.Tickets.SelectDeliveryMethod(c.Request.Context(), middleware.Actor(c),
		c.Param("id"), models.DeliveryMethod(req.Method), req.Fee)
	if err != nil {
		respondError(c, h.log, "Failed to select delivery method", err)
		return
	}

	switch outcome {
	case ticket.DeliveryRequested:
		c.JSON(http.StatusAccepted, gin.H{"outcome": "requested", "message": "Delivery request sent to the organization", "ticket": t})
	case ticket.AlreadyRequested:
		c.JSON(http.StatusOK, gin.H{"outcome": "already_requested", "message": "Delivery request is already waiting for the organization", "ticket": t})
	default:
		c.JSON(http.StatusOK, gin.H{"outcome": "confirmed", "message": "Delivery method confirmed", "ticket": t})
	}
}
