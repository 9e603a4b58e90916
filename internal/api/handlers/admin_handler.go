// internal/api/handlers/admin_handler.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/export"
	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

type AdminHandler struct {
	Store   store.Store
	Tickets *lifecycle.Service
	log     *slog.Logger
}

func NewAdminHandler(st store.Store, tickets *lifecycle.Service) *AdminHandler {
	return &AdminHandler{Store: st, Tickets: tickets, log: logging.New("admin")}
}

type UpdateTrackingRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in-transit delivered cancelled"`
}

// GetTickets lists every ticket, optionally only those with ?status=.
func (h *AdminHandler) GetTickets(c *gin.Context) {
	var status models.TicketStatus
	if s := c.Query("status"); s != "" {
		var err error
		if status, err = models.AsTicketStatus(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	list, err := h.Tickets.All(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tickets", err)
		return
	}
	if status != "" {
		filtered := make([]models.FoodTicket, 0, len(list))
		for _, t := range list {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) trackingFilter(c *gin.Context) (store.TrackingFilter, bool) {
	f := store.TrackingFilter{
		TicketID:       c.Query("ticketID"),
		OrganizationID: c.Query("organizationID"),
	}
	if s := c.Query("status"); s != "" {
		status, err := models.AsTrackingStatus(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return f, false
		}
		f.Status = status
	}
	return f, true
}

func (h *AdminHandler) GetTracking(c *gin.Context) {
	f, ok := h.trackingFilter(c)
	if !ok {
		return
	}
	list, err := h.Store.Tracking().List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tracking", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateTracking sets the status of one tracking record.
func (h *AdminHandler) UpdateTracking(c *gin.Context) {
	var req UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := h.Store.Tracking().UpdateStatus(ctx, id, models.TrackingStatus(req.Status), time.Now().UTC()); err != nil {
		respondError(c, h.log, "Failed to update tracking", err)
		return
	}
	rec, err := h.Store.Tracking().Get(ctx, id)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tracking record", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ExportTracking downloads the filtered tracking log as an xlsx workbook.
func (h *AdminHandler) ExportTracking(c *gin.Context) {
	f, ok := h.trackingFilter(c)
	if !ok {
		return
	}
	list, err := h.Store.Tracking().List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tracking", err)
		return
	}

	filename := fmt.Sprintf("meal-tracking-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	if err := export.WriteTracking(c.Writer, list); err != nil {
		h.log.Error("write tracking export", "error", err)
	}
}

func (h *AdminHandler) GetDonations(c *gin.Context) {
	list, err := h.Store.Donations().List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "Failed to retrieve donations", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetUsers lists accounts, optionally only one ?role=.
func (h *AdminHandler) GetUsers(c *gin.Context) {
	var role models.Role
	if s := c.Query("role"); s != "" {
		var err error
		if role, err = models.AsRole(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	list, err := h.Store.Users().List(c.Request.Context(), role)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve users", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// RunSweep expires overdue tickets now instead of waiting for the next tick.
func (h *AdminHandler) RunSweep(c *gin.Context) {
	n, err := h.Tickets.ExpireOverdue(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "Failed to expire tickets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "expired": n})
}
