// internal/api/handlers/donation_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

// DonationHandler records cash gifts. No payment is processed here.
type DonationHandler struct {
	Donations store.DonationRepository
	log       *slog.Logger
}

func NewDonationHandler(donations store.DonationRepository) *DonationHandler {
	return &DonationHandler{Donations: donations, log: logging.New("donations")}
}

type MoneyDonationRequest struct {
	DonorName string  `json:"donorName" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Currency  string  `json:"currency" binding:"omitempty,len=3"`
	Message   string  `json:"message"`
}

func (h *DonationHandler) CreateMoneyDonation(c *gin.Context) {
	var req MoneyDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	d := &models.MoneyDonation{
		ID:        models.NewID(models.PrefixDonation),
		DonorName: req.DonorName,
		Amount:    req.Amount,
		Currency:  currency,
		Message:   req.Message,
		Status:    "recorded",
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Donations.Insert(c.Request.Context(), d); err != nil {
		respondError(c, h.log, "Failed to record donation", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}
