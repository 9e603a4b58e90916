// internal/api/handlers/errors.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/ticket"
)

// AvailableListing is where clients go when a ticket they asked for is gone.
const AvailableListing = "/api/v1/tickets/available"

// statusOf maps domain and store errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ticket.ErrInvalidTicket):
		return http.StatusBadRequest
	case errors.Is(err, ticket.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ticket.ErrMethodNotOffered):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ticket.ErrInvalidTransition),
		errors.Is(err, ticket.ErrMethodAlreadySet),
		errors.Is(err, ticket.ErrRequestPending),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err in the standard error shape. Unexpected errors are
// logged and hidden behind msg.
func respondError(c *gin.Context, log *slog.Logger, msg string, err error) {
	status := statusOf(err)
	switch status {
	case http.StatusInternalServerError:
		log.Error(msg, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": msg})
	case http.StatusNotFound:
		c.JSON(status, gin.H{"error": err.Error(), "fallback": AvailableListing})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}
