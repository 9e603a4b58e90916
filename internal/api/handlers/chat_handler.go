// internal/api/handlers/chat_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/dialog"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/models"
)

// ChatHandler answers the in-app assistant.
type ChatHandler struct {
	Dialog  *dialog.Bot
	Metrics *metrics.Metrics
}

type ChatRequest struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	Lang    string `json:"lang" binding:"omitempty,oneof=en ar"`
}

// Chat picks the reply node for a message. An empty or unknown role gets the guest flow.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply := h.Dialog.Select(models.Role(req.Role), req.Message)
	if h.Metrics != nil {
		h.Metrics.ChatReplies.WithLabelValues(string(reply.Role), reply.Key).Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"role":    reply.Role,
		"key":     reply.Key,
		"text":    reply.Text.In(req.Lang),
		"options": reply.Options,
	})
}
