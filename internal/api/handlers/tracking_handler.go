// internal/api/handlers/tracking_handler.go
package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/api/middleware"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/s3"
	"giving-hand-api-server/internal/store"
)

// maxProofSize caps a proof photo upload.
const maxProofSize = 10 << 20

// ProofUploader stores a proof photo and returns its public URL. *s3.Uploader implements it.
type ProofUploader interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
}

type TrackingHandler struct {
	Store    store.Store
	Uploader ProofUploader
	log      *slog.Logger
}

func NewTrackingHandler(st store.Store, uploader ProofUploader) *TrackingHandler {
	return &TrackingHandler{Store: st, Uploader: uploader, log: logging.New("tracking")}
}

// UploadProof attaches a delivery photo to a tracking record. Only the
// recipient, the donor organization or an admin may do so.
func (h *TrackingHandler) UploadProof(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage is not configured"})
		return
	}
	ctx := c.Request.Context()
	actor := middleware.Actor(c)

	rec, ok := h.record(c, actor)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxProofSize)
	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A photo file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	proof := &models.DeliveryProof{
		ID:         models.NewID(models.PrefixProof),
		TrackingID: rec.ID,
		TicketID:   rec.TicketID,
		UploadedBy: actor.ID,
		CreatedAt:  time.Now().UTC(),
	}
	url, err := h.Uploader.UploadFile(ctx, file, s3.ProofKey(rec.ID, proof.ID, header.Filename), header.Header.Get("Content-Type"))
	if err != nil {
		h.log.Error("upload proof", "tracking", rec.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upload photo"})
		return
	}
	proof.PhotoURL = url

	err = h.Store.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Proofs().Insert(ctx, proof); err != nil {
			return err
		}
		return tx.Tracking().AttachProof(ctx, rec.ID, url, proof.CreatedAt)
	})
	if err != nil {
		respondError(c, h.log, "Failed to save proof", err)
		return
	}
	c.JSON(http.StatusCreated, proof)
}

// GetProofs lists the photos of one tracking record to the same parties
// that may upload them.
func (h *TrackingHandler) GetProofs(c *gin.Context) {
	rec, ok := h.record(c, middleware.Actor(c))
	if !ok {
		return
	}
	list, err := h.Store.Proofs().ListByTracking(c.Request.Context(), rec.ID)
	if err != nil {
		respondError(c, h.log, "Failed to retrieve proofs", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// record loads the tracking record named in the path and writes the error
// response when actor is not a party to it.
func (h *TrackingHandler) record(c *gin.Context, actor models.Actor) (*models.TrackingRecord, bool) {
	rec, err := h.Store.Tracking().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "Failed to retrieve tracking record", err)
		return nil, false
	}
	if actor.Role != models.RoleAdmin && actor.ID != rec.RecipientID && actor.ID != rec.OrganizationID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
		return nil, false
	}
	return rec, true
}
