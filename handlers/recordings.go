package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invisibility-inc/echo-backend/pkg/logger"
)

// presignedURLTTL matches the upload window handed to desktop clients.
const presignedURLTTL = 3000 * time.Second

// ObjectStore presigns upload URLs for recording objects.
type ObjectStore interface {
	PresignedPutURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// SaveRecordingRequest identifies the recording segment being uploaded.
type SaveRecordingRequest struct {
	RecordingID         string `json:"recording_id" binding:"required"`
	SessionID           string `json:"session_id" binding:"required"`
	StartTimestampNanos int64  `json:"start_timestamp_nanos"`
	DurationMS          int64  `json:"duration_ms"`
}

// RecordingsHandler hands out presigned upload URLs for recordings.
type RecordingsHandler struct {
	store ObjectStore
}

func NewRecordingsHandler(store ObjectStore) *RecordingsHandler {
	return &RecordingsHandler{store: store}
}

// Register wires the recordings routes behind the auth middleware.
func (h *RecordingsHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	r.POST("/recordings/fetch_save_url", auth, h.FetchSaveURL)
}

// FetchSaveURL returns a presigned PUT URL for the recording object keyed by
// session id and segment start timestamp.
func (h *RecordingsHandler) FetchSaveURL(c *gin.Context) {
	var req SaveRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := fmt.Sprintf("%s/%d.mp4", req.SessionID, req.StartTimestampNanos)
	url, err := h.store.PresignedPutURL(c.Request.Context(), key, presignedURLTTL)
	if err != nil {
		logger.Errorf("presign failed for %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign upload url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
