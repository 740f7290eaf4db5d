package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/authz"
	"github.com/ecohunt/serverless-backend/internal/submission"
	"github.com/ecohunt/serverless-backend/internal/uploads"
)

// Processor runs the validation pipeline.
type Processor interface {
	Process(ctx context.Context, req api.ValidateRequest) (api.ValidateResponse, error)
}

// Uploader creates presigned uploads.
type Uploader interface {
	Create(ctx context.Context, userID string, req api.UploadRequest) (api.UploadResponse, error)
}

// Handler serves the EcoHunt endpoints. Uploads may be nil when no bucket is
// configured.
type Handler struct {
	Validator Processor
	Uploads   Uploader
	Store     submission.Reader
	DevBypass bool
	Log       *logrus.Logger
}

// Validate handles POST /functions/v1/validate-waste.
func (h *Handler) Validate(c *gin.Context) {
	var req api.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ValidateResponse{Feedback: "invalid json"})
		return
	}

	resp, err := h.Validator.Process(c.Request.Context(), req)
	if err != nil {
		status, failure := submission.Failure(err)
		if status >= http.StatusInternalServerError {
			h.Log.WithError(err).Error("validate: request failed")
		}
		c.JSON(status, failure)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateUpload handles POST /uploads.
func (h *Handler) CreateUpload(c *gin.Context) {
	if h.Uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads not configured"})
		return
	}
	sub, err := authz.FromHeader(c.Request.Header, h.DevBypass)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	var req api.UploadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	res, err := h.Uploads.Create(c.Request.Context(), sub, req)
	switch {
	case errors.Is(err, uploads.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.Log.WithError(err).WithField("user_id", sub).Error("presign error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign error"})
	default:
		c.JSON(http.StatusOK, res)
	}
}

// ListSubmissions handles GET /submissions.
func (h *Handler) ListSubmissions(c *gin.Context) {
	sub, err := authz.FromHeader(c.Request.Header, h.DevBypass)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}
	res, err := submission.History(c.Request.Context(), h.Store, sub)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", sub).Error("list error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, res)
}
