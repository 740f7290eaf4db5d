// Package api contains types for the API requests and responses.
package api

import "github.com/ecohunt/serverless-backend/internal/models"

// ValidateRequest is the body accepted by the validation endpoint.
type ValidateRequest struct {
	VideoURL string `json:"videoUrl"`
	UserID   string `json:"userId"`
}

// ValidateResponse is returned by the validation endpoint for handled
// outcomes and failures alike.
type ValidateResponse struct {
	Success   bool   `json:"success"`
	Points    int    `json:"points"`
	Feedback  string `json:"feedback"`
	WasteType string `json:"wasteType,omitempty"`
}

// UploadRequest asks for a presigned upload URL for one recording.
type UploadRequest struct {
	ContentType  string `json:"content_type"`
	AutoValidate bool   `json:"auto_validate"`
}

// UploadResponse carries the presigned PUT and the public URL the
// validation endpoint will later receive.
type UploadResponse struct {
	Key           string            `json:"key"`
	UploadURL     string            `json:"upload_url"`
	VideoURL      string            `json:"video_url"`
	ExpiresIn     int               `json:"expires_in"`
	ContentType   string            `json:"content_type"`
	UploadHeaders map[string]string `json:"upload_headers"`
}

// SubmissionsResponse lists a user's submissions and current score.
type SubmissionsResponse struct {
	Profile     models.Profile      `json:"profile"`
	Submissions []models.Submission `json:"submissions"`
}

// Routes served by the dev server. The validate path matches the hosted
// function.
const (
	PathValidate    = "/functions/v1/validate-waste"
	PathUploads     = "/uploads"
	PathSubmissions = "/submissions"
)
