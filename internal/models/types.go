// Package models defines the data models used in the application.
package models

import (
	"errors"
	"time"
)

// ErrProfileNotFound is returned by stores when a user has no profile row.
var ErrProfileNotFound = errors.New("profile not found")

// SubmissionStatus represents the outcome recorded for a submission.
type SubmissionStatus string

// Possible values for SubmissionStatus
const (
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// Submission is the durable record of one recording, written once whatever
// the verdict.
type Submission struct {
	// DynamoDB keys
	PK string `dynamodbav:"PK" db:"-" json:"-"` // USER#<id>
	SK string `dynamodbav:"SK" db:"-" json:"-"` // SUB#<ulid>

	ID           string           `dynamodbav:"id" db:"id" json:"id"`
	UserID       string           `dynamodbav:"user_id" db:"user_id" json:"user_id"`
	VideoURL     string           `dynamodbav:"video_url" db:"video_url" json:"video_url"`
	WasteType    string           `dynamodbav:"waste_type" db:"waste_type" json:"waste_type"`
	PointsEarned int              `dynamodbav:"points_earned" db:"points_earned" json:"points_earned"`
	Status       SubmissionStatus `dynamodbav:"status" db:"status" json:"status"`
	AIFeedback   string           `dynamodbav:"ai_feedback" db:"ai_feedback" json:"ai_feedback"`
	CreatedAt    time.Time        `dynamodbav:"created_at" db:"created_at" json:"created_at"`
}

// Profile is a user's running score.
type Profile struct {
	PK string `dynamodbav:"PK" db:"-" json:"-"`
	SK string `dynamodbav:"SK" db:"-" json:"-"`

	UserID   string `dynamodbav:"user_id" db:"id" json:"user_id"`
	Username string `dynamodbav:"username" db:"username" json:"username"`
	Points   int    `dynamodbav:"points" db:"points" json:"points"`
}

// Verdict is the AI provider's structured judgment of a video.
type Verdict struct {
	Valid     bool   `json:"valid"`
	WasteType string `json:"wasteType"`
	Points    int    `json:"points"`
	Feedback  string `json:"feedback"`
}

// Status maps the verdict onto a submission status.
func (v Verdict) Status() SubmissionStatus {
	if v.Valid {
		return StatusApproved
	}
	return StatusRejected
}

// Awarded is the number of points the verdict earns; zero when rejected.
func (v Verdict) Awarded() int {
	if v.Valid {
		return v.Points
	}
	return 0
}

// NewSubmission builds the submission row for a verdict.
func NewSubmission(id, userID, videoURL string, v Verdict, at time.Time) Submission {
	return Submission{
		ID:           id,
		UserID:       userID,
		VideoURL:     videoURL,
		WasteType:    v.WasteType,
		PointsEarned: v.Awarded(),
		Status:       v.Status(),
		AIFeedback:   v.Feedback,
		CreatedAt:    at.UTC(),
	}
}
