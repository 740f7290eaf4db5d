// Package submission validates a recorded disposal video and scores it.
//
// Process is a single pass: check input, ask the AI provider for a verdict,
// write the submission row, and, only for approved verdicts, call the
// store's increment procedure. Nothing is retried here.
package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/metrics"
	"github.com/ecohunt/serverless-backend/internal/models"
	"github.com/ecohunt/serverless-backend/internal/validate"
)

// FailedFeedback is the only detail a failed validation reveals to callers.
const FailedFeedback = "validation failed"

var (
	// ErrInvalidRequest marks malformed input; nothing was called or written.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrValidation marks an AI provider failure; nothing was written.
	ErrValidation = errors.New("validation failed")
	// ErrPersist marks a failure writing the submission row.
	ErrPersist = errors.New("persist submission")
)

// Validator produces a verdict for a video.
type Validator interface {
	Validate(ctx context.Context, videoURL string) (models.Verdict, error)
}

// Recorder is the write side of the store.
type Recorder interface {
	InsertSubmission(ctx context.Context, s models.Submission) error
	IncrementPoints(ctx context.Context, userID string, delta int) error
}

// Service runs the pipeline.
type Service struct {
	ai    Validator
	store Recorder
	log   *logrus.Logger
	now   func() time.Time
	newID func() string
}

// NewService wires a Service.
func NewService(ai Validator, store Recorder, log *logrus.Logger) *Service {
	return &Service{
		ai:    ai,
		store: store,
		log:   log,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
}

// Check validates the request fields.
func Check(req api.ValidateRequest) error {
	if err := validate.VideoURL(req.VideoURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := validate.UserID(req.UserID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Process validates one recording for req.UserID.
//
// A points-increment failure does not fail the call: the submission is
// already durable, so the response still reports the points and the user's
// total may lag until the increment is reconciled.
func (s *Service) Process(ctx context.Context, req api.ValidateRequest) (api.ValidateResponse, error) {
	if err := Check(req); err != nil {
		return api.ValidateResponse{}, err
	}
	log := s.log.WithField("user_id", req.UserID)

	v, err := s.ai.Validate(ctx, req.VideoURL)
	if err != nil {
		return api.ValidateResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	sub := models.NewSubmission(s.newID(), req.UserID, req.VideoURL, v, s.now())
	if err := s.store.InsertSubmission(ctx, sub); err != nil {
		log.WithError(err).Error("insert submission")
		return api.ValidateResponse{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	metrics.SubmissionsTotal.WithLabelValues(string(sub.Status)).Inc()
	log = log.WithFields(logrus.Fields{"submission_id": sub.ID, "status": sub.Status, "points": sub.PointsEarned})

	if v.Valid {
		if err := s.store.IncrementPoints(ctx, req.UserID, v.Points); err != nil {
			metrics.IncrementFailures.Inc()
			log.WithError(err).Error("points update failed")
		} else {
			metrics.PointsAwarded.Add(float64(v.Points))
		}
	}
	log.Info("submission recorded")

	return Response(v), nil
}

// Response builds the reply for a verdict. The waste type is only reported
// for approved submissions.
func Response(v models.Verdict) api.ValidateResponse {
	r := api.ValidateResponse{
		Success:  v.Valid,
		Points:   v.Awarded(),
		Feedback: v.Feedback,
	}
	if v.Valid {
		r.WasteType = v.WasteType
	}
	return r
}

// Failure maps a Process error to an HTTP status and reply body. Input
// errors echo their reason; everything else is reported generically.
func Failure(err error) (int, api.ValidateResponse) {
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest, api.ValidateResponse{Feedback: err.Error()}
	}
	return http.StatusInternalServerError, api.ValidateResponse{Feedback: FailedFeedback}
}
