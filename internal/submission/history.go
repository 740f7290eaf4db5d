package submission

import (
	"context"
	"errors"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/models"
)

// HistoryLimit caps how many submissions History returns.
const HistoryLimit = 100

// Reader is the read side of the store.
type Reader interface {
	ListSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// History returns a user's profile and newest submissions. A user without a
// profile row yet has zero points.
func History(ctx context.Context, r Reader, userID string) (api.SubmissionsResponse, error) {
	p, err := r.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, models.ErrProfileNotFound):
		p = models.Profile{UserID: userID}
	case err != nil:
		return api.SubmissionsResponse{}, err
	}
	subs, err := r.ListSubmissions(ctx, userID, HistoryLimit)
	if err != nil {
		return api.SubmissionsResponse{}, err
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return api.SubmissionsResponse{Profile: p, Submissions: subs}, nil
}
