// Package uploads issues presigned object-storage PUTs for recordings.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/s3io"
	"github.com/ecohunt/serverless-backend/internal/validate"
)

// ErrBadRequest marks input the caller must fix.
var ErrBadRequest = errors.New("bad upload request")

// Service presigns uploads into one bucket.
type Service struct {
	Presigner s3io.Presigner
	Bucket    string
	BaseURL   string // public base URL of the bucket
	TTL       time.Duration
	Now       func() time.Time
}

// Create returns a presigned PUT for a new recording of userID. The key is
// {userID}/{unixMillis}.{webm|mp4}.
func (s *Service) Create(ctx context.Context, userID string, req api.UploadRequest) (api.UploadResponse, error) {
	if req.ContentType == "" {
		req.ContentType = s3io.ContentTypeWebM
	}
	if err := validate.UserID(userID); err != nil {
		return api.UploadResponse{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	ext, err := validate.VideoContentType(req.ContentType)
	if err != nil {
		return api.UploadResponse{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	key := s3io.BuildKey(userID, now(), ext)
	meta := map[string]string{
		s3io.MetaUserID:       userID,
		s3io.MetaAutoValidate: strconv.FormatBool(req.AutoValidate),
	}
	url, ttl, err := s3io.PresignPut(ctx, s.Presigner, s.Bucket, key, req.ContentType, meta, s.TTL)
	if err != nil {
		return api.UploadResponse{}, fmt.Errorf("presign %s: %w", key, err)
	}

	return api.UploadResponse{
		Key:           key,
		UploadURL:     url,
		VideoURL:      s3io.PublicURL(s.BaseURL, key),
		ExpiresIn:     int(ttl.Seconds()),
		ContentType:   req.ContentType,
		UploadHeaders: s3io.UploadHeaders(userID, req.ContentType, req.AutoValidate),
	}, nil
}
