// Package main validates uploads on S3 PUT for clients that opted into
// server-side validation (auto_validate metadata).
package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/ai"
	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/awsutil"
	"github.com/ecohunt/serverless-backend/internal/config"
	"github.com/ecohunt/serverless-backend/internal/logging"
	"github.com/ecohunt/serverless-backend/internal/s3io"
	"github.com/ecohunt/serverless-backend/internal/store"
	"github.com/ecohunt/serverless-backend/internal/submission"
)

// Processor runs the validation pipeline.
type Processor interface {
	Process(ctx context.Context, req api.ValidateRequest) (api.ValidateResponse, error)
}

// App holds the application state, including configuration and AWS clients.
type App struct {
	env config.Env
	s3c s3io.Header
	svc Processor
	log *logrus.Logger
}

// main initializes the app and starts the Lambda handler.
func main() {
	env := config.MustLoad(append([]string{config.KeyBucket}, config.ValidationKeys...)...)
	log := logging.New(env.LogLevel, true)
	ctx := context.Background()

	cfg, endpoint, err := awsutil.Load(ctx, env.Region)
	if err != nil {
		log.WithError(err).Fatal("indexer: aws config")
	}
	s3c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true // localstack/dev friendliness
		}
	})
	st, err := store.Open(ctx, env)
	if err != nil {
		log.WithError(err).Fatal("indexer: open store")
	}

	app := &App{
		env: env,
		s3c: s3c,
		svc: submission.NewService(ai.NewClient(env.AIAPIKey, env.AIBaseURL, env.AIModel, env.AITimeout, log), st, log),
		log: log,
	}
	lambda.Start(app.handler)
}

// ---- Handler ----

// handler processes S3 event records. A failing record never fails the batch.
func (a *App) handler(ctx context.Context, ev events.S3Event) (any, error) {
	for _, rec := range ev.Records {
		if err := a.processS3Record(ctx, rec); err != nil {
			a.log.WithError(err).WithField("key", rec.S3.Object.Key).Error("indexer: process error")
		}
	}
	return nil, nil
}

// processS3Record validates a single uploaded object.
func (a *App) processS3Record(ctx context.Context, record events.S3EventRecord) error {
	bucket := record.S3.Bucket.Name
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return fmt.Errorf("unescape key: %w", err)
	}

	meta, err := s3io.Head(ctx, a.s3c, bucket, key)
	if err != nil {
		return fmt.Errorf("head %s: %w", key, err)
	}
	if !meta.AutoValidate() {
		a.log.WithField("key", key).Debug("indexer: auto_validate off, skipping")
		return nil
	}
	if meta.ContentType != "" && !strings.HasPrefix(meta.ContentType, "video/") {
		a.log.WithFields(logrus.Fields{"key": key, "content_type": meta.ContentType}).Warn("indexer: unexpected content-type")
	}

	// Prefer metadata-sourced ids; fall back to path parsing.
	userID := strings.TrimSpace(meta.Meta[s3io.MetaUserID])
	if userID == "" {
		u, _, ok := s3io.ParseKey(key)
		if !ok {
			return fmt.Errorf("bad key %q", key)
		}
		userID = u
	}

	resp, err := a.svc.Process(ctx, api.ValidateRequest{
		VideoURL: s3io.PublicURL(a.env.VideoBaseURL, key),
		UserID:   userID,
	})
	if err != nil {
		return fmt.Errorf("validate %s: %w", key, err)
	}

	a.log.WithFields(logrus.Fields{
		"key":        key,
		"user_id":    userID,
		"success":    resp.Success,
		"points":     resp.Points,
		"size_bytes": meta.Size,
		"etag":       meta.ETag,
	}).Info("indexer: validated upload")
	return nil
}
