// Package main issues presigned S3 URLs for uploading a recorded clip.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/authz"
	"github.com/ecohunt/serverless-backend/internal/awsutil"
	"github.com/ecohunt/serverless-backend/internal/config"
	"github.com/ecohunt/serverless-backend/internal/httpx"
	"github.com/ecohunt/serverless-backend/internal/logging"
	"github.com/ecohunt/serverless-backend/internal/uploads"
)

// Uploader creates presigned uploads.
type Uploader interface {
	Create(ctx context.Context, userID string, req api.UploadRequest) (api.UploadResponse, error)
}

// App holds the application state, including configuration and AWS clients.
type App struct {
	env     config.Env
	uploads Uploader
	log     *logrus.Logger
}

func main() {
	env := config.MustLoad(config.KeyBucket)
	log := logging.New(env.LogLevel, true)
	cfg, endpoint, err := awsutil.Load(context.Background(), env.Region)
	if err != nil {
		log.WithError(err).Fatal("presign: aws config")
	}

	// S3 client: use path-style when hitting LocalStack
	s3c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
		}
	})

	app := &App{
		env: env,
		uploads: &uploads.Service{
			Presigner: s3.NewPresignClient(s3c),
			Bucket:    env.Bucket,
			BaseURL:   env.VideoBaseURL,
			TTL:       env.PresignTTL,
			Now:       time.Now,
		},
		log: log,
	}
	lambda.Start(app.handler)
}

// handler processes the incoming API Gateway request to generate a presigned S3 URL.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method == http.MethodOptions {
		return httpx.Preflight()
	}
	sub, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "missing user")
	}

	var body api.UploadRequest
	if req.Body != "" {
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			return httpx.Error(http.StatusBadRequest, "invalid json")
		}
	}

	res, err := a.uploads.Create(ctx, sub, body)
	switch {
	case errors.Is(err, uploads.ErrBadRequest):
		return httpx.Error(http.StatusBadRequest, err.Error())
	case err != nil:
		a.log.WithError(err).WithField("user_id", sub).Error("presign error")
		return httpx.Error(http.StatusInternalServerError, "presign error")
	}
	return httpx.JSON(http.StatusOK, res)
}
