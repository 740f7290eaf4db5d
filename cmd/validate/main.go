// Package main is the validate-waste function: it asks the AI provider for a
// verdict on an uploaded video, records the submission and awards points.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/ai"
	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/config"
	"github.com/ecohunt/serverless-backend/internal/httpx"
	"github.com/ecohunt/serverless-backend/internal/logging"
	"github.com/ecohunt/serverless-backend/internal/store"
	"github.com/ecohunt/serverless-backend/internal/submission"
)

// Processor runs the validation pipeline.
type Processor interface {
	Process(ctx context.Context, req api.ValidateRequest) (api.ValidateResponse, error)
}

// App holds the pipeline, or the reason it cannot be built. A missing
// configuration value is reported on every request instead of crashing the
// cold start, so pre-flight requests still succeed. A pipeline that failed
// to build, for example because the store was unreachable, is rebuilt on
// the next request.
type App struct {
	initErr error
	log     *logrus.Logger

	mu    sync.Mutex
	svc   Processor
	build func(ctx context.Context) (Processor, error)
}

func main() {
	env, err := config.Load(config.ValidationKeys...)
	log := logging.New(env.LogLevel, true)
	app := &App{log: log, initErr: err}
	if err != nil {
		log.WithError(err).Error("validate: not configured")
	} else {
		app.build = func(ctx context.Context) (Processor, error) {
			svc, err := build(ctx, env, log)
			if err != nil {
				return nil, err
			}
			return svc, nil
		}
		if _, err := app.service(context.Background()); err != nil {
			log.WithError(err).Warn("validate: pipeline unavailable, retrying on next request")
		}
	}
	lambda.Start(app.handler)
}

// service returns the pipeline, building it if an earlier attempt failed.
func (a *App) service(ctx context.Context) (Processor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.svc != nil {
		return a.svc, nil
	}
	if a.build == nil {
		return nil, errors.New("validate: no pipeline")
	}
	svc, err := a.build(ctx)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

func build(ctx context.Context, env config.Env, log *logrus.Logger) (*submission.Service, error) {
	st, err := store.Open(ctx, env)
	if err != nil {
		return nil, err
	}
	client := ai.NewClient(env.AIAPIKey, env.AIBaseURL, env.AIModel, env.AITimeout, log)
	return submission.NewService(client, st, log), nil
}

// handler processes one API Gateway request.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method == http.MethodOptions {
		return httpx.Preflight()
	}
	if a.initErr != nil {
		a.log.WithError(a.initErr).Error("validate: configuration error")
		return httpx.JSON(http.StatusInternalServerError, api.ValidateResponse{Feedback: submission.FailedFeedback})
	}

	svc, err := a.service(ctx)
	if err != nil {
		a.log.WithError(err).Error("validate: pipeline unavailable")
		return httpx.JSON(http.StatusInternalServerError, api.ValidateResponse{Feedback: submission.FailedFeedback})
	}

	body, err := decodeBody(req)
	if err != nil {
		return httpx.JSON(http.StatusBadRequest, api.ValidateResponse{Feedback: "invalid json"})
	}

	resp, err := svc.Process(ctx, body)
	if err != nil {
		status, failure := submission.Failure(err)
		if status >= http.StatusInternalServerError {
			a.log.WithError(err).Error("validate: request failed")
		}
		return httpx.JSON(status, failure)
	}
	return httpx.JSON(http.StatusOK, resp)
}

// decodeBody parses the JSON body, which API Gateway may base64-encode.
func decodeBody(req events.APIGatewayV2HTTPRequest) (api.ValidateRequest, error) {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return api.ValidateRequest{}, err
		}
		raw = b
	}
	var body api.ValidateRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return api.ValidateRequest{}, err
	}
	return body, nil
}
