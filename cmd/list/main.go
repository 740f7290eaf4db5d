// Package main lists the current user's submissions and points.
package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/authz"
	"github.com/ecohunt/serverless-backend/internal/config"
	"github.com/ecohunt/serverless-backend/internal/httpx"
	"github.com/ecohunt/serverless-backend/internal/logging"
	"github.com/ecohunt/serverless-backend/internal/store"
	"github.com/ecohunt/serverless-backend/internal/submission"
)

// App holds the application state, including configuration and the store.
type App struct {
	env   config.Env
	store submission.Reader
	log   *logrus.Logger
}

// handler processes the incoming request to list submissions for the authenticated user.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method == http.MethodOptions {
		return httpx.Preflight()
	}
	sub, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "missing user")
	}
	res, err := submission.History(ctx, a.store, sub)
	if err != nil {
		a.log.WithError(err).WithField("user_id", sub).Error("list error")
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	return httpx.JSON(http.StatusOK, res)
}

// main initializes the application and starts the Lambda handler.
func main() {
	env := config.MustLoad(config.KeyStoreURL, config.KeyStoreKey)
	log := logging.New(env.LogLevel, true)
	st, err := store.Open(context.Background(), env)
	if err != nil {
		log.WithError(err).Fatal("list: open store")
	}
	app := &App{env: env, store: st, log: log}
	lambda.Start(app.handler)
}
