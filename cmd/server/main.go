// Package main runs every function behind one gin server for local
// development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/ai"
	"github.com/ecohunt/serverless-backend/internal/awsutil"
	"github.com/ecohunt/serverless-backend/internal/config"
	"github.com/ecohunt/serverless-backend/internal/logging"
	"github.com/ecohunt/serverless-backend/internal/server"
	"github.com/ecohunt/serverless-backend/internal/store"
	"github.com/ecohunt/serverless-backend/internal/submission"
	"github.com/ecohunt/serverless-backend/internal/uploads"
)

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func main() {
	env := config.MustLoad(config.ValidationKeys...)
	log := logging.New(env.LogLevel, false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, env)
	if err != nil {
		log.WithError(err).Fatal("server: open store")
	}
	defer st.Close()
	if s, ok := st.(schemaEnsurer); ok {
		if err := s.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("server: ensure schema")
		}
	}

	client := ai.NewClient(env.AIAPIKey, env.AIBaseURL, env.AIModel, env.AITimeout, log)
	h := &server.Handler{
		Validator: submission.NewService(client, st, log),
		Store:     st,
		DevBypass: env.DevBypassAuth,
		Log:       log,
	}
	if !env.DevBypassAuth {
		log.Warnf("server: %s is off, /uploads and /submissions will reject every caller", config.KeyDevBypassAuth)
	}
	if env.Bucket != "" {
		up, err := newUploads(ctx, env)
		if err != nil {
			log.WithError(err).Fatal("server: aws config")
		}
		h.Uploads = up
	} else {
		log.Infof("server: %s unset, uploads disabled", config.KeyBucket)
	}

	srv := &http.Server{
		Addr:              ":" + env.HTTPPort,
		Handler:           server.Setup(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": srv.Addr, "model": env.AIModel}).Info("server: listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server: listen")
	}
}

func newUploads(ctx context.Context, env config.Env) (*uploads.Service, error) {
	cfg, endpoint, err := awsutil.Load(ctx, env.Region)
	if err != nil {
		return nil, err
	}
	s3c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
		}
	})
	return &uploads.Service{
		Presigner: s3.NewPresignClient(s3c),
		Bucket:    env.Bucket,
		BaseURL:   env.VideoBaseURL,
		TTL:       env.PresignTTL,
		Now:       time.Now,
	}, nil
}
