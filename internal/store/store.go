// Package store selects the persistence backend for submissions and profiles.
package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/ecohunt/serverless-backend/internal/awsutil"
	"github.com/ecohunt/serverless-backend/internal/config"
	"github.com/ecohunt/serverless-backend/internal/ddb"
	"github.com/ecohunt/serverless-backend/internal/models"
	"github.com/ecohunt/serverless-backend/internal/pg"
)

// Store persists submissions and applies point increments.
type Store interface {
	InsertSubmission(ctx context.Context, s models.Submission) error
	IncrementPoints(ctx context.Context, userID string, delta int) error
	ListSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	Close()
}

var (
	_ Store = (*pg.Repo)(nil)
	_ Store = (*ddb.Repo)(nil)
)

// Open picks a backend from the scheme of env.StoreURL:
//
//	postgres://host/db  Postgres; STORE_SERVICE_KEY is the password
//	dynamodb://table    DynamoDB; STORE_SERVICE_KEY is the secret paired
//	                    with STORE_ACCESS_KEY_ID, when that is set
func Open(ctx context.Context, env config.Env) (Store, error) {
	u, err := url.Parse(env.StoreURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		r, err := pg.Connect(ctx, env.StoreURL, env.StoreKey)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "dynamodb":
		if u.Host == "" {
			return nil, fmt.Errorf("store url %q names no table", env.StoreURL)
		}
		cfg, _, err := awsutil.LoadWithKey(ctx, env.Region, env.StoreKeyID, env.StoreKey)
		if err != nil {
			return nil, err
		}
		return &ddb.Repo{DB: dynamodb.NewFromConfig(cfg), Table: u.Host}, nil
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
