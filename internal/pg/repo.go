// Package pg stores submissions and profiles in Postgres.
package pg

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecohunt/serverless-backend/internal/models"
)

//go:embed schema.sql
var schema string

// DB is the subset of pgxpool.Pool used by Repo.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo wraps a Postgres connection pool.
type Repo struct {
	DB   DB
	pool *pgxpool.Pool
}

// Connect opens a pool for url. A non-empty key replaces the password in
// url, so the privileged credential can live apart from the address.
func Connect(ctx context.Context, url, key string) (*Repo, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	if key != "" {
		cfg.ConnConfig.Password = key
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repo{DB: pool, pool: pool}, nil
}

// EnsureSchema creates the tables and the increment function if missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, schema)
	return err
}

// Close releases the pool.
func (r *Repo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

const insertSubmission = `
INSERT INTO submissions (id, user_id, video_url, waste_type, points_earned, status, ai_feedback, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// InsertSubmission writes one submission row.
func (r *Repo) InsertSubmission(ctx context.Context, s models.Submission) error {
	_, err := r.DB.Exec(ctx, insertSubmission,
		s.ID, s.UserID, s.VideoURL, s.WasteType, s.PointsEarned, string(s.Status), s.AIFeedback, s.CreatedAt)
	return err
}

// IncrementPoints calls the store-side increment function, which adds delta
// atomically.
func (r *Repo) IncrementPoints(ctx context.Context, userID string, delta int) error {
	_, err := r.DB.Exec(ctx, `SELECT increment_user_points(user_id => $1, points_to_add => $2)`, userID, delta)
	return err
}

const listSubmissions = `
SELECT id, user_id, video_url, waste_type, points_earned, status, ai_feedback, created_at
FROM submissions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

// ListSubmissions returns the newest submissions of a user.
func (r *Repo) ListSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error) {
	rows, err := r.DB.Query(ctx, listSubmissions, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Submission])
}

// GetProfile reads a user's profile.
func (r *Repo) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	err := r.DB.QueryRow(ctx, `SELECT id, username, points FROM profiles WHERE id = $1`, userID).
		Scan(&p.UserID, &p.Username, &p.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return p, err
}
