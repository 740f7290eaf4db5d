package pg

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecohunt/serverless-backend/internal/models"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs   []execCall
	queries []execCall
	row     pgx.Row
	rows    pgx.Rows
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql, args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, execCall{sql, args})
	return f.rows, nil
}

// fakeRows serves in-memory rows by column name.
type fakeRows struct {
	cols   []string
	data   [][]any
	i      int
	closed bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		out[i] = pgconn.FieldDescription{Name: c}
	}
	return out
}

func (r *fakeRows) Next() bool {
	if r.i < len(r.data) {
		r.i++
		return true
	}
	r.Close()
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	for j, d := range dest {
		elem := reflect.ValueOf(d).Elem()
		elem.Set(reflect.ValueOf(row[j]).Convert(elem.Type()))
	}
	return nil
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.i-1], nil }

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return f.row }

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type profileRow struct{ p models.Profile }

func (r profileRow) Scan(dest ...any) error {
	*dest[0].(*string) = r.p.UserID
	*dest[1].(*string) = r.p.Username
	*dest[2].(*int) = r.p.Points
	return nil
}

func TestInsertSubmission(t *testing.T) {
	db := &fakeDB{}
	r := &Repo{DB: db}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := models.NewSubmission("01J", "u1", "https://store/u1/1.webm",
		models.Verdict{Valid: true, WasteType: "plastic", Points: 10, Feedback: "Correctly sorted"}, at)

	require.NoError(t, r.InsertSubmission(context.Background(), s))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "INSERT INTO submissions")
	assert.Equal(t, []any{"01J", "u1", "https://store/u1/1.webm", "plastic", 10, "approved", "Correctly sorted", at}, db.execs[0].args)
}

func TestIncrementPointsCallsFunction(t *testing.T) {
	db := &fakeDB{}
	r := &Repo{DB: db}

	require.NoError(t, r.IncrementPoints(context.Background(), "u1", 10))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "increment_user_points")
	assert.Equal(t, []any{"u1", 10}, db.execs[0].args)
}

func TestGetProfile(t *testing.T) {
	r := &Repo{DB: &fakeDB{row: profileRow{models.Profile{UserID: "u1", Username: "hunter", Points: 20}}}}
	p, err := r.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, p.Points)

	r = &Repo{DB: &fakeDB{row: errRow{pgx.ErrNoRows}}}
	_, err = r.GetProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)
}

func TestListSubmissionsNewestFirst(t *testing.T) {
	newer := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	rows := &fakeRows{
		cols: []string{"id", "user_id", "video_url", "waste_type", "points_earned", "status", "ai_feedback", "created_at"},
		data: [][]any{
			{"02", "u1", "https://store/u1/2.webm", "plastic", 10, "approved", "Correctly sorted", newer},
			{"01", "u1", "https://store/u1/1.webm", "glass", 0, "rejected", "Wrong bin", older},
		},
	}
	db := &fakeDB{rows: rows}
	r := &Repo{DB: db}

	subs, err := r.ListSubmissions(context.Background(), "u1", 100)
	require.NoError(t, err)
	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0].sql, "ORDER BY created_at DESC")
	assert.Contains(t, db.queries[0].sql, "LIMIT $2")
	assert.Equal(t, []any{"u1", 100}, db.queries[0].args)
	assert.True(t, rows.closed)

	require.Len(t, subs, 2)
	assert.Equal(t, models.Submission{
		ID: "02", UserID: "u1", VideoURL: "https://store/u1/2.webm", WasteType: "plastic",
		PointsEarned: 10, Status: models.StatusApproved, AIFeedback: "Correctly sorted", CreatedAt: newer,
	}, subs[0])
	assert.Equal(t, models.StatusRejected, subs[1].Status)
	assert.Zero(t, subs[1].PointsEarned)
	assert.Empty(t, subs[0].PK)
}

func TestSchemaDefinesIncrement(t *testing.T) {
	assert.Contains(t, schema, "CREATE OR REPLACE FUNCTION increment_user_points")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS submissions")
}
