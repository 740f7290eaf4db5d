package submission

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecohunt/serverless-backend/internal/ai"
	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/models"
)

type fakeAI struct {
	verdict models.Verdict
	err     error
	calls   int
}

func (f *fakeAI) Validate(context.Context, string) (models.Verdict, error) {
	f.calls++
	return f.verdict, f.err
}

type increment struct {
	userID string
	delta  int
}

type fakeStore struct {
	subs       []models.Submission
	increments []increment
	insertErr  error
	incErr     error
	profile    *models.Profile
}

func (f *fakeStore) InsertSubmission(_ context.Context, s models.Submission) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.subs = append(f.subs, s)
	return nil
}

func (f *fakeStore) IncrementPoints(_ context.Context, userID string, delta int) error {
	f.increments = append(f.increments, increment{userID, delta})
	return f.incErr
}

func (f *fakeStore) ListSubmissions(context.Context, string, int) ([]models.Submission, error) {
	return f.subs, nil
}

func (f *fakeStore) GetProfile(context.Context, string) (models.Profile, error) {
	if f.profile == nil {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return *f.profile, nil
}

func newTestService(a *fakeAI, s *fakeStore) *Service {
	l := logrus.New()
	l.SetOutput(io.Discard)
	svc := NewService(a, s, l)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "01TESTSUBMISSION" }
	return svc
}

var example = api.ValidateRequest{VideoURL: "https://store/u1/123.webm", UserID: "u1"}

func TestApprovedSubmission(t *testing.T) {
	a := &fakeAI{verdict: models.Verdict{Valid: true, WasteType: "plastic", Points: 10, Feedback: "Correctly sorted"}}
	s := &fakeStore{}

	resp, err := newTestService(a, s).Process(context.Background(), example)
	require.NoError(t, err)
	assert.Equal(t, api.ValidateResponse{Success: true, Points: 10, Feedback: "Correctly sorted", WasteType: "plastic"}, resp)

	require.Len(t, s.subs, 1)
	sub := s.subs[0]
	assert.Equal(t, models.StatusApproved, sub.Status)
	assert.Equal(t, 10, sub.PointsEarned)
	assert.Equal(t, "u1", sub.UserID)
	assert.Equal(t, "https://store/u1/123.webm", sub.VideoURL)
	assert.Equal(t, "plastic", sub.WasteType)
	assert.Equal(t, "Correctly sorted", sub.AIFeedback)
	assert.Equal(t, "01TESTSUBMISSION", sub.ID)

	assert.Equal(t, []increment{{"u1", 10}}, s.increments)
}

func TestRejectedSubmission(t *testing.T) {
	a := &fakeAI{verdict: models.Verdict{Valid: false, WasteType: "unknown", Points: 0, Feedback: "No disposal detected"}}
	s := &fakeStore{}

	resp, err := newTestService(a, s).Process(context.Background(), example)
	require.NoError(t, err)
	assert.Equal(t, api.ValidateResponse{Success: false, Points: 0, Feedback: "No disposal detected"}, resp)

	require.Len(t, s.subs, 1)
	assert.Equal(t, models.StatusRejected, s.subs[0].Status)
	assert.Equal(t, 0, s.subs[0].PointsEarned)
	assert.Empty(t, s.increments)
}

func TestRejectedIgnoresVerdictPoints(t *testing.T) {
	for _, pts := range []int{0, 1, 55, 100} {
		a := &fakeAI{verdict: models.Verdict{Valid: false, WasteType: "glass", Points: pts, Feedback: "wrong bin"}}
		s := &fakeStore{}

		resp, err := newTestService(a, s).Process(context.Background(), example)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Points)
		assert.Equal(t, 0, s.subs[0].PointsEarned)
		assert.Equal(t, models.StatusRejected, s.subs[0].Status)
		assert.Empty(t, s.increments)
	}
}

func TestApprovedIncrementsExactlyOnce(t *testing.T) {
	for _, pts := range []int{0, 7, 100} {
		a := &fakeAI{verdict: models.Verdict{Valid: true, WasteType: "paper", Points: pts, Feedback: "ok"}}
		s := &fakeStore{}

		_, err := newTestService(a, s).Process(context.Background(), example)
		require.NoError(t, err)
		assert.Equal(t, pts, s.subs[0].PointsEarned)
		assert.Equal(t, []increment{{"u1", pts}}, s.increments)
	}
}

func TestMalformedRequestTouchesNothing(t *testing.T) {
	for name, req := range map[string]api.ValidateRequest{
		"missing videoUrl": {UserID: "u1"},
		"missing userId":   {VideoURL: "https://store/u1/123.webm"},
		"relative url":     {VideoURL: "u1/123.webm", UserID: "u1"},
		"bad userId":       {VideoURL: "https://store/u1/123.webm", UserID: "../u2"},
	} {
		t.Run(name, func(t *testing.T) {
			a := &fakeAI{}
			s := &fakeStore{}
			_, err := newTestService(a, s).Process(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Zero(t, a.calls)
			assert.Empty(t, s.subs)
			assert.Empty(t, s.increments)

			status, body := Failure(err)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, body.Success)
		})
	}
}

func TestAIFailureWritesNothing(t *testing.T) {
	a := &fakeAI{err: ai.ErrNoToolCall}
	s := &fakeStore{}

	_, err := newTestService(a, s).Process(context.Background(), example)
	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ai.ErrNoToolCall)
	assert.Empty(t, s.subs)
	assert.Empty(t, s.increments)

	status, body := Failure(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, api.ValidateResponse{Success: false, Points: 0, Feedback: FailedFeedback}, body)
}

func TestPersistFailureFailsRequest(t *testing.T) {
	a := &fakeAI{verdict: models.Verdict{Valid: true, WasteType: "plastic", Points: 10, Feedback: "ok"}}
	s := &fakeStore{insertErr: errors.New("connection reset")}

	_, err := newTestService(a, s).Process(context.Background(), example)
	require.ErrorIs(t, err, ErrPersist)
	assert.Empty(t, s.increments)

	status, _ := Failure(err)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestIncrementFailureIsNotFatal(t *testing.T) {
	a := &fakeAI{verdict: models.Verdict{Valid: true, WasteType: "plastic", Points: 10, Feedback: "Correctly sorted"}}
	s := &fakeStore{incErr: errors.New("rpc timeout")}

	resp, err := newTestService(a, s).Process(context.Background(), example)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 10, resp.Points)
	assert.Len(t, s.subs, 1)
	assert.Len(t, s.increments, 1)
}

func TestHistory(t *testing.T) {
	s := &fakeStore{}
	got, err := History(context.Background(), s, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Profile.UserID)
	assert.Equal(t, 0, got.Profile.Points)
	assert.NotNil(t, got.Submissions)

	s.profile = &models.Profile{UserID: "u1", Username: "hunter", Points: 20}
	s.subs = []models.Submission{{ID: "a"}}
	got, err = History(context.Background(), s, "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, got.Profile.Points)
	assert.Len(t, got.Submissions, 1)
}
