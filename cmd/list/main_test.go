package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/config"
	"github.com/ecohunt/serverless-backend/internal/models"
)

type fakeReader struct {
	subs []models.Submission
	err  error
}

func (f fakeReader) ListSubmissions(context.Context, string, int) ([]models.Submission, error) {
	return f.subs, f.err
}

func (f fakeReader) GetProfile(_ context.Context, userID string) (models.Profile, error) {
	return models.Profile{UserID: userID, Username: "hunter", Points: 20}, nil
}

func newApp(r fakeReader) *App {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &App{env: config.Env{DevBypassAuth: true}, store: r, log: l}
}

func get(headers map[string]string) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{Headers: headers}
	req.RequestContext.HTTP.Method = http.MethodGet
	return req
}

func TestListRequiresUser(t *testing.T) {
	res, err := newApp(fakeReader{}).handler(context.Background(), get(nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestListReturnsHistory(t *testing.T) {
	r := fakeReader{subs: []models.Submission{{ID: "01A", UserID: "u1", Status: models.StatusApproved, PointsEarned: 10}}}
	res, err := newApp(r).handler(context.Background(), get(map[string]string{"x-user-sub": "u1"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body api.SubmissionsResponse
	require.NoError(t, json.Unmarshal([]byte(res.Body), &body))
	assert.Equal(t, 20, body.Profile.Points)
	require.Len(t, body.Submissions, 1)
	assert.Equal(t, 10, body.Submissions[0].PointsEarned)
}

func TestListStoreError(t *testing.T) {
	res, err := newApp(fakeReader{err: errors.New("timeout")}).handler(context.Background(), get(map[string]string{"x-user-sub": "u1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}
