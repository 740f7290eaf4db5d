// Package client talks to the EcoHunt HTTP endpoints: it uploads a recorded
// clip through a presigned URL and asks for it to be validated.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/authz"
	"github.com/ecohunt/serverless-backend/internal/capture"
)

// ErrStatus wraps non-2xx responses.
var ErrStatus = errors.New("client: unexpected status")

// Client is safe for concurrent use once configured.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Token is sent as a bearer token. Without it UserID is sent in the
	// dev bypass header, which only a dev deployment honours.
	Token  string
	UserID string
	Log    logrus.FieldLogger
}

// New builds a Client with a default timeout. An empty userID is taken from
// the token's sub claim.
func New(baseURL, userID, token string, log logrus.FieldLogger) *Client {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if userID == "" && token != "" {
		userID = authz.BearerSubject(token)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
		Token:   token,
		UserID:  userID,
		Log:     log,
	}
}

var _ capture.Submitter = (*Client)(nil)

// Submit uploads v and validates it. Non-2xx answers from the validation
// endpoint still return the decoded body alongside an ErrStatus error.
func (c *Client) Submit(ctx context.Context, v capture.Video) (api.ValidateResponse, error) {
	up, err := c.CreateUpload(ctx, api.UploadRequest{ContentType: v.ContentType})
	if err != nil {
		return api.ValidateResponse{}, err
	}
	if err := c.put(ctx, up, v.Data); err != nil {
		return api.ValidateResponse{}, err
	}
	c.Log.WithFields(logrus.Fields{"key": up.Key, "bytes": len(v.Data)}).Debug("clip uploaded")
	return c.Validate(ctx, up.VideoURL)
}

// CreateUpload requests a presigned upload.
func (c *Client) CreateUpload(ctx context.Context, req api.UploadRequest) (api.UploadResponse, error) {
	var out api.UploadResponse
	code, err := c.doJSON(ctx, http.MethodPost, api.PathUploads, req, &out)
	if err != nil {
		return out, err
	}
	if code != http.StatusOK {
		return out, fmt.Errorf("%w: create upload: %d", ErrStatus, code)
	}
	return out, nil
}

// Validate asks the validation endpoint to judge videoURL.
func (c *Client) Validate(ctx context.Context, videoURL string) (api.ValidateResponse, error) {
	var out api.ValidateResponse
	code, err := c.doJSON(ctx, http.MethodPost, api.PathValidate, api.ValidateRequest{VideoURL: videoURL, UserID: c.UserID}, &out)
	if err != nil {
		return out, err
	}
	if code != http.StatusOK {
		return out, fmt.Errorf("%w: validate: %d: %s", ErrStatus, code, out.Feedback)
	}
	return out, nil
}

// History fetches the caller's submissions and score.
func (c *Client) History(ctx context.Context) (api.SubmissionsResponse, error) {
	var out api.SubmissionsResponse
	code, err := c.doJSON(ctx, http.MethodGet, api.PathSubmissions, nil, &out)
	if err != nil {
		return out, err
	}
	if code != http.StatusOK {
		return out, fmt.Errorf("%w: submissions: %d", ErrStatus, code)
	}
	return out, nil
}

func (c *Client) put(ctx context.Context, up api.UploadResponse, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, up.UploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	for k, v := range up.UploadHeaders {
		req.Header.Set(k, v)
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("%w: upload: %d", ErrStatus, res.StatusCode)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	} else if c.UserID != "" {
		req.Header.Set(authz.DevBypassHeader, c.UserID)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return res.StatusCode, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return res.StatusCode, nil
}
