package uploads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecohunt/serverless-backend/internal/api"
)

type fakePresigner struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://clips.s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
}

func newService(p *fakePresigner) *Service {
	return &Service{
		Presigner: p,
		Bucket:    "clips",
		BaseURL:   "https://clips.s3.us-east-1.amazonaws.com",
		TTL:       5 * time.Minute,
		Now:       func() time.Time { return time.UnixMilli(1760000000000) },
	}
}

func TestCreateDefaultsToWebM(t *testing.T) {
	p := &fakePresigner{}
	res, err := newService(p).Create(context.Background(), "u1", api.UploadRequest{})
	require.NoError(t, err)

	assert.Equal(t, "u1/1760000000000.webm", res.Key)
	assert.Equal(t, "https://clips.s3.us-east-1.amazonaws.com/u1/1760000000000.webm", res.VideoURL)
	assert.Equal(t, 300, res.ExpiresIn)
	assert.Equal(t, "video/webm", res.ContentType)
	assert.Equal(t, "false", res.UploadHeaders["x-amz-meta-auto_validate"])
	assert.Equal(t, "u1", p.in.Metadata["user_id"])
}

func TestCreateMP4AutoValidate(t *testing.T) {
	p := &fakePresigner{}
	res, err := newService(p).Create(context.Background(), "u1", api.UploadRequest{ContentType: "video/mp4", AutoValidate: true})
	require.NoError(t, err)
	assert.Equal(t, "u1/1760000000000.mp4", res.Key)
	assert.Equal(t, "true", p.in.Metadata["auto_validate"])
}

func TestCreateRejects(t *testing.T) {
	_, err := newService(&fakePresigner{}).Create(context.Background(), "u1", api.UploadRequest{ContentType: "text/plain"})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = newService(&fakePresigner{}).Create(context.Background(), "a/b", api.UploadRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = newService(&fakePresigner{err: errors.New("boom")}).Create(context.Background(), "u1", api.UploadRequest{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadRequest)
}
