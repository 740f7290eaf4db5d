// Package s3io provides utilities for working with S3, including presigning URLs.
package s3io

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Presigner defines the interface for presigning S3 requests.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Header fetches object metadata.
type Header interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// PresignPut generates a presigned URL for uploading an object to S3 with the specified parameters.
// Objects use SSE-S3 so that the public URL stays readable by the AI provider.
func PresignPut(ctx context.Context, p Presigner, bucket, key, contentType string, meta map[string]string, ttl time.Duration) (string, time.Duration, error) {
	input := &s3.PutObjectInput{
		Bucket:               aws.String(bucket),
		Key:                  aws.String(key),
		ContentType:          aws.String(contentType),
		Metadata:             meta,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}

	req, err := p.PresignPutObject(ctx, input, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", 0, err
	}
	return req.URL, ttl, nil
}

// ObjectMeta holds S3 object metadata and user-defined metadata.
type ObjectMeta struct {
	Size        int64
	ETag        string
	ContentType string
	Meta        map[string]string // lowercased user metadata
}

// AutoValidate reports whether the uploader asked for server-side validation.
func (m *ObjectMeta) AutoValidate() bool {
	ok, _ := strconv.ParseBool(m.Meta[MetaAutoValidate])
	return ok
}

// Head fetches object metadata including user-defined metadata.
func Head(ctx context.Context, h Header, bucket, key string) (*ObjectMeta, error) {
	ho, err := h.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}

	m := &ObjectMeta{
		Meta: make(map[string]string, len(ho.Metadata)),
	}
	if ho.ContentLength != nil {
		m.Size = *ho.ContentLength
	}
	if ho.ETag != nil {
		m.ETag = strings.Trim(*ho.ETag, "\"")
	}
	if ho.ContentType != nil {
		m.ContentType = strings.ToLower(*ho.ContentType)
	}
	for k, v := range ho.Metadata {
		m.Meta[strings.ToLower(k)] = v
	}
	return m, nil
}
