package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID(t *testing.T) {
	for _, ok := range []string{"u1", "3f2b9c1e-7a4d-4b8e-9f10-2c3d4e5f6a7b", "hunter_42"} {
		assert.NoError(t, UserID(ok), ok)
	}
	for _, bad := range []string{"", "a/b", "../etc", "with space", strings.Repeat("x", 129)} {
		assert.Error(t, UserID(bad), bad)
	}
}

func TestVideoURL(t *testing.T) {
	assert.NoError(t, VideoURL("https://store/u1/123.webm"))
	assert.NoError(t, VideoURL("http://localhost:4566/clips/u1/1.mp4"))

	for _, bad := range []string{"", "   ", "store/u1/123.webm", "ftp://store/x.webm", "https://", "::nope"} {
		assert.Error(t, VideoURL(bad), bad)
	}
}

func TestVideoContentType(t *testing.T) {
	ext, err := VideoContentType("video/webm;codecs=vp9,opus")
	require.NoError(t, err)
	assert.Equal(t, "webm", ext)

	ext, err = VideoContentType("VIDEO/MP4")
	require.NoError(t, err)
	assert.Equal(t, "mp4", ext)

	_, err = VideoContentType("text/plain")
	assert.Error(t, err)
	_, err = VideoContentType("")
	assert.Error(t, err)
}
