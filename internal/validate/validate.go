// Package validate provides functions to validate submission and upload input.
package validate

import (
	"errors"
	"mime"
	"net/url"
	"regexp"
	"strings"
)

var userIDRx = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,128}$`)

// containers maps accepted recording content types to object key extensions.
var containers = map[string]string{
	"video/webm": "webm",
	"video/mp4":  "mp4",
}

// UserID checks that the id is a safe, non-empty path segment.
func UserID(id string) error {
	if id == "" {
		return errors.New("userId required")
	}
	if !userIDRx.MatchString(id) {
		return errors.New("invalid userId")
	}
	return nil
}

// VideoURL checks that raw is an absolute http(s) URL with a host.
func VideoURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("videoUrl required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("invalid videoUrl")
	}
	return nil
}

// VideoContentType checks that ct names a supported recording container and
// returns its key extension. Codec parameters ("video/webm;codecs=vp9") are
// ignored.
func VideoContentType(ct string) (string, error) {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(ct))
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return "", errors.New("invalid Content-Type")
	}
	ext, ok := containers[strings.ToLower(mt)]
	if !ok {
		return "", errors.New("Content-Type must be video/webm or video/mp4")
	}
	return ext, nil
}
