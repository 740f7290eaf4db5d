package s3io

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// Common S3 key patterns and helper functions.
const (
	ContentTypeWebM = "video/webm"

	MetaUserID       = "user_id"
	MetaAutoValidate = "auto_validate"
)

// BuildKey constructs the object key {userID}/{unixMillis}.{ext}.
func BuildKey(userID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), ext)
}

// ParseKey extracts the user ID and recording time from an object key.
func ParseKey(key string) (userID string, at time.Time, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", time.Time{}, false
	}
	ext := path.Ext(parts[1])
	if ext != ".webm" && ext != ".mp4" {
		return "", time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSuffix(parts[1], ext), 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return parts[0], time.UnixMilli(ms).UTC(), true
}

// PublicURL joins the public base URL of the bucket with a key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// UploadHeaders builds the headers the client must send on PUT; they have to
// match the signed metadata.
func UploadHeaders(userID, contentType string, autoValidate bool) map[string]string {
	if contentType == "" {
		contentType = ContentTypeWebM
	}
	return map[string]string{
		"Content-Type":                 contentType,
		"x-amz-server-side-encryption": "AES256",
		"x-amz-meta-user_id":           userID,
		"x-amz-meta-auto_validate":     strconv.FormatBool(autoValidate),
	}
}
