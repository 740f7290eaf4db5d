// Package config loads configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	KeyRegion        = "AWS_REGION"
	KeyBucket        = "S3_BUCKET"
	KeyVideoBaseURL  = "VIDEO_PUBLIC_BASE_URL"
	KeyPresignTTL    = "PRESIGN_TTL_SECONDS"
	KeyDevBypassAuth = "DEV_BYPASS_AUTH"
	KeyAIAPIKey      = "AI_GATEWAY_API_KEY"
	KeyAIBaseURL     = "AI_GATEWAY_URL"
	KeyAIModel       = "AI_MODEL"
	KeyAITimeout     = "AI_TIMEOUT_SECONDS"
	KeyStoreURL      = "STORE_URL"
	KeyStoreKey      = "STORE_SERVICE_KEY"
	KeyStoreKeyID    = "STORE_ACCESS_KEY_ID"
	KeyLogLevel      = "LOG_LEVEL"
	KeyHTTPPort      = "HTTP_PORT"
)

// ValidationKeys are required by anything that runs the validation pipeline.
var ValidationKeys = []string{KeyAIAPIKey, KeyStoreURL, KeyStoreKey}

// ErrMissing is returned by Load when a required variable is unset.
var ErrMissing = errors.New("missing configuration")

// Env holds the configuration values for the application.
type Env struct {
	Region        string
	Bucket        string
	VideoBaseURL  string
	PresignTTL    time.Duration
	DevBypassAuth bool

	AIAPIKey  string
	AIBaseURL string
	AIModel   string
	AITimeout time.Duration

	StoreURL   string
	StoreKey   string
	StoreKeyID string

	LogLevel string
	HTTPPort string
}

// Load reads the environment (and a local .env file, if any) and reports
// every name in required that is unset. The returned Env is populated even
// when err is non-nil.
func Load(required ...string) (Env, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyRegion, "us-east-1")
	v.SetDefault(KeyPresignTTL, 300)
	v.SetDefault(KeyAIBaseURL, "https://ai.gateway.lovable.dev/v1")
	v.SetDefault(KeyAIModel, "google/gemini-2.5-flash")
	v.SetDefault(KeyAITimeout, 60)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPPort, "8080")

	e := Env{
		Region:        v.GetString(KeyRegion),
		Bucket:        v.GetString(KeyBucket),
		VideoBaseURL:  strings.TrimRight(v.GetString(KeyVideoBaseURL), "/"),
		PresignTTL:    time.Duration(v.GetInt(KeyPresignTTL)) * time.Second,
		DevBypassAuth: v.GetString(KeyDevBypassAuth) == "true",
		AIAPIKey:      v.GetString(KeyAIAPIKey),
		AIBaseURL:     v.GetString(KeyAIBaseURL),
		AIModel:       v.GetString(KeyAIModel),
		AITimeout:     time.Duration(v.GetInt(KeyAITimeout)) * time.Second,
		StoreURL:      v.GetString(KeyStoreURL),
		StoreKey:      v.GetString(KeyStoreKey),
		StoreKeyID:    v.GetString(KeyStoreKeyID),
		LogLevel:      v.GetString(KeyLogLevel),
		HTTPPort:      v.GetString(KeyHTTPPort),
	}
	if e.VideoBaseURL == "" && e.Bucket != "" {
		e.VideoBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", e.Bucket, e.Region)
	}

	var missing []string
	for _, k := range required {
		if strings.TrimSpace(v.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return e, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return e, nil
}

// MustLoad is Load that panics when a required variable is unset.
func MustLoad(required ...string) Env {
	e, err := Load(required...)
	if err != nil {
		panic(err)
	}
	return e
}
