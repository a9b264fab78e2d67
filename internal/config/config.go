// Package config builds the process-wide Context object referenced in
// the design notes: its environment variables are read exactly once, in
// main, and handed down as typed fields. The only other os.Getenv call
// is cmd/metget-build's METGET_WORKDIR lookup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Context is constructed once at process start and threaded into every
// component. Nothing below the Build Orchestrator reads the environment
// directly.
type Context struct {
	DatabaseURL        string
	S3Bucket           string
	S3BucketUpload     string
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
	S3UseSSL           bool
	APIKeyTable        string
	RequestTable       string
	CoampsS3Bucket     string
	CoampsAWSKey       string
	CoampsAWSSecret    string
	RedisURL           string
	RequestQueueName   string

	RequestSleepTime time.Duration // restore-wait backoff, default ~10min
	MaxRequestTime   time.Duration // cooperative-abort ceiling, default ~48h
	MaxUncommitted   int           // batch-insert chunk size, default 100000
}

// required names every environment variable whose absence is a hard
// startup failure, per spec §6.
var required = []string{
	"METGET_DATABASE",
	"METGET_S3_BUCKET",
	"METGET_S3_BUCKET_UPLOAD",
	"METGET_API_KEY_TABLE",
	"METGET_REQUEST_TABLE",
}

// Load reads the environment once and returns a ready Context, or an
// error naming the first missing required variable.
func Load() (*Context, error) {
	for _, name := range required {
		if os.Getenv(name) == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", name)
		}
	}

	c := &Context{
		DatabaseURL:      databaseURL(),
		S3Bucket:         os.Getenv("METGET_S3_BUCKET"),
		S3BucketUpload:   os.Getenv("METGET_S3_BUCKET_UPLOAD"),
		S3Endpoint:       envOr("METGET_S3_ENDPOINT", "s3.amazonaws.com"),
		S3AccessKey:      os.Getenv("METGET_S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("METGET_S3_SECRET_KEY"),
		S3UseSSL:         envBool("METGET_S3_USE_SSL", true),
		APIKeyTable:      os.Getenv("METGET_API_KEY_TABLE"),
		RequestTable:     os.Getenv("METGET_REQUEST_TABLE"),
		CoampsS3Bucket:   os.Getenv("COAMPS_S3_BUCKET"),
		CoampsAWSKey:     os.Getenv("COAMPS_AWS_KEY"),
		CoampsAWSSecret:  os.Getenv("COAMPS_AWS_SECRET"),
		RedisURL:         envOr("REDIS_URL", "redis://localhost:6379/0"),
		RequestQueueName: envOr("METGET_REQUEST_QUEUE", "metget_build_requests"),
		RequestSleepTime: envDuration("METGET_REQUEST_SLEEP_TIME", 10*time.Minute),
		MaxRequestTime:   envDuration("METGET_MAX_REQUEST_TIME", 48*time.Hour),
		MaxUncommitted:   envInt("METGET_MAX_UNCOMMITTED_ROWS", 100000),
	}

	return c, nil
}

func databaseURL() string {
	if v := os.Getenv("METGET_DATABASE"); v != "" {
		return v
	}
	host := envOr("METGET_DATABASE_SERVICE_HOST", "localhost")
	user := os.Getenv("METGET_DATABASE_USER")
	pass := os.Getenv("METGET_DATABASE_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s/metget?sslmode=disable", user, pass, host)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
