package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultDatabaseURL   = "audio_metadata.db"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultJWTTTL        = "24h"
	defaultUploadDir     = "audio_uploads"
	defaultExportDir     = "temp_downloads"
	defaultMaxUploadSize = 50 * 1024 * 1024 // 50 MiB
	defaultMediaTypes    = "audio/mpeg,audio/mp3"
	defaultExportMaxAge  = "1h"
)

// Config holds the runtime settings for the API and the reconcile binary.
// It is loaded once at startup and passed into components by value; nothing
// reads the environment after Load returns.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	UploadDir         string
	ExportDir         string
	MaxUploadSize     int64
	AllowedMediaTypes []string

	// ExportMaxAge is how long a delivered export artifact may linger in
	// ExportDir before the reconcile pass removes it.
	ExportMaxAge time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))
	cfg.ExportDir = strings.TrimSpace(getEnv("EXPORT_DIR", defaultExportDir))

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	cfg.ExportMaxAge, err = parseDurationEnv("EXPORT_MAX_AGE", defaultExportMaxAge)
	if err != nil {
		return nil, err
	}

	cfg.MaxUploadSize = defaultMaxUploadSize
	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_SIZE")); raw != "" {
		cfg.MaxUploadSize, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MAX_UPLOAD_SIZE must be an integer byte count: %w", err)
		}
	}

	for _, t := range strings.Split(getEnv("ALLOWED_MEDIA_TYPES", defaultMediaTypes), ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			cfg.AllowedMediaTypes = append(cfg.AllowedMediaTypes, t)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.ExportMaxAge <= 0 {
		return fmt.Errorf("EXPORT_MAX_AGE must be > 0")
	}
	if len(cfg.AllowedMediaTypes) == 0 {
		return fmt.Errorf("ALLOWED_MEDIA_TYPES must name at least one media type")
	}
	if cfg.UploadDir == "" || cfg.ExportDir == "" {
		return fmt.Errorf("UPLOAD_DIR and EXPORT_DIR must not be empty")
	}
	if isProdLike(cfg.AppEnv) && cfg.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func isProdLike(env string) bool {
	return env == "prod" || env == "production" || env == "release"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30m or 24h: %w", key, err)
	}
	return d, nil
}
