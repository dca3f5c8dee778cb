// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lisperz/Test1-frazo-sub001/internal/pixel"
	"github.com/lisperz/Test1-frazo-sub001/internal/thumbnail"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
)

// Config is everything main needs to wire the service.
type Config struct {
	Env     string
	Port    string
	Verbose bool

	DatabaseURL    string
	AllowedOrigins []string

	StorageType string // "local" or "s3"
	UploadDir   string
	BaseURL     string
	AWSBucket   string
	AWSRegion   string
	AWSEndpoint string

	NATSURL string

	WorkspaceIdleTTL   time.Duration
	EvictionSchedule   string
	DefaultContainerPx float64
	Timeline           timeline.Options
	Zoom               pixel.ZoomConfig
	Thumbnails         thumbnail.Options
}

// Production reports whether the service runs with production settings.
func (c Config) Production() bool { return c.Env == "production" }

// Load reads the environment. Outside production a .env file is loaded first;
// variables already set in the environment win.
func Load() (Config, error) {
	env := getEnv("APP_ENV", "development")
	if env != "production" {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
			}
		}
	}

	cfg := Config{
		Env:              env,
		Port:             getEnv("PORT", "8083"),
		Verbose:          parseBool(getEnv("LOG_VERBOSE", "false")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		StorageType:      getEnv("STORAGE_TYPE", "local"),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		BaseURL:          os.Getenv("BASE_URL"),
		AWSBucket:        os.Getenv("AWS_BUCKET"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:      os.Getenv("AWS_ENDPOINT"),
		NATSURL:          os.Getenv("NATS_URL"),
		EvictionSchedule: getEnv("WORKSPACE_EVICTION_SCHEDULE", "@every 1m"),
		Timeline:         timeline.DefaultOptions(),
		Zoom:             pixel.DefaultZoom(),
		Thumbnails:       thumbnail.DefaultOptions(),
	}

	var err error
	if cfg.WorkspaceIdleTTL, err = time.ParseDuration(getEnv("WORKSPACE_IDLE_TTL", "30m")); err != nil {
		return cfg, fmt.Errorf("WORKSPACE_IDLE_TTL: %w", err)
	}
	if cfg.DefaultContainerPx, err = floatEnv("TIMELINE_CONTAINER_WIDTH", 1000); err != nil {
		return cfg, err
	}
	if cfg.Timeline.MinEffectDuration, err = floatEnv("MIN_EFFECT_DURATION", cfg.Timeline.MinEffectDuration); err != nil {
		return cfg, err
	}
	if cfg.Timeline.MinSegmentDuration, err = floatEnv("MIN_SEGMENT_DURATION", cfg.Timeline.MinSegmentDuration); err != nil {
		return cfg, err
	}
	if cfg.Timeline.MaxHistory, err = intEnv("MAX_HISTORY", cfg.Timeline.MaxHistory); err != nil {
		return cfg, err
	}
	switch policy := getEnv("SEGMENT_OVERLAP", string(timeline.OverlapBlock)); timeline.OverlapPolicy(policy) {
	case timeline.OverlapBlock, timeline.OverlapWarn:
		cfg.Timeline.SegmentOverlap = timeline.OverlapPolicy(policy)
	default:
		return cfg, fmt.Errorf("SEGMENT_OVERLAP must be %q or %q, got %q", timeline.OverlapBlock, timeline.OverlapWarn, policy)
	}
	if cfg.Zoom.Min, err = floatEnv("ZOOM_MIN", cfg.Zoom.Min); err != nil {
		return cfg, err
	}
	if cfg.Zoom.Max, err = floatEnv("ZOOM_MAX", cfg.Zoom.Max); err != nil {
		return cfg, err
	}
	if cfg.Zoom.Step, err = floatEnv("ZOOM_STEP", cfg.Zoom.Step); err != nil {
		return cfg, err
	}
	if cfg.Zoom.Min <= 0 || cfg.Zoom.Min > cfg.Zoom.Default || cfg.Zoom.Max < cfg.Zoom.Default {
		return cfg, fmt.Errorf("zoom range [%v, %v] must contain the 1:1 default", cfg.Zoom.Min, cfg.Zoom.Max)
	}
	if cfg.Thumbnails.Count, err = intEnv("THUMBNAIL_COUNT", cfg.Thumbnails.Count); err != nil {
		return cfg, err
	}
	if cfg.Thumbnails.Quality, err = intEnv("THUMBNAIL_QUALITY", cfg.Thumbnails.Quality); err != nil {
		return cfg, err
	}

	if cfg.DatabaseURL == "" && cfg.Production() {
		return cfg, fmt.Errorf("DATABASE_URL is required in production")
	}
	if cfg.StorageType == "s3" && cfg.AWSBucket == "" {
		return cfg, fmt.Errorf("AWS_BUCKET is required when STORAGE_TYPE=s3")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

func floatEnv(key string, fallback float64) (float64, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int) (int, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
