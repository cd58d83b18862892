package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the engine.
type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	// Per-student lane queue depth before submissions are rejected.
	LaneQueueSize int

	// Persistence commit bounds (the atomic update is retried as a unit).
	PersistTimeout time.Duration
	PersistRetries int

	// Notification digest window (hours, inclusive start, exclusive end).
	NotifyStartHour int
	NotifyEndHour   int

	// Attempt retention for the pruning job. 0 disables pruning.
	AttemptRetentionDays int

	// Sanity ceiling on reported time spent per attempt.
	MaxTimeSpent time.Duration
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the service still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("MATHRISE_ADDR", ":8080"),
		DBPath:               envOr("MATHRISE_DB", ""),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		LaneQueueSize:        envIntOr("LANE_QUEUE_SIZE", 32),
		PersistTimeout:       envDurationOr("PERSIST_TIMEOUT", 5*time.Second),
		PersistRetries:       envIntOr("PERSIST_RETRIES", 3),
		NotifyStartHour:      envIntOr("NOTIFY_START_HOUR", 8),
		NotifyEndHour:        envIntOr("NOTIFY_END_HOUR", 22),
		AttemptRetentionDays: envIntOr("ATTEMPT_RETENTION_DAYS", 0),
		MaxTimeSpent:         envDurationOr("MAX_TIME_SPENT", 4*time.Hour),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
