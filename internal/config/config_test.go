package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("LogLevel = %q, want INFO", cfg.LogLevel)
	}
	if cfg.LaneQueueSize != 32 {
		t.Errorf("LaneQueueSize = %d, want 32", cfg.LaneQueueSize)
	}
	if cfg.PersistTimeout != 5*time.Second {
		t.Errorf("PersistTimeout = %s, want 5s", cfg.PersistTimeout)
	}
	if cfg.AttemptRetentionDays != 0 {
		t.Errorf("AttemptRetentionDays = %d, want 0 (pruning off)", cfg.AttemptRetentionDays)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MATHRISE_ADDR", ":9999")
	t.Setenv("LANE_QUEUE_SIZE", "8")
	t.Setenv("PERSIST_TIMEOUT", "250ms")
	t.Setenv("MAX_TIME_SPENT", "1h")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.LaneQueueSize != 8 {
		t.Errorf("LaneQueueSize = %d, want 8", cfg.LaneQueueSize)
	}
	if cfg.PersistTimeout != 250*time.Millisecond {
		t.Errorf("PersistTimeout = %s, want 250ms", cfg.PersistTimeout)
	}
	if cfg.MaxTimeSpent != time.Hour {
		t.Errorf("MaxTimeSpent = %s, want 1h", cfg.MaxTimeSpent)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("LANE_QUEUE_SIZE", "lots")
	t.Setenv("PERSIST_TIMEOUT", "soon")

	cfg := Load()
	if cfg.LaneQueueSize != 32 {
		t.Errorf("LaneQueueSize = %d, want default 32", cfg.LaneQueueSize)
	}
	if cfg.PersistTimeout != 5*time.Second {
		t.Errorf("PersistTimeout = %s, want default 5s", cfg.PersistTimeout)
	}
}
