package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "EVENTS_CHANNEL", "DISPATCH_WORKERS", "DISPATCH_BUFFER",
		"EXPORT_WEBHOOK_URL", "EXPORT_TIMEOUT", "EXPORT_MAX_RETRIES", "SSE_BUFFER", "SSE_HEARTBEAT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "kanban-events", cfg.EventsChannel)
	assert.Equal(t, 4, cfg.DispatchWorkers)
	assert.Equal(t, 256, cfg.DispatchBuffer)
	assert.Equal(t, 10*time.Second, cfg.ExportTimeout)
	assert.Equal(t, 3, cfg.ExportMaxRetries)
	assert.Equal(t, 64, cfg.SSEBuffer)
	assert.Equal(t, 15*time.Second, cfg.SSEHeartbeat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://kanban@db/kanban")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("DISPATCH_WORKERS", "8")
	t.Setenv("EXPORT_TIMEOUT", "2s")
	t.Setenv("SSE_HEARTBEAT", "500ms")
	t.Setenv("SSE_BUFFER", "16")
	t.Setenv("DISPATCH_BUFFER", "1024")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://kanban@db/kanban", cfg.DatabaseURL)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, 8, cfg.DispatchWorkers)
	assert.Equal(t, 2*time.Second, cfg.ExportTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SSEHeartbeat)
	assert.Equal(t, 16, cfg.SSEBuffer)
	assert.Equal(t, 1024, cfg.DispatchBuffer)
}

func TestLoad_Limits(t *testing.T) {
	tests := []struct {
		name        string
		retries     string
		workers     string
		wantRetries int
		wantWorkers int
	}{
		{name: "zero retries turns retrying off", retries: "0", workers: "2", wantRetries: 0, wantWorkers: 2},
		{name: "zero workers falls back", retries: "5", workers: "0", wantRetries: 5, wantWorkers: 4},
		{name: "negative values fall back", retries: "-1", workers: "-1", wantRetries: 3, wantWorkers: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EXPORT_MAX_RETRIES", tt.retries)
			t.Setenv("DISPATCH_WORKERS", tt.workers)

			cfg := Load()

			assert.Equal(t, tt.wantRetries, cfg.ExportMaxRetries)
			assert.Equal(t, tt.wantWorkers, cfg.DispatchWorkers)
		})
	}
}

func TestLoad_IgnoresGarbage(t *testing.T) {
	t.Setenv("DISPATCH_BUFFER", "lots")
	t.Setenv("EXPORT_MAX_RETRIES", "-2")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 256, cfg.DispatchBuffer)
	assert.Equal(t, 3, cfg.ExportMaxRetries)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}
