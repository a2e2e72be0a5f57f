package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string
	// DatabaseURL selects the PostgreSQL store. Empty means the in-memory store.
	DatabaseURL string
	// RedisURL enables the cross-instance event relay when set.
	RedisURL      string
	EventsChannel string

	DispatchWorkers int
	DispatchBuffer  int

	ExportWebhookURL string
	ExportTimeout    time.Duration
	ExportMaxRetries int

	// SSEBuffer is the number of events queued per observer before its
	// events are dropped.
	SSEBuffer       int
	SSEHeartbeat    time.Duration
	ShutdownTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		EventsChannel:    getEnv("EVENTS_CHANNEL", "kanban-events"),
		DispatchWorkers:  getEnvInt("DISPATCH_WORKERS", 4, 1),
		DispatchBuffer:   getEnvInt("DISPATCH_BUFFER", 256, 1),
		ExportWebhookURL: getEnv("EXPORT_WEBHOOK_URL", ""),
		ExportTimeout:    getEnvDuration("EXPORT_TIMEOUT", 10*time.Second),
		ExportMaxRetries: getEnvInt("EXPORT_MAX_RETRIES", 3, 0),
		SSEBuffer:        getEnvInt("SSE_BUFFER", 64, 1),
		SSEHeartbeat:     getEnvDuration("SSE_HEARTBEAT", 15*time.Second),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns def unless the variable holds an integer >= floor.
func getEnvInt(key string, def, floor int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= floor {
		return n
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}
