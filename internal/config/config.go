package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8591"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile   string // optional rotated log file (empty = console only)

	LogMaxSizeMB  int  // rotate after this many megabytes
	LogMaxBackups int  // rotated files to keep
	LogMaxAgeDays int  // days to keep rotated files
	LogCompress   bool // gzip rotated files

	DatabasePath string // path to the SQLite database file
	SeedFile     string // optional YAML file of sources to register at startup

	SyncInterval time.Duration // interval between sync cycles (default: 1h)
	SyncWorkers  int           // concurrent source fetches per cycle
	FetchTimeout time.Duration // per-source request timeout (feeds are tens of MB)
	FetchRate    float64       // outbound requests per second during sync
	FetchBurst   int           // rate limiter burst
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("REPACKD_LISTEN_PORT", ":8591"),
		ShutdownTimeout: mustDuration("REPACKD_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:      getenv("REPACKD_LOG_LEVEL", "info"),
		PrettyLog:     mustBool("REPACKD_PRETTY_LOG", true),
		LogFile:       getenv("REPACKD_LOG_FILE", ""),
		LogMaxSizeMB:  getenvInt("REPACKD_LOG_MAX_SIZE_MB", 20),
		LogMaxBackups: getenvInt("REPACKD_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getenvInt("REPACKD_LOG_MAX_AGE_DAYS", 14),
		LogCompress:   mustBool("REPACKD_LOG_COMPRESS", true),

		// Storage
		DatabasePath: getenv("REPACKD_DB_PATH", "data/repackd.db"),
		SeedFile:     getenv("REPACKD_SEED_FILE", ""), // Optional, empty = no seed import

		// Sync
		SyncInterval: mustDuration("REPACKD_SYNC_INTERVAL", time.Hour),
		SyncWorkers:  getenvInt("REPACKD_SYNC_WORKERS", 4),
		FetchTimeout: mustDuration("REPACKD_FETCH_TIMEOUT", 3*time.Minute),
		FetchRate:    mustFloat("REPACKD_FETCH_RATE", 4),
		FetchBurst:   getenvInt("REPACKD_FETCH_BURST", 4),
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
