// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the in-memory deal submission queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of workers applying submissions.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /contests/{id}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// SeedFile is an optional YAML dataset loaded at startup.
	SeedFile string `koanf:"seed_file"`
	// SeedDemo loads the built-in demo dataset when no seed file is set.
	SeedDemo bool `koanf:"seed_demo"`
	// TVRotationSeconds is how long each TV view stays on screen.
	TVRotationSeconds int `koanf:"tv_rotation_seconds"`
	// BattleSweepCron schedules settlement of battles past their end date.
	// Empty leaves only the startup sweep.
	BattleSweepCron string `koanf:"battle_sweep_cron"`
	// ContestSweepCron schedules close-out of contests past their end date.
	// Empty leaves only the startup sweep.
	ContestSweepCron string `koanf:"contest_sweep_cron"`
	// NotificationLimit caps the notification feed; 0 keeps everything.
	NotificationLimit int `koanf:"notification_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		SeedDemo:            true,
		TVRotationSeconds:   10,
		BattleSweepCron:     "@every 1m",
		ContestSweepCron:    "@every 5m",
		NotificationLimit:   1000,
	}
}

// TVRotation returns TVRotationSeconds as a duration.
func (c *Config) TVRotation() time.Duration {
	return time.Duration(c.TVRotationSeconds) * time.Second
}
