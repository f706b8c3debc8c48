// Package config holds the terrain server's runtime configuration.
package config

import "time"

// Config holds server configuration
type Config struct {
	// BindAddress is the IPv4 host:port the terrain protocol listens on.
	BindAddress string
	// ObservAddress serves /metrics, /health and pprof over HTTP.
	ObservAddress string
	// CompressionLevel is "fast", "best", or a numeric deflate level.
	CompressionLevel string
	// Coarsening paces worker-pool dispatch (jobs admitted per second).
	// Zero disables pacing entirely; it is a tuning knob with no
	// behavioral contract.
	Coarsening int
	// WorkerCount sizes the CPU-bound generation pool. Zero means one
	// worker per hardware thread.
	WorkerCount int
	// EventBufferSize is the dispatcher's per-subscriber channel depth.
	EventBufferSize int
	// CachePath locates the chunk result cache database. Empty disables
	// the cache.
	CachePath string
	// CacheMaxAge is how long an untouched cache entry survives GC.
	CacheMaxAge time.Duration
	// CacheGCInterval is how often the GC sweep runs.
	CacheGCInterval time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddress:      "127.0.0.1:9988",
		ObservAddress:    "127.0.0.1:8081",
		CompressionLevel: "fast",
		Coarsening:       0,
		WorkerCount:      0,
		EventBufferSize:  20,
		CachePath:        "",
		CacheMaxAge:      24 * time.Hour,
		CacheGCInterval:  time.Hour,
	}
}
