package main

import (
	"context"
	"flag"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxelterra/server/internal/config"
	"github.com/voxelterra/server/internal/observability"
	"github.com/voxelterra/server/internal/server"
)

const version = "1.0.0"

func main() {
	// Parse command line flags
	bindAddr := flag.String("bind-addr", "127.0.0.1:9988", "IPv4 host:port for the terrain protocol")
	observAddr := flag.String("observ-addr", "127.0.0.1:8081", "Observability server address")
	compression := flag.String("compression", "fast", "zlib compression level: fast, best, or a number in the deflate range")
	coarsening := flag.Int("coarsening", 0, "dispatch loop coarsening, 0 disables")
	workers := flag.Int("workers", 0, "generation worker count, 0 = one per hardware thread")
	eventBuffer := flag.Int("event-buffer", 20, "dispatcher per-subscriber event buffer size")
	cachePath := flag.String("cache-path", "", "chunk result cache database path, empty disables the cache")
	cacheMaxAge := flag.Duration("cache-max-age", 24*time.Hour, "chunk cache retention")
	flag.Parse()

	// Initialize observability
	observability.InitLevelFromEnv()
	logger := observability.NewLogger("voxelterra-server", version, observability.ConsoleWriterFromEnv(os.Stdout))
	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker(version)
	// Init tracing if configured
	if shutdown, err := observability.InitTracing(context.Background(), "voxelterra-server"); err == nil {
		defer shutdown(context.Background())
	}

	logger.Info("VoxelTerra server starting...")

	cfg := config.DefaultConfig()
	cfg.BindAddress = *bindAddr
	cfg.ObservAddress = *observAddr
	cfg.CompressionLevel = *compression
	cfg.Coarsening = *coarsening
	cfg.WorkerCount = *workers
	cfg.EventBufferSize = *eventBuffer
	cfg.CachePath = *cachePath
	cfg.CacheMaxAge = *cacheMaxAge

	srv, err := server.New(cfg, logger, metrics)
	if err != nil {
		logger.Fatal(err, "Failed to build server")
	}

	// Generator recipes are registered here by the embedding host before
	// Start; the server itself ships no terrain algorithms.

	if err := srv.Start(); err != nil {
		logger.Fatal(err, "Failed to start listener")
	}

	// Register health checks
	healthChecker.RegisterCheck("listener", observability.ListenerCheck(cfg.BindAddress, true))
	healthChecker.RegisterCheck("worker_pool", observability.WorkerPoolCheck(srv.Pool().QueueDepth(), srv.Pool().QueueCapacity()))
	healthChecker.RegisterCheck("generators", observability.RegistryCheck(len(srv.Generators().AllNames())))
	if cfg.CachePath != "" {
		healthChecker.RegisterCheck("chunk_cache", observability.ChunkCacheCheck(cfg.CachePath, true))
	}

	// Start metrics and health HTTP server
	go startObservabilityServer(cfg.ObservAddress, metrics, healthChecker, logger) // exposes /metrics, /health, /debug/pprof

	logger.Info("VoxelTerra server running")
	logger.Info("Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")
	srv.Shutdown()
}

func startObservabilityServer(addr string, metrics *observability.Metrics, health *observability.HealthChecker, logger *observability.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", health.Handler())
	// pprof endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{Addr: addr, Handler: mux}
	logger.Info("Observability server listening on " + addr + " (metrics, health, pprof)")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(err, "Observability server error")
	}
}
