package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusOK        HealthStatus = "ok"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	LatencyMS int64        `json:"latency_ms,omitempty"`
}

// HealthCheckResponse represents the overall health check response.
type HealthCheckResponse struct {
	Status        HealthStatus               `json:"status"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Timestamp     string                     `json:"timestamp"`
	Checks        map[string]ComponentHealth `json:"checks"`
}

// HealthChecker performs health checks on system components.
type HealthChecker struct {
	version   string
	startTime time.Time
	checks    map[string]HealthCheckFunc
}

// HealthCheckFunc defines a function that checks component health.
type HealthCheckFunc func(ctx context.Context) ComponentHealth

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]HealthCheckFunc),
	}
}

// RegisterCheck registers a health check for a component.
func (hc *HealthChecker) RegisterCheck(name string, checkFunc HealthCheckFunc) {
	hc.checks[name] = checkFunc
}

// Check performs all health checks.
func (hc *HealthChecker) Check(ctx context.Context) HealthCheckResponse {
	response := HealthCheckResponse{
		Status:        HealthStatusOK,
		Version:       hc.version,
		UptimeSeconds: int64(time.Since(hc.startTime).Seconds()),
		Timestamp:     time.Now().Format(time.RFC3339),
		Checks:        make(map[string]ComponentHealth),
	}

	for name, checkFunc := range hc.checks {
		health := checkFunc(ctx)
		response.Checks[name] = health

		if health.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		} else if health.Status == HealthStatusDegraded && response.Status != HealthStatusUnhealthy {
			response.Status = HealthStatusDegraded
		}
	}

	return response
}

// Handler returns an HTTP handler for health checks.
func (hc *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		response := hc.Check(ctx)

		w.Header().Set("Content-Type", "application/json")

		switch response.Status {
		case HealthStatusOK:
			w.WriteHeader(http.StatusOK)
		case HealthStatusDegraded:
			w.WriteHeader(http.StatusOK)
		case HealthStatusUnhealthy:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// Common health check functions for the terrain server.

// ListenerCheck reports whether the TCP listener is bound to addr.
func ListenerCheck(addr string, bound bool) HealthCheckFunc {
	return func(ctx context.Context) ComponentHealth {
		if bound {
			return ComponentHealth{Status: HealthStatusOK, Message: fmt.Sprintf("listening on %s", addr)}
		}
		return ComponentHealth{Status: HealthStatusUnhealthy, Message: fmt.Sprintf("not bound to %s", addr)}
	}
}

// WorkerPoolCheck reports degraded status when the generation queue is
// backing up relative to its capacity.
func WorkerPoolCheck(queueDepth, queueCapacity int) HealthCheckFunc {
	return func(ctx context.Context) ComponentHealth {
		if queueCapacity <= 0 {
			return ComponentHealth{Status: HealthStatusOK, Message: "unbounded queue"}
		}
		ratio := float64(queueDepth) / float64(queueCapacity)
		if ratio >= 1 {
			return ComponentHealth{Status: HealthStatusDegraded, Message: fmt.Sprintf("queue full: %d/%d", queueDepth, queueCapacity)}
		}
		return ComponentHealth{Status: HealthStatusOK, Message: fmt.Sprintf("queue depth %d/%d", queueDepth, queueCapacity)}
	}
}

// RegistryCheck reports degraded when no generator recipes are
// registered — the server would reject every request.
func RegistryCheck(recipeCount int) HealthCheckFunc {
	return func(ctx context.Context) ComponentHealth {
		if recipeCount == 0 {
			return ComponentHealth{Status: HealthStatusDegraded, Message: "no recipes registered"}
		}
		return ComponentHealth{Status: HealthStatusOK, Message: fmt.Sprintf("%d recipes registered", recipeCount)}
	}
}

// ChunkCacheCheck reports whether the bbolt-backed chunk cache opened
// successfully.
func ChunkCacheCheck(path string, opened bool) HealthCheckFunc {
	return func(ctx context.Context) ComponentHealth {
		if opened {
			return ComponentHealth{Status: HealthStatusOK, Message: fmt.Sprintf("cache open at %s", path)}
		}
		return ComponentHealth{Status: HealthStatusUnhealthy, Message: fmt.Sprintf("cache unavailable at %s", path)}
	}
}
