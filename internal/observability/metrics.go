package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the terrain server.
type Metrics struct {
	ConnectionsTotal  *prometheus.CounterVec
	ConnectionsActive prometheus.Gauge

	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ChunksSentTotal   prometheus.Counter
	RequestQueueDepth prometheus.Gauge

	GeneratorNotFoundTotal prometheus.Counter
	GenerationErrorsTotal  *prometheus.CounterVec

	CacheLookupsTotal *prometheus.CounterVec

	ProtocolErrorsSentTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelterra_connections_total",
				Help: "TCP connections accepted",
			},
			[]string{"result"},
		),

		ConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "voxelterra_connections_active",
				Help: "Currently live client connections",
			},
		),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelterra_requests_total",
				Help: "Generation requests dispatched, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voxelterra_request_duration_seconds",
				Help:    "Time from request dispatch to FinishRequest",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"kind"},
		),

		ChunksSentTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "voxelterra_chunks_sent_total",
				Help: "VoxelData packets sent",
			},
		),

		RequestQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "voxelterra_worker_pool_queue_depth",
				Help: "Generation tasks queued on the worker pool",
			},
		),

		GeneratorNotFoundTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "voxelterra_generator_not_found_total",
				Help: "Requests naming an unregistered recipe",
			},
		),

		GenerationErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelterra_generation_errors_total",
				Help: "Generator factory or generate-call failures",
			},
			[]string{"stage"},
		),

		CacheLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelterra_chunk_cache_lookups_total",
				Help: "Chunk result cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		ProtocolErrorsSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelterra_protocol_errors_sent_total",
				Help: "ProtocolError packets sent, by fatality",
			},
			[]string{"severity"},
		),
	}
}

// RecordConnectionAccepted updates connection metrics for a new client.
func (m *Metrics) RecordConnectionAccepted() {
	m.ConnectionsTotal.WithLabelValues("accepted").Inc()
	m.ConnectionsActive.Inc()
}

// RecordConnectionRejected records a connection refused at accept time
// (e.g. a non-IPv4 peer).
func (m *Metrics) RecordConnectionRejected() {
	m.ConnectionsTotal.WithLabelValues("rejected").Inc()
}

// RecordConnectionClosed decrements the active-connection gauge.
func (m *Metrics) RecordConnectionClosed() {
	m.ConnectionsActive.Dec()
}

// RecordRequestDispatched increments a dispatched-request counter by kind
// ("region"/"brush").
func (m *Metrics) RecordRequestDispatched(kind string) {
	m.RequestsTotal.WithLabelValues(kind, "dispatched").Inc()
}

// RecordRequestCompleted records a successful request's end-to-end
// duration.
func (m *Metrics) RecordRequestCompleted(kind string, durationSeconds float64, chunks int) {
	m.RequestsTotal.WithLabelValues(kind, "completed").Inc()
	m.RequestDuration.WithLabelValues(kind).Observe(durationSeconds)
	m.ChunksSentTotal.Add(float64(chunks))
}

// RecordRequestFailed records a request that ended in a ProtocolError.
func (m *Metrics) RecordRequestFailed(kind, stage string) {
	m.RequestsTotal.WithLabelValues(kind, "failed").Inc()
	if stage == "generator_not_found" {
		m.GeneratorNotFoundTotal.Inc()
	} else {
		m.GenerationErrorsTotal.WithLabelValues(stage).Inc()
	}
}

// RecordCacheLookup records a chunk-cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordProtocolErrorSent records a ProtocolError packet send, gentle or
// fatal.
func (m *Metrics) RecordProtocolErrorSent(fatal bool) {
	severity := "gentle"
	if fatal {
		severity = "fatal"
	}
	m.ProtocolErrorsSentTotal.WithLabelValues(severity).Inc()
}

// SetQueueDepth records the worker pool's current queue depth.
func (m *Metrics) SetQueueDepth(depth int) {
	m.RequestQueueDepth.Set(float64(depth))
}

// Handler exposes the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
