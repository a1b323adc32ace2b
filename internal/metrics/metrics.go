// Package metrics exposes Prometheus collectors for the sync core. Each
// Metrics owns its own registry so several cores can live in one process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/intent"
)

// Metrics groups the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	intents        *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	batches        prometheus.Counter
	superseded     prometheus.Counter
	droppedPolls   *prometheus.CounterVec
	partitions     *prometheus.CounterVec
}

// New builds and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pilotdeck_intents_total",
			Help: "Intents delivered through the channel",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pilotdeck_gateway_requests_total",
			Help: "Gateway requests by path and outcome",
		}, []string{"path", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pilotdeck_gateway_request_seconds",
			Help:    "Gateway request latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"path"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pilotdeck_point_batches_total",
			Help: "Point fetches dispatched (each fans out into tiles)",
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pilotdeck_point_requests_superseded_total",
			Help: "Pending point requests replaced by a newer one",
		}),
		droppedPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pilotdeck_polls_dropped_total",
			Help: "Status queries dropped because one was already in flight",
		}, []string{"resource"}),
		partitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pilotdeck_partition_results_total",
			Help: "Partition results merged into the point read model",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.intents,
		m.requests,
		m.requestLatency,
		m.batches,
		m.superseded,
		m.droppedPolls,
		m.partitions,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIntent counts one delivered intent.
func (m *Metrics) ObserveIntent(in intent.Intent) {
	if m == nil || in == nil {
		return
	}
	m.intents.WithLabelValues(in.Kind().String()).Inc()
}

// ObserveRequest matches gateway.Observer.
func (m *Metrics) ObserveRequest(req gateway.Request, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = gateway.KindOf(err).String()
	}
	m.requests.WithLabelValues(req.Path, outcome).Inc()
	m.requestLatency.WithLabelValues(req.Path).Observe(elapsed.Seconds())
}

// BatchDispatched counts one point fetch sent to the gateway.
func (m *Metrics) BatchDispatched() {
	if m == nil {
		return
	}
	m.batches.Inc()
}

// Superseded counts one pending point request that was replaced.
func (m *Metrics) Superseded() {
	if m == nil {
		return
	}
	m.superseded.Inc()
}

// DroppedPoll counts one status query ignored while busy.
func (m *Metrics) DroppedPoll(resource string) {
	if m == nil {
		return
	}
	m.droppedPolls.WithLabelValues(resource).Inc()
}

// PartitionResult counts one merged tile result.
func (m *Metrics) PartitionResult(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.partitions.WithLabelValues(outcome).Inc()
}
