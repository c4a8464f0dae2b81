package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the server counters on a private registry, so several servers
// in one process (as in tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	totalRequests prometheus.Counter
	totalFailures prometheus.Counter
	totalNotFound prometheus.Counter
	rateLimited   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		totalRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trustee_resource_requests_total",
			Help: "Resource requests handled",
		}),
		totalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trustee_resource_failures_total",
			Help: "Resource requests failed by a plugin",
		}),
		totalNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trustee_resource_not_found_total",
			Help: "Resource requests for unknown plugins or resources",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trustee_rate_limited_total",
			Help: "Resource requests rejected by the rate limiter",
		}),
	}
	m.registry.MustRegister(m.totalRequests, m.totalFailures, m.totalNotFound, m.rateLimited)
	return m
}

func (m *Metrics) IncRequests()    { m.totalRequests.Inc() }
func (m *Metrics) IncFailures()    { m.totalFailures.Inc() }
func (m *Metrics) IncNotFound()    { m.totalNotFound.Inc() }
func (m *Metrics) IncRateLimited() { m.rateLimited.Inc() }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests    int64
	Failures    int64
	NotFound    int64
	RateLimited int64
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Requests:    value(m.totalRequests),
		Failures:    value(m.totalFailures),
		NotFound:    value(m.totalNotFound),
		RateLimited: value(m.rateLimited),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func value(c prometheus.Counter) int64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return int64(out.GetCounter().GetValue())
}
