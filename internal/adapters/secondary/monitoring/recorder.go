package monitoring

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

const namespace = "coursekit"

// Recorder implements ports.MetricsRecorder with Prometheus metrics
type Recorder struct {
	registry         *prom.Registry
	httpRequests     *prom.CounterVec
	httpDuration     *prom.HistogramVec
	segmentDuration  prom.Histogram
	slidesPerDeck    prom.Histogram
	metadataFallback prom.Counter
	sessionsPurged   *prom.CounterVec
	wsClients        prom.Gauge
}

// NewRecorder creates the application metrics and registers them, along
// with the Go runtime and process collectors, on reg. A nil reg gets a
// fresh registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{
		registry: reg,
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
		segmentDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "segmentation_duration_seconds",
			Help:      "Time spent splitting a deck into slides",
			Buckets:   prom.ExponentialBuckets(0.00005, 4, 8),
		}),
		slidesPerDeck: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "slides_per_deck",
			Help:      "Number of slides produced per parsed deck",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		metadataFallback: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_parse_fallback_total",
			Help:      "Metadata segments whose YAML failed to parse and fell back to empty",
		}),
		sessionsPurged: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "edit_sessions_purged_total",
			Help:      "Expired edit sessions removed by kind",
		}, []string{"kind"}),
		wsClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Currently connected WebSocket clients",
		}),
	}

	reg.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.segmentDuration,
		r.slidesPerDeck,
		r.metadataFallback,
		r.sessionsPurged,
		r.wsClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Registry returns the registry the metrics are registered on
func (r *Recorder) Registry() *prom.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *Recorder) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (r *Recorder) ObserveSegmentation(slides int, d time.Duration) {
	r.segmentDuration.Observe(d.Seconds())
	r.slidesPerDeck.Observe(float64(slides))
}

func (r *Recorder) IncMetadataFallback() {
	r.metadataFallback.Inc()
}

func (r *Recorder) IncSessionsPurged(kind string, n int) {
	if n <= 0 {
		return
	}
	r.sessionsPurged.WithLabelValues(kind).Add(float64(n))
}

// SetWebSocketClients records the number of connected clients
func (r *Recorder) SetWebSocketClients(n int) {
	r.wsClients.Set(float64(n))
}

var _ ports.MetricsRecorder = (*Recorder)(nil)
