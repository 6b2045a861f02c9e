package metrics

import (
	"strconv"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "order_tracking"

// Tracking counts what the tracking sessions see.
type Tracking struct {
	received       *prometheus.CounterVec
	applied        *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	cancels        *prometheus.CounterVec
}

var _ port.TrackingMetrics = (*Tracking)(nil)

func NewTracking(reg prometheus.Registerer) *Tracking {
	factory := promauto.With(reg)
	return &Tracking{
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Tracking events received from the event source",
		}, []string{"kind"}),
		applied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_applied_total",
			Help:      "Tracking events that changed an order",
		}, []string{"kind"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Tracking events rejected by the reducer or a closed session",
		}, []string{"kind", "reason"}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open tracking sessions",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Tracking sessions opened",
		}),
		cancels: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancel_requests_total",
			Help:      "Cancellation attempts by result",
		}, []string{"result"}),
	}
}

func (t *Tracking) EventReceived(kind domain.EventKind) {
	t.received.WithLabelValues(string(kind)).Inc()
}

func (t *Tracking) EventApplied(kind domain.EventKind) {
	t.applied.WithLabelValues(string(kind)).Inc()
}

func (t *Tracking) EventDropped(kind domain.EventKind, reason string) {
	t.dropped.WithLabelValues(string(kind), reason).Inc()
}

func (t *Tracking) SessionOpened() {
	t.sessionsTotal.Inc()
	t.sessionsActive.Inc()
}

func (t *Tracking) SessionClosed() {
	t.sessionsActive.Dec()
}

func (t *Tracking) CancelRequested(result string) {
	t.cancels.WithLabelValues(result).Inc()
}

// HTTP instruments the mock backend's routes.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	streams  prometheus.Gauge
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	factory := promauto.With(reg)
	return &HTTP{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
		streams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_streams_open",
			Help:      "Open server-sent event streams",
		}),
	}
}

func (h *HTTP) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		h.requests.WithLabelValues(c.Request.Method, path, status).Inc()
		h.duration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func (h *HTTP) StreamOpened() { h.streams.Inc() }
func (h *HTTP) StreamClosed() { h.streams.Dec() }
