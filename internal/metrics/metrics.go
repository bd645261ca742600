// Package metrics exposes Prometheus collectors for the monitoring engine.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticksTotal             *prometheus.CounterVec
	tickDurationSeconds    *prometheus.HistogramVec
	fetchErrorsTotal       *prometheus.CounterVec
	classificationsTotal   *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
	activeTasks            prometheus.Gauge
	apiRequestsTotal       *prometheus.CounterVec
	apiRequestDurationSecs *prometheus.HistogramVec

	once sync.Once
)

// Classification results.
const (
	ClassifyReview      = "review"
	ClassifyNoReview    = "no_review"
	ClassifyUnavailable = "unavailable"
)

// Notification results.
const (
	NotifySent       = "sent"
	NotifyFailed     = "failed"
	NotifySuppressed = "suppressed"
)

// Init registers the collectors. It is safe to call more than once.
func Init() {
	once.Do(func() {
		ticksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changewatch_ticks_total",
				Help: "Total number of monitor ticks, labeled by resource kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		tickDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "changewatch_tick_duration_seconds",
				Help:    "Histogram of tick durations, labeled by resource kind.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind"},
		)

		fetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changewatch_fetch_errors_total",
				Help: "Total number of failed fetches, labeled by resource kind.",
			},
			[]string{"kind"},
		)

		classificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changewatch_classifications_total",
				Help: "Total number of change classifications, labeled by result.",
			},
			[]string{"result"},
		)

		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changewatch_notifications_total",
				Help: "Total number of notification decisions, labeled by result.",
			},
			[]string{"result"},
		)

		activeTasks = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "changewatch_active_tasks",
				Help: "Number of tasks whose polling loop is running.",
			},
		)

		apiRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changewatch_api_requests_total",
				Help: "Total number of control API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		apiRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "changewatch_api_request_duration_seconds",
				Help:    "Histogram of control API latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTick records one finished tick.
func ObserveTick(kind, outcome string, duration time.Duration) {
	Init()
	ticksTotal.WithLabelValues(kind, outcome).Inc()
	tickDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveFetchError counts a failed fetch.
func ObserveFetchError(kind string) {
	Init()
	fetchErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveClassification counts a classifier result.
func ObserveClassification(result string) {
	Init()
	classificationsTotal.WithLabelValues(result).Inc()
}

// ObserveNotification counts a notification decision.
func ObserveNotification(result string) {
	Init()
	notificationsTotal.WithLabelValues(result).Inc()
}

// IncActiveTasks increments the active tasks gauge.
func IncActiveTasks() {
	Init()
	activeTasks.Inc()
}

// DecActiveTasks decrements the active tasks gauge.
func DecActiveTasks() {
	Init()
	activeTasks.Dec()
}

// Middleware records request counts and latencies for chi routes.
func Middleware(next http.Handler) http.Handler {
	Init()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		apiRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.statusCode)).Inc()
		apiRequestDurationSecs.WithLabelValues(r.Method, routePattern).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
