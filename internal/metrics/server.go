package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Browse server metrics.

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browse_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "browse_http_request_duration_ms",
			Help:    "HTTP request duration in milliseconds",
			Buckets: []float64{5, 20, 50, 200, 1000, 5000, 30000},
		},
		[]string{"route"},
	)

	WSClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "browse_ws_clients_connected",
			Help: "Live-view websocket clients currently connected",
		},
	)
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a handler with request count and duration tracking.
// The route string must be the pattern, not the raw path, to keep
// cardinality bounded.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}
