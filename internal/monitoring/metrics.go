package monitoring

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/your-username/ga-report-adapter/backend/internal/querybuilder"
)

// Report outcome labels
const (
	StatusOK      = "ok"
	StatusCached  = "cached"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

var (
	// RequestTotal counts HTTP requests by method, route pattern and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gareport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gareport_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// ReportsTotal counts report runs by outcome.
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gareport_reports_total",
			Help: "Total number of report runs",
		},
		[]string{"status"},
	)
	// ReportDuration is the latency of Data API report calls.
	ReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gareport_report_duration_seconds",
			Help:    "Data API report latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	// ReportRows is the number of data rows per executed report.
	ReportRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gareport_report_rows",
			Help:    "Data rows returned per report",
			Buckets: prometheus.ExponentialBuckets(1, 10, 6),
		},
	)
	// MetadataLookupsTotal counts metadata lookups by kind and outcome.
	MetadataLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gareport_metadata_lookups_total",
			Help: "Total number of dimension and metric lookups",
		},
		[]string{"kind", "status"},
	)
)

// ReportStatus maps the error of a report run to its outcome label
func ReportStatus(err error) string {
	if err == nil {
		return StatusOK
	}
	var verr *querybuilder.ValidationError
	if errors.As(err, &verr) {
		return StatusInvalid
	}
	return StatusError
}

// ObserveReport records one executed report
func ObserveReport(d time.Duration, rows int, err error) {
	ReportsTotal.WithLabelValues(ReportStatus(err)).Inc()
	if err != nil {
		return
	}
	ReportDuration.Observe(d.Seconds())
	ReportRows.Observe(float64(rows))
}

// ObserveCachedReport records a report served from the cache
func ObserveCachedReport() {
	ReportsTotal.WithLabelValues(StatusCached).Inc()
}

// ObserveMetadata records one metadata lookup
func ObserveMetadata(kind string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	MetadataLookupsTotal.WithLabelValues(kind, status).Inc()
}

// Middleware records request count and duration. Requests are labelled by
// chi route pattern so path parameters do not explode the label space.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		RequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
