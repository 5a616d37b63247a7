package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-username/ga-report-adapter/backend/internal/export"
	"github.com/your-username/ga-report-adapter/backend/internal/monitoring"
	"github.com/your-username/ga-report-adapter/backend/internal/pagination"
	"github.com/your-username/ga-report-adapter/backend/internal/report"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	Version         string
	DefaultProperty string
	AllowedOrigins  []string
	JWTSecret       string
	RequestTimeout  time.Duration
	HealthTimeout   time.Duration
	HealthCacheTTL  time.Duration
	DefaultPageSize int64
	MaxPageSize     int64
}

// NewRouter wires middleware and the /api/v1 routes
func NewRouter(service *report.Service, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 1000
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100000
	}
	if opts.HealthCacheTTL <= 0 {
		opts.HealthCacheTTL = 30 * time.Second
	}

	reports := NewReportHandler(service, opts.DefaultProperty, pagination.NewPaginator(opts.DefaultPageSize, opts.MaxPageSize))
	exports := NewExportHandler(reports, export.NewExporter())

	health := monitoring.NewHealthMonitor(opts.Version, opts.HealthTimeout)
	health.RegisterChecker(monitoring.NewAnalyticsHealthChecker(service.Client(), opts.DefaultProperty, opts.HealthCacheTTL))
	health.RegisterChecker(monitoring.NewCacheHealthChecker(service.CacheStats))

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(monitoring.Middleware)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Export-Rows", "X-Report-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthCheck(opts.Version))
		r.Get("/health/ready", health.ReadinessHandler())

		r.Group(func(r chi.Router) {
			if opts.JWTSecret != "" {
				r.Use(RequireJWT(opts.JWTSecret))
			}

			r.Get("/health/details", health.HTTPHandler())
			r.Get("/properties/{property}/dimensions", reports.ListDimensions)
			r.Get("/properties/{property}/metrics", reports.ListMetrics)

			r.Route("/reports", func(r chi.Router) {
				r.Post("/", reports.RunReport)
				r.Post("/page", reports.RunReportPage)
				r.Post("/request", reports.BuildRequest)
				r.Post("/validate", reports.ValidateReport)
				r.Post("/export", exports.ExportReport)
			})

			r.Get("/export/formats", exports.GetExportFormats)
			r.Get("/cache/stats", reports.CacheStats)
		})
	})

	return r
}
