package report

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/your-username/ga-report-adapter/backend/internal/cache"
	"github.com/your-username/ga-report-adapter/backend/internal/models"
	"github.com/your-username/ga-report-adapter/backend/internal/monitoring"
	"github.com/your-username/ga-report-adapter/backend/internal/querybuilder"
)

// Client is what the service needs from the GA4 Data API
type Client interface {
	Runner
	MetadataFetcher
}

// Service runs reports and metadata lookups for the HTTP API and CLI,
// reusing recent results when a cache is configured.
type Service struct {
	client  Client
	builder *querybuilder.Service
	cache   *cache.ReportCache
}

// NewService creates a report service. rc may be nil.
func NewService(client Client, rc *cache.ReportCache) *Service {
	return &Service{
		client:  client,
		builder: querybuilder.NewService(),
		cache:   rc,
	}
}

// Builder exposes the request builder used by the service
func (s *Service) Builder() *querybuilder.Service {
	return s.builder
}

// Run executes q, or returns a cached report for an identical query. The
// boolean reports a cache hit.
func (s *Service) Run(ctx context.Context, q models.ReportQuery) (*Report, bool, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get("report", q); ok {
			if r, ok := v.(*Report); ok {
				log.Debug().Str("report_id", r.ID).Msg("Serving report from cache")
				monitoring.ObserveCachedReport()
				return r, true, nil
			}
		}
	}

	start := time.Now()
	r, err := run(ctx, s.client, s.builder, q)
	if err != nil {
		monitoring.ObserveReport(time.Since(start), 0, err)
		return nil, false, err
	}
	monitoring.ObserveReport(time.Since(start), r.RowCount(), nil)

	if s.cache != nil {
		s.cache.Set("report", q, r)
	}
	return r, false, nil
}

// Dimensions lists the usable dimension API names for a property
func (s *Service) Dimensions(ctx context.Context, property string) ([]string, error) {
	return s.fields(ctx, "dimensions", property, UsableDimensions)
}

// Metrics lists the usable metric API names for a property
func (s *Service) Metrics(ctx context.Context, property string) ([]string, error) {
	return s.fields(ctx, "metrics", property, UsableMetrics)
}

func (s *Service) fields(ctx context.Context, kind, property string, lookup func(context.Context, MetadataFetcher, string) ([]string, error)) ([]string, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(kind, property); ok {
			if names, ok := v.([]string); ok {
				return append([]string(nil), names...), nil
			}
		}
	}

	names, err := lookup(ctx, s.client, property)
	monitoring.ObserveMetadata(kind, err)
	if err != nil {
		log.Error().Err(err).Str("property", property).Str("kind", kind).Msg("Metadata lookup failed")
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(kind, property, append([]string(nil), names...))
	}
	return names, nil
}

// Client returns the Data API client the service queries
func (s *Service) Client() Client {
	return s.client
}

// CacheStats returns the result cache statistics, or zero values without a cache
func (s *Service) CacheStats() cache.CacheStats {
	if s.cache == nil {
		return cache.CacheStats{}
	}
	return s.cache.Stats()
}
