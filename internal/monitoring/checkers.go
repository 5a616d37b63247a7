package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"

	"github.com/your-username/ga-report-adapter/backend/internal/cache"
)

type metadataFetcher interface {
	GetMetadata(ctx context.Context, property string) (*analyticsdata.Metadata, error)
}

// AnalyticsHealthChecker checks that the Data API answers a metadata call
// for the default property. The outcome is reused for ttl so health traffic
// cannot drain the client's request quota.
type AnalyticsHealthChecker struct {
	fetcher  metadataFetcher
	property string
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	last      *ComponentHealth
	lastErr   error
}

// NewAnalyticsHealthChecker creates a checker against property
func NewAnalyticsHealthChecker(fetcher metadataFetcher, property string, ttl time.Duration) *AnalyticsHealthChecker {
	return &AnalyticsHealthChecker{
		fetcher:  fetcher,
		property: property,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Name returns the name of the checker
func (a *AnalyticsHealthChecker) Name() string {
	return "analytics"
}

// Check performs the health check. Without a default property there is
// nothing to check and the component is degraded.
func (a *AnalyticsHealthChecker) Check(ctx context.Context) (*ComponentHealth, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last != nil && a.now().Sub(a.checkedAt) < a.ttl {
		return copyHealth(a.last), a.lastErr
	}

	a.last, a.lastErr = a.lookup(ctx)
	a.checkedAt = a.now()
	return copyHealth(a.last), a.lastErr
}

func (a *AnalyticsHealthChecker) lookup(ctx context.Context) (*ComponentHealth, error) {
	health := &ComponentHealth{
		Name:    a.Name(),
		Status:  HealthStatusOK,
		Details: make(map[string]interface{}),
	}

	if a.property == "" {
		health.Status = HealthStatusDegraded
		health.Message = "No default property configured"
		return health, nil
	}

	md, err := a.fetcher.GetMetadata(ctx, a.property)
	if err != nil {
		return health, fmt.Errorf("metadata lookup failed: %w", err)
	}
	if md != nil {
		health.Details["dimensions"] = len(md.Dimensions)
		health.Details["metrics"] = len(md.Metrics)
	}

	return health, nil
}

// copyHealth lets callers annotate the result without touching the cached one
func copyHealth(h *ComponentHealth) *ComponentHealth {
	out := *h
	out.Details = make(map[string]interface{}, len(h.Details))
	for k, v := range h.Details {
		out.Details[k] = v
	}
	return &out
}

// CacheHealthChecker reports result cache statistics
type CacheHealthChecker struct {
	stats func() cache.CacheStats
}

// NewCacheHealthChecker creates a checker reading stats
func NewCacheHealthChecker(stats func() cache.CacheStats) *CacheHealthChecker {
	return &CacheHealthChecker{stats: stats}
}

// Name returns the name of the checker
func (c *CacheHealthChecker) Name() string {
	return "cache"
}

// Check performs the health check
func (c *CacheHealthChecker) Check(context.Context) (*ComponentHealth, error) {
	stats := c.stats()
	return &ComponentHealth{
		Name:   c.Name(),
		Status: HealthStatusOK,
		Details: map[string]interface{}{
			"size":     stats.Size,
			"hits":     stats.Hits,
			"misses":   stats.Misses,
			"hit_rate": stats.HitRate,
		},
	}, nil
}
