package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/your-username/ga-report-adapter/backend/internal/config"
)

const propertyPrefix = "properties/"

// Client talks to the GA4 Data API. Calls are paced by a token bucket and
// never retried.
type Client struct {
	svc     *analyticsdata.Service
	limiter *rate.Limiter
	timeout time.Duration
}

// New creates a client from configuration. An empty credentials file falls
// back to application default credentials.
func New(ctx context.Context, cfg config.AnalyticsConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics data service: %w", err)
	}

	log.Info().
		Bool("credentials_file", cfg.CredentialsFile != "").
		Str("endpoint", cfg.Endpoint).
		Float64("rps", cfg.RequestsPerSecond).
		Msg("Analytics data client ready")

	return NewWithService(svc, cfg.RequestsPerSecond, cfg.Burst, cfg.Timeout), nil
}

// NewWithService wraps an existing service. A non-positive rps disables pacing.
func NewWithService(svc *analyticsdata.Service, rps float64, burst int, timeout time.Duration) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

// RunReport executes one report request against the property
func (c *Client) RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	ctx, cancel, err := c.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := c.svc.Properties.RunReport(PropertyName(property), req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to run report for %s: %w", PropertyName(property), err)
	}
	return resp, nil
}

// GetMetadata fetches the dimensions and metrics usable for the property
func (c *Client) GetMetadata(ctx context.Context, property string) (*analyticsdata.Metadata, error) {
	ctx, cancel, err := c.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	md, err := c.svc.Properties.GetMetadata(MetadataName(property)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s: %w", PropertyName(property), err)
	}
	return md, nil
}

func (c *Client) prepare(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}
	if c.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		return ctx, cancel, nil
	}
	return ctx, func() {}, nil
}

// PropertyName normalizes "123" and "properties/123" to "properties/123"
func PropertyName(property string) string {
	property = strings.Trim(strings.TrimSpace(property), "/")
	if strings.HasPrefix(property, propertyPrefix) {
		return property
	}
	return propertyPrefix + property
}

// MetadataName returns the metadata resource name of a property
func MetadataName(property string) string {
	return PropertyName(property) + "/metadata"
}
