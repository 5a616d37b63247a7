// Package testutil provides shared fakes of the GA4 Data API for tests.
package testutil

import (
	"context"
	"sync"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
)

// MockReportClient implements the report runner and metadata fetcher
// interfaces for testing.
type MockReportClient struct {
	RunReportFn   func(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error)
	GetMetadataFn func(ctx context.Context, property string) (*analyticsdata.Metadata, error)

	mu       sync.Mutex
	Requests []*analyticsdata.RunReportRequest // collected requests for assertions
	Calls    int
}

// RunReport implements the interface method for testing.
func (m *MockReportClient) RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	m.mu.Lock()
	m.Calls++
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.RunReportFn != nil {
		return m.RunReportFn(ctx, property, req)
	}
	panic("unexpected call to MockReportClient.RunReport")
}

// GetMetadata implements the interface method for testing.
func (m *MockReportClient) GetMetadata(ctx context.Context, property string) (*analyticsdata.Metadata, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.GetMetadataFn != nil {
		return m.GetMetadataFn(ctx, property)
	}
	panic("unexpected call to MockReportClient.GetMetadata")
}

// CallCount returns the number of remote calls made so far.
func (m *MockReportClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// LastRequest returns the last collected report request, or nil if none.
func (m *MockReportClient) LastRequest() *analyticsdata.RunReportRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// NewReportResponse builds a response whose rows hold the dimension values
// followed by the metric values.
func NewReportResponse(dimensions, metrics []string, rows ...[]string) *analyticsdata.RunReportResponse {
	resp := &analyticsdata.RunReportResponse{}
	for _, d := range dimensions {
		resp.DimensionHeaders = append(resp.DimensionHeaders, &analyticsdata.DimensionHeader{Name: d})
	}
	for _, m := range metrics {
		resp.MetricHeaders = append(resp.MetricHeaders, &analyticsdata.MetricHeader{Name: m, Type: "TYPE_INTEGER"})
	}
	for _, values := range rows {
		row := &analyticsdata.Row{}
		for i, v := range values {
			if i < len(dimensions) {
				row.DimensionValues = append(row.DimensionValues, &analyticsdata.DimensionValue{Value: v})
			} else {
				row.MetricValues = append(row.MetricValues, &analyticsdata.MetricValue{Value: v})
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	resp.RowCount = int64(len(resp.Rows))
	return resp
}

// NewMetadata builds a metadata response with the given API names.
func NewMetadata(property string, dimensions, metrics []string) *analyticsdata.Metadata {
	md := &analyticsdata.Metadata{Name: property + "/metadata"}
	for _, d := range dimensions {
		md.Dimensions = append(md.Dimensions, &analyticsdata.DimensionMetadata{ApiName: d, UiName: d})
	}
	for _, m := range metrics {
		md.Metrics = append(md.Metrics, &analyticsdata.MetricMetadata{ApiName: m, UiName: m})
	}
	return md
}
