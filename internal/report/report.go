// Package report runs GA4 report queries and flattens the response into a
// header row plus data rows.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"

	"github.com/your-username/ga-report-adapter/backend/internal/models"
	"github.com/your-username/ga-report-adapter/backend/internal/querybuilder"
)

// Runner executes a report request against a property
type Runner interface {
	RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error)
}

// MetadataFetcher looks up the dimensions and metrics of a property
type MetadataFetcher interface {
	GetMetadata(ctx context.Context, property string) (*analyticsdata.Metadata, error)
}

// Report is the immutable outcome of one executed query.
type Report struct {
	ID         string
	ExecutedAt time.Time
	Duration   time.Duration
	// TotalRows is the number of rows matching the query, ignoring limit
	// and offset.
	TotalRows  int64

	query  models.ReportQuery
	result models.ResultTable
}

// Run builds the request for q, executes it once and returns the flattened
// table. An empty table means the service returned no rows; a failed build or
// call returns an error.
func Run(ctx context.Context, runner Runner, q models.ReportQuery) (*Report, error) {
	return run(ctx, runner, querybuilder.NewService(), q)
}

func run(ctx context.Context, runner Runner, builder *querybuilder.Service, q models.ReportQuery) (*Report, error) {
	r := &Report{
		ID:         uuid.NewString(),
		query:      cloneQuery(q),
		ExecutedAt: time.Now(),
	}
	logger := log.With().Str("report_id", r.ID).Str("property", q.Property).Logger()

	req, err := builder.BuildRequest(&q)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build report request")
		return nil, err
	}

	resp, err := runner.RunReport(ctx, q.Property, req)
	if err != nil {
		logger.Error().Err(err).Msg("Report query failed")
		return nil, err
	}

	table, err := Flatten(resp)
	if err != nil {
		logger.Error().Err(err).Msg("Malformed report response")
		return nil, err
	}

	r.result = table
	if resp != nil {
		r.TotalRows = resp.RowCount
	}
	r.Duration = time.Since(r.ExecutedAt)

	logger.Debug().
		Int("rows", len(r.Data())).
		Dur("duration", r.Duration).
		Msg("Report executed")
	return r, nil
}

// Query returns a copy of the query that produced the report
func (r *Report) Query() models.ReportQuery {
	return cloneQuery(r.query)
}

func cloneQuery(q models.ReportQuery) models.ReportQuery {
	q.Dimensions = append([]string(nil), q.Dimensions...)
	q.Metrics = append([]string(nil), q.Metrics...)
	if q.Filters != nil {
		filters := make([]models.FilterGroup, len(q.Filters))
		for i, f := range q.Filters {
			f.Conditions = append([]interface{}(nil), f.Conditions...)
			filters[i] = f
		}
		q.Filters = filters
	}
	return q
}

// Result returns the full table, header included. It is empty when the
// service returned no rows.
func (r *Report) Result() models.ResultTable {
	return r.result.Clone()
}

// Header returns the column names, or nil for an empty table.
func (r *Report) Header() []string {
	if len(r.result) == 0 {
		return nil
	}
	return append([]string(nil), r.result[0]...)
}

// Data returns every row after the header, or nil for an empty table.
func (r *Report) Data() [][]string {
	if len(r.result) < 2 {
		return nil
	}
	return r.result[1:].Clone()
}

// RowCount returns the number of data rows
func (r *Report) RowCount() int {
	if len(r.result) == 0 {
		return 0
	}
	return len(r.result) - 1
}

// Flatten converts a RunReportResponse into a ResultTable. A response without
// rows yields an empty table with no header row.
func Flatten(resp *analyticsdata.RunReportResponse) (models.ResultTable, error) {
	if resp == nil || len(resp.Rows) == 0 {
		return models.ResultTable{}, nil
	}

	header := make([]string, 0, len(resp.DimensionHeaders)+len(resp.MetricHeaders))
	for _, h := range resp.DimensionHeaders {
		header = append(header, h.Name)
	}
	for _, h := range resp.MetricHeaders {
		header = append(header, h.Name)
	}

	table := make(models.ResultTable, 0, len(resp.Rows)+1)
	table = append(table, header)

	for i, row := range resp.Rows {
		values := make([]string, 0, len(header))
		for _, v := range row.DimensionValues {
			values = append(values, v.Value)
		}
		for _, v := range row.MetricValues {
			values = append(values, v.Value)
		}
		if len(values) != len(header) {
			return nil, fmt.Errorf("row %d has %d values, header has %d columns", i, len(values), len(header))
		}
		table = append(table, values)
	}

	return table, nil
}
