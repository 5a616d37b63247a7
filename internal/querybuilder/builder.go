package querybuilder

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"

	"github.com/your-username/ga-report-adapter/backend/internal/models"
)

const dateLayout = "2006-01-02"

// String match kinds, applied to dimension filters
var stringMatchTypes = []string{
	"EXACT", "BEGINS_WITH", "ENDS_WITH", "CONTAINS", "FULL_REGEXP", "PARTIAL_REGEXP",
}

// Numeric comparison kinds, applied to metric filters
var numericOperations = []string{
	"EQUAL", "LESS_THAN", "LESS_THAN_OR_EQUAL", "GREATER_THAN", "GREATER_THAN_OR_EQUAL",
}

var relativeDatePattern = regexp.MustCompile(`^(today|yesterday|[0-9]+daysAgo)$`)

// FilterKind is the classification of a filter group's match type
type FilterKind int

const (
	KindUnknown FilterKind = iota
	KindString
	KindNumeric
)

func (k FilterKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// ValidationError reports a malformed report query
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Service turns report queries into GA4 Data API requests
type Service struct{}

// NewService creates a new query builder service
func NewService() *Service {
	return &Service{}
}

// StringMatchTypes returns the accepted string match kinds
func (s *Service) StringMatchTypes() []string {
	return append([]string(nil), stringMatchTypes...)
}

// NumericOperations returns the accepted numeric comparison kinds
func (s *Service) NumericOperations() []string {
	return append([]string(nil), numericOperations...)
}

// Validate checks a report query before it is sent upstream
func (s *Service) Validate(q *models.ReportQuery) error {
	if strings.TrimSpace(q.Property) == "" {
		return &ValidationError{Field: "property", Reason: "property is required"}
	}
	if len(q.Metrics) == 0 && len(q.Dimensions) == 0 {
		return &ValidationError{Field: "metrics", Reason: "at least one dimension or metric is required"}
	}
	for i, name := range q.Dimensions {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: fmt.Sprintf("dimensions[%d]", i), Reason: "empty name"}
		}
	}
	for i, name := range q.Metrics {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: fmt.Sprintf("metrics[%d]", i), Reason: "empty name"}
		}
	}

	start, err := parseDate("start_date", q.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", q.EndDate)
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return &ValidationError{Field: "end_date", Reason: fmt.Sprintf("%s is before start date %s", q.EndDate, q.StartDate)}
	}

	if q.Limit < 0 {
		return &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if q.Offset < 0 {
		return &ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	for i, group := range q.Filters {
		if classifyKind(group.MatchType) != KindNumeric {
			continue
		}
		for j, cond := range group.Conditions {
			if _, err := toFloat(cond); err != nil {
				return &ValidationError{
					Field:  fmt.Sprintf("filters[%d].conditions[%d]", i, j),
					Reason: err.Error(),
				}
			}
		}
	}

	return nil
}

// BuildRequest converts a report query to a RunReportRequest
func (s *Service) BuildRequest(q *models.ReportQuery) (*analyticsdata.RunReportRequest, error) {
	if err := s.Validate(q); err != nil {
		return nil, err
	}

	req := &analyticsdata.RunReportRequest{
		Dimensions:    s.buildDimensions(q.Dimensions),
		Metrics:       s.buildMetrics(q.Metrics),
		DateRanges:    []*analyticsdata.DateRange{s.buildDateRange(q.StartDate, q.EndDate)},
		Limit:         q.Limit,
		Offset:        q.Offset,
		KeepEmptyRows: q.KeepEmptyRows,
	}

	if len(q.Filters) > 0 {
		dimensionFilter, metricFilter, err := s.buildFilters(q.Filters)
		if err != nil {
			return nil, fmt.Errorf("failed to build filters: %w", err)
		}
		req.DimensionFilter = dimensionFilter
		req.MetricFilter = metricFilter
	}

	if orderBy := s.buildOrderBy(q.OrderBy, q.Dimensions, q.Metrics); orderBy != nil {
		req.OrderBys = []*analyticsdata.OrderBy{orderBy}
	}

	return req, nil
}

// RequestJSON renders the built request the way it is sent on the wire
func (s *Service) RequestJSON(q *models.ReportQuery) ([]byte, error) {
	req, err := s.BuildRequest(q)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(req, "", "  ")
}

func (s *Service) buildDimensions(names []string) []*analyticsdata.Dimension {
	dimensions := make([]*analyticsdata.Dimension, 0, len(names))
	for _, name := range names {
		dimensions = append(dimensions, &analyticsdata.Dimension{Name: name})
	}
	return dimensions
}

func (s *Service) buildMetrics(names []string) []*analyticsdata.Metric {
	metrics := make([]*analyticsdata.Metric, 0, len(names))
	for _, name := range names {
		metrics = append(metrics, &analyticsdata.Metric{Name: name})
	}
	return metrics
}

func (s *Service) buildDateRange(start, end string) *analyticsdata.DateRange {
	return &analyticsdata.DateRange{StartDate: start, EndDate: end}
}

// buildFilters classifies every group by kind and returns the dimension and
// metric AND-groups. Either result is nil when it would be empty.
func (s *Service) buildFilters(groups []models.FilterGroup) (*analyticsdata.FilterExpression, *analyticsdata.FilterExpression, error) {
	var stringExprs, numericExprs []*analyticsdata.FilterExpression

	for _, group := range groups {
		kind := classifyKind(group.MatchType)
		matchType := normalizeKind(group.MatchType)

		for _, cond := range group.Conditions {
			switch kind {
			case KindString:
				stringExprs = append(stringExprs, &analyticsdata.FilterExpression{
					Filter: &analyticsdata.Filter{
						FieldName: group.FieldName,
						StringFilter: &analyticsdata.StringFilter{
							Value:         toString(cond),
							MatchType:     matchType,
							CaseSensitive: group.CaseSensitive,
						},
					},
				})
			case KindNumeric:
				value, err := toFloat(cond)
				if err != nil {
					return nil, nil, fmt.Errorf("field %s: %w", group.FieldName, err)
				}
				numericExprs = append(numericExprs, &analyticsdata.FilterExpression{
					Filter: &analyticsdata.Filter{
						FieldName: group.FieldName,
						NumericFilter: &analyticsdata.NumericFilter{
							Operation: matchType,
							Value: &analyticsdata.NumericValue{
								DoubleValue:     value,
								ForceSendFields: []string{"DoubleValue"},
							},
						},
					},
				})
			default:
				log.Debug().
					Str("field", group.FieldName).
					Str("match_type", group.MatchType).
					Msg("Skipping filter condition with unknown match type")
			}
		}
	}

	return andGroup(stringExprs), andGroup(numericExprs), nil
}

func andGroup(exprs []*analyticsdata.FilterExpression) *analyticsdata.FilterExpression {
	if len(exprs) == 0 {
		return nil
	}
	return &analyticsdata.FilterExpression{
		AndGroup: &analyticsdata.FilterExpressionList{Expressions: exprs},
	}
}

// buildOrderBy returns nil when the field is neither a requested dimension
// nor a requested metric.
func (s *Service) buildOrderBy(order models.OrderBy, dimensions, metrics []string) *analyticsdata.OrderBy {
	if order.Field == "" {
		return nil
	}

	if contains(dimensions, order.Field) {
		return &analyticsdata.OrderBy{
			Dimension: &analyticsdata.DimensionOrderBy{DimensionName: order.Field},
			Desc:      order.Desc(),
		}
	}
	if contains(metrics, order.Field) {
		return &analyticsdata.OrderBy{
			Metric: &analyticsdata.MetricOrderBy{MetricName: order.Field},
			Desc:   order.Desc(),
		}
	}

	log.Debug().Str("field", order.Field).Msg("Order field is not a requested dimension or metric, ignoring")
	return nil
}

// classifyKind maps a match type token to the filter group it belongs to
func classifyKind(matchType string) FilterKind {
	token := normalizeKind(matchType)
	if contains(stringMatchTypes, token) {
		return KindString
	}
	if contains(numericOperations, token) {
		return KindNumeric
	}
	return KindUnknown
}

func normalizeKind(matchType string) string {
	return strings.ToUpper(strings.TrimSpace(matchType))
}

// parseDate accepts yyyy-MM-dd and the relative tokens understood by the
// Data API. Relative dates return the zero time.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &ValidationError{Field: field, Reason: "date is required"}
	}
	if relativeDatePattern.MatchString(value) {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a yyyy-MM-dd date", value)}
	}
	return t, nil
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported numeric value %v (%T)", value, value)
	}
}

// toString renders a string-kind condition value. Numbers keep their literal
// digits instead of exponent form.
func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
