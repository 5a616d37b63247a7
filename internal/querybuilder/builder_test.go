package querybuilder

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-username/ga-report-adapter/backend/internal/models"
)

func baseQuery() *models.ReportQuery {
	return &models.ReportQuery{
		Property:   "123456",
		Dimensions: []string{"country", "city"},
		Metrics:    []string{"sessions", "activeUsers"},
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-31",
	}
}

func TestBuildRequest_PreservesDimensionAndMetricOrder(t *testing.T) {
	t.Parallel()

	req, err := NewService().BuildRequest(baseQuery())
	require.NoError(t, err)

	require.Len(t, req.Dimensions, 2)
	assert.Equal(t, "country", req.Dimensions[0].Name)
	assert.Equal(t, "city", req.Dimensions[1].Name)

	require.Len(t, req.Metrics, 2)
	assert.Equal(t, "sessions", req.Metrics[0].Name)
	assert.Equal(t, "activeUsers", req.Metrics[1].Name)

	require.Len(t, req.DateRanges, 1)
	assert.Equal(t, "2024-01-01", req.DateRanges[0].StartDate)
	assert.Equal(t, "2024-01-31", req.DateRanges[0].EndDate)

	assert.Nil(t, req.DimensionFilter)
	assert.Nil(t, req.MetricFilter)
	assert.Empty(t, req.OrderBys)
}

func TestBuildRequest_StringFilters(t *testing.T) {
	t.Parallel()

	q := baseQuery()
	q.Filters = []models.FilterGroup{
		{FieldName: "country", MatchType: "EXACT", Conditions: []interface{}{"US", "JP"}},
		{FieldName: "city", MatchType: "BEGINS_WITH", Conditions: []interface{}{"To"}},
	}

	req, err := NewService().BuildRequest(q)
	require.NoError(t, err)

	assert.Nil(t, req.MetricFilter)
	require.NotNil(t, req.DimensionFilter)
	require.NotNil(t, req.DimensionFilter.AndGroup)

	exprs := req.DimensionFilter.AndGroup.Expressions
	require.Len(t, exprs, 3)

	want := []struct{ field, value, matchType string }{
		{"country", "US", "EXACT"},
		{"country", "JP", "EXACT"},
		{"city", "To", "BEGINS_WITH"},
	}
	for i, w := range want {
		require.NotNil(t, exprs[i].Filter)
		assert.Equal(t, w.field, exprs[i].Filter.FieldName)
		require.NotNil(t, exprs[i].Filter.StringFilter)
		assert.Nil(t, exprs[i].Filter.NumericFilter)
		assert.Equal(t, w.value, exprs[i].Filter.StringFilter.Value)
		assert.Equal(t, w.matchType, exprs[i].Filter.StringFilter.MatchType)
	}
}

func TestBuildRequest_NumericFilters(t *testing.T) {
	t.Parallel()

	q := baseQuery()
	q.Filters = []models.FilterGroup{
		{FieldName: "sessions", MatchType: "GREATER_THAN", Conditions: []interface{}{float64(10), "25.5"}},
	}

	req, err := NewService().BuildRequest(q)
	require.NoError(t, err)

	assert.Nil(t, req.DimensionFilter)
	require.NotNil(t, req.MetricFilter)

	exprs := req.MetricFilter.AndGroup.Expressions
	require.Len(t, exprs, 2)
	for i, want := range []float64{10, 25.5} {
		nf := exprs[i].Filter.NumericFilter
		require.NotNil(t, nf)
		assert.Nil(t, exprs[i].Filter.StringFilter)
		assert.Equal(t, "sessions", exprs[i].Filter.FieldName)
		assert.Equal(t, "GREATER_THAN", nf.Operation)
		assert.InDelta(t, want, nf.Value.DoubleValue, 1e-9)
	}
}

func TestBuildRequest_MixedFiltersNeverLeak(t *testing.T) {
	t.Parallel()

	q := baseQuery()
	q.Filters = []models.FilterGroup{
		{FieldName: "country", MatchType: "contains", Conditions: []interface{}{"an"}},
		{FieldName: "sessions", MatchType: "LESS_THAN_OR_EQUAL", Conditions: []interface{}{100}},
		{FieldName: "city", MatchType: "SOUNDS_LIKE", Conditions: []interface{}{"Paris"}},
	}

	req, err := NewService().BuildRequest(q)
	require.NoError(t, err)

	require.NotNil(t, req.DimensionFilter)
	require.Len(t, req.DimensionFilter.AndGroup.Expressions, 1)
	sf := req.DimensionFilter.AndGroup.Expressions[0].Filter.StringFilter
	require.NotNil(t, sf)
	assert.Equal(t, "CONTAINS", sf.MatchType)

	require.NotNil(t, req.MetricFilter)
	require.Len(t, req.MetricFilter.AndGroup.Expressions, 1)
	assert.NotNil(t, req.MetricFilter.AndGroup.Expressions[0].Filter.NumericFilter)
}

func TestBuildRequest_UnknownKindOnlyProducesNoFilter(t *testing.T) {
	t.Parallel()

	q := baseQuery()
	q.Filters = []models.FilterGroup{
		{FieldName: "country", MatchType: "NOT_A_KIND", Conditions: []interface{}{"US"}},
	}

	req, err := NewService().BuildRequest(q)
	require.NoError(t, err)
	assert.Nil(t, req.DimensionFilter)
	assert.Nil(t, req.MetricFilter)
}

func TestBuildRequest_OrderBy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		order         models.OrderBy
		wantDimension string
		wantMetric    string
		wantDesc      bool
		wantNone      bool
	}{
		{name: "dimension desc", order: models.OrderBy{Field: "country", Direction: "desc"}, wantDimension: "country", wantDesc: true},
		{name: "dimension asc", order: models.OrderBy{Field: "city", Direction: "asc"}, wantDimension: "city"},
		{name: "metric desc", order: models.OrderBy{Field: "sessions", Direction: "desc"}, wantMetric: "sessions", wantDesc: true},
		{name: "typo is ascending", order: models.OrderBy{Field: "sessions", Direction: "dsec"}, wantMetric: "sessions"},
		{name: "uppercase is ascending", order: models.OrderBy{Field: "sessions", Direction: "DESC"}, wantMetric: "sessions"},
		{name: "unknown field", order: models.OrderBy{Field: "pageViews", Direction: "desc"}, wantNone: true},
		{name: "empty field", order: models.OrderBy{}, wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := baseQuery()
			q.OrderBy = tt.order

			req, err := NewService().BuildRequest(q)
			require.NoError(t, err)

			if tt.wantNone {
				assert.Empty(t, req.OrderBys)
				return
			}
			require.Len(t, req.OrderBys, 1)
			ob := req.OrderBys[0]
			assert.Equal(t, tt.wantDesc, ob.Desc)
			if tt.wantDimension != "" {
				require.NotNil(t, ob.Dimension)
				assert.Nil(t, ob.Metric)
				assert.Equal(t, tt.wantDimension, ob.Dimension.DimensionName)
			} else {
				require.NotNil(t, ob.Metric)
				assert.Nil(t, ob.Dimension)
				assert.Equal(t, tt.wantMetric, ob.Metric.MetricName)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(q *models.ReportQuery)
		wantField string
	}{
		{name: "valid", mutate: func(q *models.ReportQuery) {}},
		{name: "relative dates", mutate: func(q *models.ReportQuery) { q.StartDate, q.EndDate = "30daysAgo", "today" }},
		{name: "missing property", mutate: func(q *models.ReportQuery) { q.Property = " " }, wantField: "property"},
		{name: "no fields", mutate: func(q *models.ReportQuery) { q.Dimensions, q.Metrics = nil, nil }, wantField: "metrics"},
		{name: "blank metric", mutate: func(q *models.ReportQuery) { q.Metrics = []string{""} }, wantField: "metrics[0]"},
		{name: "bad start date", mutate: func(q *models.ReportQuery) { q.StartDate = "2024/01/01" }, wantField: "start_date"},
		{name: "impossible date", mutate: func(q *models.ReportQuery) { q.EndDate = "2024-02-30" }, wantField: "end_date"},
		{name: "missing end date", mutate: func(q *models.ReportQuery) { q.EndDate = "" }, wantField: "end_date"},
		{name: "end before start", mutate: func(q *models.ReportQuery) { q.StartDate, q.EndDate = "2024-02-01", "2024-01-01" }, wantField: "end_date"},
		{name: "negative limit", mutate: func(q *models.ReportQuery) { q.Limit = -1 }, wantField: "limit"},
		{
			name: "non numeric condition",
			mutate: func(q *models.ReportQuery) {
				q.Filters = []models.FilterGroup{{FieldName: "sessions", MatchType: "EQUAL", Conditions: []interface{}{"many"}}}
			},
			wantField: "filters[0].conditions[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := baseQuery()
			tt.mutate(q)

			err := NewService().Validate(q)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestBuildRequest_JSONNumbersFromDecodedBody(t *testing.T) {
	t.Parallel()

	body := `{
		"property": "123",
		"dimensions": ["country"],
		"metrics": ["sessions"],
		"filters": [{"field_name": "sessions", "match_type": "GREATER_THAN_OR_EQUAL", "conditions": [5]}],
		"order_by": ["sessions", "desc"],
		"start_date": "2024-01-01",
		"end_date": "2024-01-31"
	}`
	var q models.ReportQuery
	require.NoError(t, json.Unmarshal([]byte(body), &q))

	req, err := NewService().BuildRequest(&q)
	require.NoError(t, err)

	require.NotNil(t, req.MetricFilter)
	assert.InDelta(t, 5.0, req.MetricFilter.AndGroup.Expressions[0].Filter.NumericFilter.Value.DoubleValue, 1e-9)
	require.Len(t, req.OrderBys, 1)
	assert.True(t, req.OrderBys[0].Desc)
	assert.Equal(t, "sessions", req.OrderBys[0].Metric.MetricName)
}

func TestBuildRequest_NumericStringConditionsKeepDigits(t *testing.T) {
	t.Parallel()

	body := `{
		"property": "123",
		"dimensions": ["date"],
		"metrics": ["sessions"],
		"filters": [{"field_name": "date", "match_type": "EXACT", "conditions": [20240101, 0.5]}],
		"start_date": "2024-01-01",
		"end_date": "2024-01-31"
	}`

	var q models.ReportQuery
	require.NoError(t, json.Unmarshal([]byte(body), &q))

	req, err := NewService().BuildRequest(&q)
	require.NoError(t, err)
	require.NotNil(t, req.DimensionFilter)
	exprs := req.DimensionFilter.AndGroup.Expressions
	require.Len(t, exprs, 2)
	assert.Equal(t, "20240101", exprs[0].Filter.StringFilter.Value)
	assert.Equal(t, "0.5", exprs[1].Filter.StringFilter.Value)
}

func TestBuildRequest_JSONNumberConditionsAreExact(t *testing.T) {
	t.Parallel()

	body := `{
		"property": "123",
		"dimensions": ["transactionId"],
		"metrics": ["sessions"],
		"filters": [{"field_name": "transactionId", "match_type": "EXACT", "conditions": [12345678901234567890]}],
		"start_date": "2024-01-01",
		"end_date": "2024-01-31"
	}`

	var q models.ReportQuery
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&q))

	req, err := NewService().BuildRequest(&q)
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567890", req.DimensionFilter.AndGroup.Expressions[0].Filter.StringFilter.Value)
}

func TestClassifyKind(t *testing.T) {
	t.Parallel()

	for _, k := range stringMatchTypes {
		assert.Equal(t, KindString, classifyKind(k), k)
	}
	for _, k := range numericOperations {
		assert.Equal(t, KindNumeric, classifyKind(k), k)
	}
	assert.Equal(t, KindString, classifyKind(" full_regexp "))
	assert.Equal(t, KindUnknown, classifyKind(""))
	assert.Equal(t, KindUnknown, classifyKind("BETWEEN"))
}
