package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReportQuery is the declarative description of a single report run
type ReportQuery struct {
	Property      string        `json:"property"`
	Dimensions    []string      `json:"dimensions"`
	Metrics       []string      `json:"metrics"`
	Filters       []FilterGroup `json:"filters,omitempty"`
	OrderBy       OrderBy       `json:"order_by"`
	StartDate     string        `json:"start_date"` // yyyy-MM-dd
	EndDate       string        `json:"end_date"`   // yyyy-MM-dd
	Limit         int64         `json:"limit,omitempty"`
	Offset        int64         `json:"offset,omitempty"`
	KeepEmptyRows bool          `json:"keep_empty_rows,omitempty"`
}

// FilterGroup applies one match kind to every condition value of a field.
// Conditions are strings for string match kinds and numbers (or numeric
// strings) for numeric comparison kinds.
type FilterGroup struct {
	FieldName     string        `json:"field_name"`
	MatchType     string        `json:"match_type"`
	Conditions    []interface{} `json:"conditions"`
	CaseSensitive bool          `json:"case_sensitive,omitempty"`
}

// OrderBy names the field to sort on and its direction token.
// Only the exact token "desc" sorts descending.
type OrderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// Desc reports whether the direction token requests descending order
func (o OrderBy) Desc() bool {
	return o.Direction == "desc"
}

// UnmarshalJSON accepts either {"field":..,"direction":..} or the
// two-element form ["sessions", "desc"].
func (o *OrderBy) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*o = OrderBy{}
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var pair []string
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("invalid order_by pair: %w", err)
		}
		if len(pair) > 2 {
			return fmt.Errorf("order_by pair has %d elements, want at most 2", len(pair))
		}
		*o = OrderBy{}
		if len(pair) > 0 {
			o.Field = pair[0]
		}
		if len(pair) > 1 {
			o.Direction = pair[1]
		}
		return nil
	}

	type plain OrderBy
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = OrderBy(p)
	return nil
}

// ResultTable holds a header row followed by data rows. A table without rows
// has no header either.
type ResultTable [][]string

// Clone returns a deep copy of the table
func (t ResultTable) Clone() ResultTable {
	if t == nil {
		return nil
	}
	out := make(ResultTable, len(t))
	for i, row := range t {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// ReportResponse is the API representation of an executed report
type ReportResponse struct {
	ID            string      `json:"id"`
	Property      string      `json:"property"`
	Header        []string    `json:"header"`
	Rows          [][]string  `json:"rows"`
	RowCount      int         `json:"row_count"`
	Result        ResultTable `json:"result"`
	TotalRows     int64       `json:"total_rows"`
	ExecutionTime int64       `json:"execution_time_ms"`
	Cached        bool        `json:"cached"`
	Page          *PageInfo   `json:"page,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// PageInfo links a paged report to its neighbouring pages
type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	PrevPageToken string `json:"prev_page_token,omitempty"`
	TotalCount    int64  `json:"total_count"`
	PageSize      int64  `json:"page_size"`
	HasMore       bool   `json:"has_more"`
}

// FieldList is returned by the metadata endpoints
type FieldList struct {
	Property string   `json:"property"`
	Kind     string   `json:"kind"` // dimensions, metrics
	Fields   []string `json:"fields"`
	Count    int      `json:"count"`
}
