package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/your-username/ga-report-adapter/backend/internal/models"
	"github.com/your-username/ga-report-adapter/backend/internal/pagination"
	"github.com/your-username/ga-report-adapter/backend/internal/report"
)

// ReportHandler serves report execution and metadata endpoints
type ReportHandler struct {
	service         *report.Service
	defaultProperty string
	paginator       *pagination.Paginator
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *report.Service, defaultProperty string, paginator *pagination.Paginator) *ReportHandler {
	return &ReportHandler{
		service:         service,
		defaultProperty: defaultProperty,
		paginator:       paginator,
	}
}

// decodeQuery reads a ReportQuery body, filling in the default property
func (h *ReportHandler) decodeQuery(w http.ResponseWriter, r *http.Request) (models.ReportQuery, bool) {
	var q models.ReportQuery
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return q, false
	}
	if q.Property == "" {
		q.Property = h.defaultProperty
	}
	return q, true
}

// RunReport executes a report query
func (h *ReportHandler) RunReport(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	h.execute(w, r, q, false)
}

// RunReportPage executes one page of a report query. The page is selected
// with the page_size and page_token query parameters; limit and offset in
// the body are ignored.
func (h *ReportHandler) RunReportPage(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	page := pagination.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if size := r.URL.Query().Get("page_size"); size != "" {
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid page_size")
			return
		}
		page.PageSize = n
	}

	if err := h.paginator.ValidateRequest(&page); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.paginator.Apply(&q, page); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.execute(w, r, q, true)
}

func (h *ReportHandler) execute(w http.ResponseWriter, r *http.Request, q models.ReportQuery, paged bool) {
	start := time.Now()
	rep, cached, err := h.service.Run(r.Context(), q)
	if err != nil {
		writeJSON(w, statusFor(err), &models.ReportResponse{
			Property: q.Property,
			Error:    err.Error(),
		})
		return
	}

	resp := &models.ReportResponse{
		ID:            rep.ID,
		Property:      q.Property,
		Header:        emptyIfNil(rep.Header()),
		Rows:          emptyRowsIfNil(rep.Data()),
		RowCount:      rep.RowCount(),
		Result:        rep.Result(),
		TotalRows:     rep.TotalRows,
		ExecutionTime: time.Since(start).Milliseconds(),
		Cached:        cached,
	}
	if paged {
		resp.Page = h.paginator.PageInfo(q, rep.RowCount(), rep.TotalRows)
	}
	writeJSON(w, http.StatusOK, resp)
}

// BuildRequest returns the Data API request for a query without running it
func (h *ReportHandler) BuildRequest(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	req, err := h.service.Builder().BuildRequest(&q)
	if err != nil {
		log.Error().Err(err).Msg("Report request generation failed")
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"property": q.Property,
		"request":  req,
	})
}

// ValidateReport validates a query without running it
func (h *ReportHandler) ValidateReport(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	err := h.service.Builder().Validate(&q)

	response := map[string]interface{}{
		"valid": err == nil,
	}
	if err != nil {
		response["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, response)
}

// ListDimensions returns the usable dimension names of a property
func (h *ReportHandler) ListDimensions(w http.ResponseWriter, r *http.Request) {
	property := chi.URLParam(r, "property")
	names, err := h.service.Dimensions(r.Context(), property)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, &models.FieldList{Property: property, Kind: "dimensions", Fields: names, Count: len(names)})
}

// ListMetrics returns the usable metric names of a property
func (h *ReportHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	property := chi.URLParam(r, "property")
	names, err := h.service.Metrics(r.Context(), property)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, &models.FieldList{Property: property, Kind: "metrics", Fields: names, Count: len(names)})
}

// CacheStats returns result cache statistics
func (h *ReportHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.CacheStats())
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyRowsIfNil(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}
