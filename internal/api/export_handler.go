package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/your-username/ga-report-adapter/backend/internal/export"
)

// ExportHandler handles report export API endpoints
type ExportHandler struct {
	reports  *ReportHandler
	exporter *export.Exporter
}

// NewExportHandler creates a new export handler
func NewExportHandler(reports *ReportHandler, exporter *export.Exporter) *ExportHandler {
	return &ExportHandler{
		reports:  reports,
		exporter: exporter,
	}
}

// ExportReport runs the posted query and streams the table as a file.
// The format comes from ?format= (csv by default); ?headers=false drops the
// CSV header row.
func (h *ExportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	options := export.ExportOptions{
		Format:         export.ExportFormat(r.URL.Query().Get("format")),
		IncludeHeaders: r.URL.Query().Get("headers") != "false",
		FilePrefix:     "report",
	}
	if options.Format == "" {
		options.Format = export.FormatCSV
	}

	info, ok := export.Lookup(options.Format)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unsupported export format")
		return
	}

	q, ok := h.reports.decodeQuery(w, r)
	if !ok {
		return
	}

	rep, _, err := h.reports.service.Run(r.Context(), q)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	// Buffer so a failed export can still be reported as an error status.
	var buf bytes.Buffer
	result, err := h.exporter.Export(&buf, rep.Result(), options)
	if err != nil {
		log.Error().Err(err).Str("report_id", rep.ID).Msg("Export failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", info.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.FileName))
	w.Header().Set("X-Export-Rows", strconv.Itoa(result.RowCount))
	w.Header().Set("X-Report-ID", rep.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Str("report_id", rep.ID).Msg("Failed to write export")
	}
}

// GetExportFormats returns supported export formats
func (h *ExportHandler) GetExportFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formats": export.Formats(),
	})
}
