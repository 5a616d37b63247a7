package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/your-username/ga-report-adapter/backend/internal/models"
)

// ExportFormat represents supported export formats
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatJSON  ExportFormat = "json"
	FormatExcel ExportFormat = "xlsx"
)

// FormatInfo describes an export format for clients
type FormatInfo struct {
	Format      ExportFormat `json:"format"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	MimeType    string       `json:"mime_type"`
	Extension   string       `json:"extension"`
}

var formats = []FormatInfo{
	{
		Format:      FormatCSV,
		Name:        "CSV",
		Description: "Comma-separated values, compatible with Excel and other tools",
		MimeType:    "text/csv",
		Extension:   ".csv",
	},
	{
		Format:      FormatJSON,
		Name:        "JSON",
		Description: "Header and rows as a JSON document",
		MimeType:    "application/json",
		Extension:   ".json",
	},
	{
		Format:      FormatExcel,
		Name:        "Excel",
		Description: "Microsoft Excel workbook with a styled header and filters",
		MimeType:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension:   ".xlsx",
	},
}

// Formats returns the supported export formats
func Formats() []FormatInfo {
	return append([]FormatInfo(nil), formats...)
}

// Lookup returns the description of a format
func Lookup(format ExportFormat) (FormatInfo, bool) {
	for _, f := range formats {
		if f.Format == format {
			return f, true
		}
	}
	return FormatInfo{}, false
}

// ExportOptions defines export parameters
type ExportOptions struct {
	Format         ExportFormat `json:"format"`
	IncludeHeaders bool         `json:"include_headers"`
	SheetName      string       `json:"sheet_name,omitempty"`
	FilePrefix     string       `json:"file_prefix,omitempty"`
}

// ExportResult contains export operation results
type ExportResult struct {
	Format   ExportFormat  `json:"format"`
	RowCount int           `json:"row_count"`
	Duration time.Duration `json:"duration"`
	FileName string        `json:"file_name"`
}

// Exporter writes report tables in various formats
type Exporter struct {
	now func() time.Time
}

// NewExporter creates a new exporter
func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// FileName returns the download name for a format
func (e *Exporter) FileName(options ExportOptions) string {
	prefix := options.FilePrefix
	if prefix == "" {
		prefix = "report"
	}
	ext := "." + string(options.Format)
	if info, ok := Lookup(options.Format); ok {
		ext = info.Extension
	}
	return fmt.Sprintf("%s_%s%s", prefix, e.now().Format("20060102_150405"), ext)
}

// Export writes table to writer in the requested format
func (e *Exporter) Export(writer io.Writer, table models.ResultTable, options ExportOptions) (*ExportResult, error) {
	start := e.now()
	result := &ExportResult{
		Format:   options.Format,
		FileName: e.FileName(options),
	}
	if len(table) > 1 {
		result.RowCount = len(table) - 1
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportCSV(writer, table, options)
	case FormatJSON:
		err = e.exportJSON(writer, table)
	case FormatExcel:
		err = e.exportExcel(writer, table, options)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", options.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", options.Format, err)
	}

	result.Duration = e.now().Sub(start)
	return result, nil
}

// exportCSV writes the header row (optional) and data rows
func (e *Exporter) exportCSV(writer io.Writer, table models.ResultTable, options ExportOptions) error {
	csvWriter := csv.NewWriter(writer)

	for i, row := range table {
		if i == 0 && !options.IncludeHeaders {
			continue
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// exportJSON writes {"header": [...], "rows": [[...]], "count": n}
func (e *Exporter) exportJSON(writer io.Writer, table models.ResultTable) error {
	header := []string{}
	rows := [][]string{}
	if len(table) > 0 {
		header = table[0]
		rows = table[1:]
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(map[string]interface{}{
		"header":   header,
		"rows":     rows,
		"count":    len(rows),
		"exported": e.now(),
	})
}

// exportExcel writes the table into a single sheet with a bold header row
func (e *Exporter) exportExcel(writer io.Writer, table models.ResultTable, options ExportOptions) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := options.SheetName
	if sheet == "" {
		sheet = "Report"
	}
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 12,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 2},
		},
	})
	if err != nil {
		return err
	}

	for r, row := range table {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if len(table) > 0 && len(table[0]) > 0 {
		columns := len(table[0])
		first, _ := excelize.CoordinatesToCellName(1, 1)
		lastHeader, _ := excelize.CoordinatesToCellName(columns, 1)
		if err := file.SetCellStyle(sheet, first, lastHeader, headerStyle); err != nil {
			return err
		}

		lastColumn, _ := excelize.ColumnNumberToName(columns)
		if err := file.SetColWidth(sheet, "A", lastColumn, 20); err != nil {
			return err
		}

		if len(table) > 1 {
			lastCell, _ := excelize.CoordinatesToCellName(columns, len(table))
			if err := file.AutoFilter(sheet, first+":"+lastCell, nil); err != nil {
				return err
			}
		}
	}

	return file.Write(writer)
}
