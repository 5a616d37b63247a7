package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/your-username/ga-report-adapter/backend/internal/export"
	"github.com/your-username/ga-report-adapter/backend/internal/models"
	"github.com/your-username/ga-report-adapter/backend/internal/querybuilder"
	"github.com/your-username/ga-report-adapter/backend/internal/report"
)

// queryFlags are shared by run and request
type queryFlags struct {
	dimensions    []string
	metrics       []string
	filters       []string
	order         string
	start         string
	end           string
	limit         int64
	keepEmptyRows bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.dimensions, "dimension", "d", nil, "Dimension name (repeatable or comma separated)")
	cmd.Flags().StringSliceVarP(&f.metrics, "metric", "m", nil, "Metric name (repeatable or comma separated)")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "Filter as FIELD:MATCH_TYPE:v1,v2 (repeatable)")
	cmd.Flags().StringVarP(&f.order, "order", "o", "", "Order as FIELD[:desc]")
	cmd.Flags().StringVar(&f.start, "start", "28daysAgo", "Start date (yyyy-MM-dd, today, yesterday, NdaysAgo)")
	cmd.Flags().StringVar(&f.end, "end", "yesterday", "End date (yyyy-MM-dd, today, yesterday, NdaysAgo)")
	cmd.Flags().Int64Var(&f.limit, "limit", 0, "Maximum rows to return (0 = service default)")
	cmd.Flags().BoolVar(&f.keepEmptyRows, "keep-empty-rows", false, "Return rows whose metrics are all zero")
}

func (f *queryFlags) query(property string) (models.ReportQuery, error) {
	q := models.ReportQuery{
		Property:      property,
		Dimensions:    f.dimensions,
		Metrics:       f.metrics,
		OrderBy:       parseOrder(f.order),
		StartDate:     f.start,
		EndDate:       f.end,
		Limit:         f.limit,
		KeepEmptyRows: f.keepEmptyRows,
	}
	for _, raw := range f.filters {
		group, err := parseFilter(raw)
		if err != nil {
			return q, err
		}
		q.Filters = append(q.Filters, group)
	}
	return q, nil
}

// parseFilter parses FIELD:MATCH_TYPE:v1,v2. Numeric values stay strings and
// are converted when the request is built.
func parseFilter(raw string) (models.FilterGroup, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return models.FilterGroup{}, fmt.Errorf("invalid filter %q: want FIELD:MATCH_TYPE:v1,v2", raw)
	}

	group := models.FilterGroup{
		FieldName: parts[0],
		MatchType: parts[1],
	}
	for _, v := range strings.Split(parts[2], ",") {
		group.Conditions = append(group.Conditions, v)
	}
	return group, nil
}

// parseOrder parses FIELD[:direction]
func parseOrder(raw string) models.OrderBy {
	field, direction, _ := strings.Cut(raw, ":")
	return models.OrderBy{Field: field, Direction: direction}
}

func newRunCmd(a *app) *cobra.Command {
	var (
		flags    queryFlags
		format   string
		outFile  string
		noHeader bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a report and print the result table",
		Example: `  gareport run -p 123456 -d country -m sessions -o sessions:desc --start 2024-01-01 --end 2024-01-31
  gareport run -p 123456 -d country,city -m activeUsers -f country:EXACT:US -f activeUsers:GREATER_THAN:10 --format csv --out report.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			property, err := a.property()
			if err != nil {
				return err
			}
			q, err := flags.query(property)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, err := a.client(ctx)
			if err != nil {
				return err
			}

			rep, err := report.Run(ctx, client, q)
			if err != nil {
				return err
			}

			w := a.stdout
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outFile, err)
				}
				defer f.Close()
				w = f
			}

			if format == "table" {
				return printTable(w, rep.Result())
			}

			_, err = export.NewExporter().Export(w, rep.Result(), export.ExportOptions{
				Format:         export.ExportFormat(format),
				IncludeHeaders: !noHeader,
			})
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, csv, json, xlsx)")
	cmd.Flags().StringVar(&outFile, "out", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Omit the header row in csv output")
	return cmd
}

func newRequestCmd(a *app) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Print the Data API request a report would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			property, err := a.property()
			if err != nil {
				return err
			}
			q, err := flags.query(property)
			if err != nil {
				return err
			}

			body, err := querybuilder.NewService().RequestJSON(&q)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, string(body))
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

func newFieldsCmd(a *app, use, short string, lookup func(context.Context, report.MetadataFetcher, string) ([]string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			property, err := a.property()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, err := a.client(ctx)
			if err != nil {
				return err
			}

			names, err := lookup(ctx, client, property)
			if err != nil {
				return err
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(a.stdout, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// printTable renders the table with aligned columns. An empty table prints
// "(no rows)".
func printTable(w io.Writer, table models.ResultTable) error {
	if len(table) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range table {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
