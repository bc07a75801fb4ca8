package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"salespulse/internal/config"
	"salespulse/internal/services"
)

// Report is one flat exportable table: a name for the file, a header
// row and the data rows, already formatted for display.
type Report struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// FileName returns the dated CSV file name for this report.
func (r *Report) FileName(date time.Time) string {
	return fmt.Sprintf("%s_%s.csv", r.Name, date.Format("2006-01-02"))
}

// WriteTo streams the report as CSV, BOM first, to any writer. Used
// by the download endpoints.
func (r *Report) WriteTo(w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range r.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SummaryReport flattens the KPI summary into monthly rows.
func SummaryReport(view *services.SummaryView) *Report {
	rows := make([][]string, 0, len(view.Months))
	for _, m := range view.Months {
		rows = append(rows, []string{
			m.Month,
			m.Label,
			formatDecimal(m.Revenue),
			formatInt(m.Units),
			formatInt(int64(m.Orders)),
		})
	}
	return &Report{
		Name:    "summary",
		Headers: []string{"Month", "Label", "Revenue", "Units", "Orders"},
		Rows:    rows,
	}
}

// PriceRangeReport flattens the price-bucket rollup.
func PriceRangeReport(view *services.PriceRangeView) *Report {
	rows := make([][]string, 0, len(view.Buckets))
	for _, b := range view.Buckets {
		rows = append(rows, []string{
			b.Bucket,
			formatDecimal(b.Revenue),
			formatInt(b.Units),
			formatInt(int64(b.Orders)),
			formatShare(b.Share),
			formatDecimal(b.AverageOrderValue),
		})
	}
	return &Report{
		Name:    "price_ranges",
		Headers: []string{"Bucket", "Revenue", "Units", "Orders", "Share %", "AOV"},
		Rows:    rows,
	}
}

// RankingsReport flattens top and bottom entries into one table with
// a rank column counting from 1 in each direction.
func RankingsReport(view *services.RankingsView) *Report {
	rows := make([][]string, 0, len(view.Top)+len(view.Bottom))
	for i, e := range view.Top {
		rows = append(rows, []string{"top", formatInt(int64(i + 1)), e.Key.String(), formatFloat(e.Metric)})
	}
	for i, e := range view.Bottom {
		rows = append(rows, []string{"bottom", formatInt(int64(i + 1)), e.Key.String(), formatFloat(e.Metric)})
	}
	return &Report{
		Name:    "rankings",
		Headers: []string{"List", "Rank", view.Dimension, view.Metric},
		Rows:    rows,
	}
}

// YoYReport flattens an aligned year comparison.
func YoYReport(view *services.YoYView) *Report {
	rows := make([][]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, []string{
			r.Label,
			formatDecimal(r.Prior),
			formatDecimal(r.Current),
			formatDecimal(r.Delta),
			formatPercent(r.Percent),
			formatBool(r.New),
			formatBool(r.Discontinued),
		})
	}
	return &Report{
		Name: "yoy",
		Headers: []string{
			"Period",
			fmt.Sprintf("%d", view.PriorYear),
			fmt.Sprintf("%d", view.CurrentYear),
			"Delta", "Change %", "New", "Discontinued",
		},
		Rows: rows,
	}
}

// SeasonalityReport flattens the seasonality index.
func SeasonalityReport(view *services.SeasonalityView) *Report {
	rows := make([][]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, []string{
			r.Cycle,
			r.Period,
			formatDecimal(r.Value),
			formatInt(r.Units),
			formatShare(r.Share),
			formatFloat(r.WeightedPrice),
		})
	}
	return &Report{
		Name:    "seasonality",
		Headers: []string{"Year", "Period", "Revenue", "Units", "Share %", "Weighted Price"},
		Rows:    rows,
	}
}

// TargetsReport flattens monthly target attainment.
func TargetsReport(view *services.TargetsView) *Report {
	rows := make([][]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, []string{
			r.Month,
			formatDecimal(r.Actual),
			formatDecimal(r.Target),
			formatDecimal(r.Variance),
			formatFloat(r.Attainment),
		})
	}
	return &Report{
		Name:    "targets",
		Headers: []string{"Month", "Actual", "Target", "Variance", "Attainment %"},
		Rows:    rows,
	}
}

// UnrecognizedReport flattens the rejected-row audit so a human can
// find each offending cell in the source worksheet.
func UnrecognizedReport(view *services.UnrecognizedView) *Report {
	rows := make([][]string, 0, len(view.Rows))
	for _, u := range view.Rows {
		rows = append(rows, []string{
			u.Row.Source,
			formatInt(int64(u.Row.Number)),
			string(u.Reason),
			u.Field,
			u.Detail,
		})
	}
	return &Report{
		Name:    "unrecognized",
		Headers: []string{"Worksheet", "Row", "Reason", "Field", "Detail"},
		Rows:    rows,
	}
}

// ReportWriter persists reports into the exports directory.
type ReportWriter struct {
	csv   *CSVWriter
	paths *config.Paths
}

// NewReportWriter creates a writer rooted at the resolved paths.
func NewReportWriter(paths *config.Paths) *ReportWriter {
	return &ReportWriter{
		csv:   NewCSVWriter(paths),
		paths: paths,
	}
}

// WriteCSVReport writes one report as a dated CSV file and returns
// the full path written.
func (w *ReportWriter) WriteCSVReport(report *Report, date time.Time) (string, error) {
	name := report.FileName(date)
	if err := w.csv.WriteSimpleCSV(name, report.Headers, report.Rows); err != nil {
		return "", err
	}
	return w.paths.GetExportPath(name), nil
}

// WriteJSONReport writes any view as a dated, indented JSON file and
// returns the full path written.
func (w *ReportWriter) WriteJSONReport(name string, date time.Time, v interface{}) (string, error) {
	fileName := fmt.Sprintf("%s_%s.json", name, date.Format("2006-01-02"))
	fullPath := w.paths.GetExportPath(fileName)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s report: %w", name, err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s report: %w", name, err)
	}
	return fullPath, nil
}
