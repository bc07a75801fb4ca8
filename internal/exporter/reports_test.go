package exporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/analytics"
	"salespulse/internal/config"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSummary() *services.SummaryView {
	return &services.SummaryView{
		Year:              2024,
		Revenue:           d("82.46"),
		Units:             7,
		Orders:            2,
		AverageOrderValue: d("41.23"),
		YoYGrowth:         analytics.PercentSentinel(analytics.SentinelUndefined),
		Months: []services.MonthSummary{
			{Month: "2024-01", Label: "Jan", Revenue: d("35.96"), Units: 4, Orders: 1},
			{Month: "2024-02", Label: "Feb", Revenue: d("46.50"), Units: 3, Orders: 1},
		},
	}
}

func TestSummaryReportRows(t *testing.T) {
	report := SummaryReport(sampleSummary())

	assert.Equal(t, "summary", report.Name)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, []string{"2024-01", "Jan", "35.96", "4", "1"}, report.Rows[0])
}

func TestReportWriteToIncludesBOM(t *testing.T) {
	report := SummaryReport(sampleSummary())

	var buf bytes.Buffer
	require.NoError(t, report.WriteTo(&buf))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Month,Label,Revenue,Units,Orders", strings.TrimSpace(lines[0]))
}

func TestPriceRangeReportShares(t *testing.T) {
	view := &services.PriceRangeView{
		Year:  2024,
		Total: d("100.00"),
		Buckets: []services.PriceRangeRow{
			{Bucket: "£0-£5", Revenue: d("25.00"), Units: 5, Orders: 2, Share: 0.25, AverageOrderValue: d("12.50")},
			{Bucket: "£5-£10", Revenue: d("75.00"), Units: 9, Orders: 3, Share: 0.75, AverageOrderValue: d("25.00")},
		},
	}

	report := PriceRangeReport(view)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "25.00", report.Rows[0][4])
	assert.Equal(t, "75.00", report.Rows[1][4])
}

func TestRankingsReportSections(t *testing.T) {
	view := &services.RankingsView{
		Dimension: "product",
		Metric:    "value",
		N:         2,
		RankingResult: &analytics.RankingResult{
			Metric: analytics.MetricValue,
			Top: []analytics.RankingEntry{
				{Key: analytics.Key{"MUG-RED-11OZ"}, Metric: 89.9},
			},
			Bottom: []analytics.RankingEntry{
				{Key: analytics.Key{"POSTER-A3"}, Metric: 42.5},
			},
		},
	}

	report := RankingsReport(view)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, []string{"top", "1", "MUG-RED-11OZ", "89.90"}, report.Rows[0])
	assert.Equal(t, []string{"bottom", "1", "POSTER-A3", "42.50"}, report.Rows[1])
}

func TestYoYReportSentinels(t *testing.T) {
	view := &services.YoYView{
		CurrentYear: 2025,
		PriorYear:   2024,
		Rows: []services.YoYRow{
			{
				ComparisonRow: analytics.ComparisonRow{
					Key:     analytics.Key{"03"},
					Current: d("20.00"),
					Prior:   decimal.Zero,
					Delta:   d("20.00"),
					Percent: analytics.PercentSentinel(analytics.SentinelNew),
					New:     true,
				},
				Label: "Mar",
			},
		},
	}

	report := YoYReport(view)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "new", report.Rows[0][4])
	assert.Equal(t, "true", report.Rows[0][5])
}

func TestUnrecognizedReportRows(t *testing.T) {
	view := &services.UnrecognizedView{
		Total: 1,
		Rows: []domain.UnrecognizedRow{
			{
				Row:    domain.RawRow{Source: "2024", Number: 9},
				Reason: domain.ReasonInvalidDate,
				Field:  "Date",
				Detail: `unparseable date "not-a-date"`,
			},
		},
	}

	report := UnrecognizedReport(view)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, []string{"2024", "9", "invalid-date", "Date", `unparseable date "not-a-date"`}, report.Rows[0])
}

func TestReportFileName(t *testing.T) {
	report := &Report{Name: "summary"}
	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "summary_2025-08-01.csv", report.FileName(date))
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	return &config.Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, "data"),
		ExportsDir:    filepath.Join(base, "exports"),
		LogsDir:       filepath.Join(base, "logs"),
	}
}

func TestReportWriterCSV(t *testing.T) {
	writer := NewReportWriter(testPaths(t))
	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	path, err := writer.WriteCSVReport(SummaryReport(sampleSummary()), date)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(data), "35.96")
}

func TestReportWriterJSON(t *testing.T) {
	writer := NewReportWriter(testPaths(t))
	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	path, err := writer.WriteJSONReport("summary", date, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, "summary_2025-08-01.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 2024, decoded["year"])
}
