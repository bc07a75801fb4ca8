package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"salespulse/internal/analytics"
	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/services"
	"salespulse/internal/sheets"
	"salespulse/pkg/contracts/domain"
)

// workbookSource reads a local XLSX laid out like the online
// spreadsheet, so reports can run without network access.
type workbookSource struct {
	path         string
	targetsSheet string
}

func (s *workbookSource) FetchRows(context.Context) ([]domain.RawRow, error) {
	return dataprocessing.ReadWorkbook(s.path)
}

func (s *workbookSource) FetchTargetRows(context.Context) ([]domain.RawRow, error) {
	return dataprocessing.ReadWorkbookSheet(s.path, s.targetsSheet)
}

func (s *workbookSource) Ping(context.Context) error {
	_, err := os.Stat(s.path)
	return err
}

func main() {
	workbook := flag.String("workbook", "", "local XLSX workbook (empty fetches from Google Sheets)")
	year := flag.Int("year", time.Now().Year(), "report year")
	channel := flag.String("channel", "", "restrict to one sales channel")
	writeJSON := flag.Bool("json", false, "also write JSON alongside CSV")
	flag.Parse()

	if err := run(context.Background(), *workbook, *year, *channel, *writeJSON); err != nil {
		slog.Error("Report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, workbook string, year int, channel string, writeJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	var source services.RowSource
	if workbook != "" {
		logger.Info("Reading local workbook", slog.String("path", workbook))
		source = &workbookSource{path: workbook, targetsSheet: cfg.Sheets.TargetsSheet}
	} else {
		logger.Info("Fetching from Google Sheets")
		client, err := sheets.NewClient(ctx, sheets.Config{
			SheetURL:        cfg.Sheets.SheetURL,
			TargetsSheet:    cfg.Sheets.TargetsSheet,
			CredentialsFile: cfg.GetCredentialsFile(),
			CredentialsKey:  cfg.Sheets.CredentialsKey,
			Timeout:         cfg.Sheets.FetchTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("initialize sheets client: %w", err)
		}
		source = client
	}

	svc := services.NewDashboardService(cfg, source, nil, nil, nil, logger)
	report, err := svc.Refresh(ctx, "report")
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	logger.Info("Snapshot loaded",
		slog.Int("records", report.Records),
		slog.Int("rejected", report.Rejected),
		slog.Int("target_days", report.TargetDays))

	writer := exporter.NewReportWriter(paths)
	date := time.Now().UTC()
	written := make([]string, 0, 8)

	write := func(name string, table *exporter.Report, view interface{}) error {
		path, err := writer.WriteCSVReport(table, date)
		if err != nil {
			return fmt.Errorf("write %s report: %w", name, err)
		}
		written = append(written, path)
		if writeJSON {
			jsonPath, err := writer.WriteJSONReport(name, date, view)
			if err != nil {
				return fmt.Errorf("write %s JSON report: %w", name, err)
			}
			written = append(written, jsonPath)
		}
		return nil
	}

	summary, err := svc.Summary(ctx, year, channel)
	if err != nil {
		return fmt.Errorf("compute summary: %w", err)
	}
	if err := write("summary", exporter.SummaryReport(summary), summary); err != nil {
		return err
	}

	yoy, err := svc.YoY(ctx, year, year-1, analytics.DimMonth, analytics.MetricValue)
	if err != nil {
		return fmt.Errorf("compute year comparison: %w", err)
	}
	if err := write("yoy", exporter.YoYReport(yoy), yoy); err != nil {
		return err
	}

	priceRanges, err := svc.PriceRanges(ctx, year, channel)
	if err != nil {
		return fmt.Errorf("compute price ranges: %w", err)
	}
	if err := write("price_ranges", exporter.PriceRangeReport(priceRanges), priceRanges); err != nil {
		return err
	}

	rankings, err := svc.Rankings(ctx, year, analytics.DimProduct, analytics.MetricValue, cfg.Analytics.TopN)
	if err != nil {
		return fmt.Errorf("compute rankings: %w", err)
	}
	if err := write("rankings", exporter.RankingsReport(rankings), rankings); err != nil {
		return err
	}

	seasonality, err := svc.Seasonality(ctx, analytics.DimMonth)
	if err != nil {
		return fmt.Errorf("compute seasonality: %w", err)
	}
	if err := write("seasonality", exporter.SeasonalityReport(seasonality), seasonality); err != nil {
		return err
	}

	// Targets are optional; a missing worksheet degrades, not fails.
	if targets, err := svc.TargetVariance(ctx, year); err != nil {
		logger.Warn("Target variance unavailable", slog.String("error", err.Error()))
	} else if err := write("targets", exporter.TargetsReport(targets), targets); err != nil {
		return err
	}

	unrecognized, err := svc.Unrecognized(ctx)
	if err != nil {
		return fmt.Errorf("collect unrecognized rows: %w", err)
	}
	if err := write("unrecognized", exporter.UnrecognizedReport(unrecognized), unrecognized); err != nil {
		return err
	}

	printSummary(summary, report, written)
	return nil
}

func printSummary(summary *services.SummaryView, report *services.RefreshReport, written []string) {
	fmt.Printf("\n=== SALES REPORT %d ===\n", summary.Year)
	fmt.Printf("Revenue:  %s\n", summary.Revenue.StringFixed(2))
	fmt.Printf("Units:    %d\n", summary.Units)
	fmt.Printf("Orders:   %d\n", summary.Orders)
	fmt.Printf("AOV:      %s\n", summary.AverageOrderValue.StringFixed(2))
	fmt.Printf("YoY:      %s\n", summary.YoYGrowth.String())
	fmt.Printf("Records:  %d (%d rejected)\n", report.Records, report.Rejected)
	fmt.Println("\nFiles written:")
	for _, path := range written {
		fmt.Printf("  %s\n", path)
	}
}
