//go:build example
// +build example

package config

import (
	"log/slog"
	"os"
	"time"
)

// ExampleUsage demonstrates how to use the paths package throughout the application
func ExampleUsage() {
	// Always get paths from the centralized GetPaths() function
	paths, err := GetPaths()
	if err != nil {
		slog.Error("Failed to get paths", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure all directories exist at startup
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to ensure directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Log all resolved paths for debugging
	paths.LogPathResolution()

	// Example 1: Google Sheets credentials
	credentialsPath := paths.GetCredentialsPath()
	slog.Info("Sheets credentials", slog.String("path", credentialsPath))

	// Example 2: Dated CSV exports
	today := time.Now()
	summaryCSV := paths.GetSummaryCSVPath(today)
	slog.Info("Today's summary export", slog.String("path", summaryCSV))

	rankingsCSV := paths.GetRankingsCSVPath("value", today)
	slog.Info("Today's rankings export", slog.String("path", rankingsCSV))

	// Example 3: Rejected-row report
	unrecognizedCSV := paths.GetUnrecognizedCSVPath(today)
	slog.Info("Unrecognized rows export", slog.String("path", unrecognizedCSV))

	// Example 4: Validate required files exist before starting
	if err := paths.ValidateRequiredFiles(); err != nil {
		slog.Warn("Missing required files", slog.String("error", err.Error()))
		// Application might want to handle missing files gracefully
	}
}
