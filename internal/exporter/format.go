package exporter

import (
	"fmt"

	"github.com/shopspring/decimal"

	"salespulse/internal/analytics"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	// Always format with exactly 2 decimal places for consistency
	// This ensures values like 13.4 appear as 13.40 in CSV
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatDecimal renders a currency amount with 2 decimal places.
func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatPercent renders a percent change, preserving sentinels so a
// spreadsheet reader sees "undefined" rather than a bogus number.
func formatPercent(p analytics.Percent) string {
	return p.String()
}

// formatShare renders a 0..1 share as a percentage with 2 decimals.
func formatShare(share float64) string {
	return fmt.Sprintf("%.2f", share*100)
}
