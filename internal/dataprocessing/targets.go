package dataprocessing

import (
	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// TargetsConfig names the columns and formats of the targets
// worksheet. The sheet carries one row per day with the revenue target
// for that day.
type TargetsConfig struct {
	DateColumn      string   `yaml:"date_column"`
	AmountColumn    string   `yaml:"amount_column"`
	DateFormats     []string `yaml:"date_formats"`
	CurrencySymbols string   `yaml:"currency_symbols"`
}

// DefaultTargetsConfig matches the TARGETS tab layout: day-first dates
// and sterling amounts.
func DefaultTargetsConfig() TargetsConfig {
	return TargetsConfig{
		DateColumn:   "Date",
		AmountColumn: "Daily Target",
		DateFormats: []string{
			"02/01/2006",
			"2006-01-02",
		},
		CurrencySymbols: "£$€",
	}
}

// IsValid reports whether the configuration can drive parsing.
func (c TargetsConfig) IsValid() bool {
	return c.DateColumn != "" && c.AmountColumn != "" && len(c.DateFormats) > 0
}

// ParseTargets converts raw target rows into entries. Rows that fail
// to parse are skipped: targets are advisory, and a gap simply means
// no target for that day.
func ParseTargets(rows []domain.RawRow, config TargetsConfig) []domain.TargetEntry {
	if !config.IsValid() {
		config = DefaultTargetsConfig()
	}

	entries := make([]domain.TargetEntry, 0, len(rows))
	for _, row := range rows {
		date, err := parseDateIn(row.Cells[config.DateColumn], config.DateFormats)
		if err != nil {
			continue
		}
		cleaned := cleanNumeric(row.Cells[config.AmountColumn], config.CurrencySymbols)
		if cleaned == "" {
			continue
		}
		amount, err := decimal.NewFromString(cleaned)
		if err != nil || amount.IsNegative() {
			continue
		}
		entries = append(entries, domain.TargetEntry{Date: date, Target: amount})
	}
	return entries
}

// TargetsForYear filters entries to one calendar year.
func TargetsForYear(entries []domain.TargetEntry, year int) []domain.TargetEntry {
	out := make([]domain.TargetEntry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}
