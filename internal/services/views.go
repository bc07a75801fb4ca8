package services

import (
	"time"

	"github.com/shopspring/decimal"

	"salespulse/internal/analytics"
	"salespulse/pkg/contracts/domain"
)

// RefreshReport summarizes one snapshot rebuild.
type RefreshReport struct {
	Trigger    string        `json:"trigger"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Records    int           `json:"records"`
	Rejected   int           `json:"rejected"`
	TargetDays int           `json:"target_days"`
	Duration   time.Duration `json:"duration_ms"`
}

// MonthSummary is one month's totals inside a year summary.
type MonthSummary struct {
	Month   string          `json:"month"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Units   int64           `json:"units"`
	Orders  int             `json:"orders"`
}

// SummaryView is the KPI header of the dashboard: one year's totals
// with the change against the year before.
type SummaryView struct {
	Year    int    `json:"year"`
	Channel string `json:"channel,omitempty"`

	Revenue decimal.Decimal `json:"revenue"`
	Units   int64           `json:"units"`
	Orders  int             `json:"orders"`

	// AverageOrderValue is revenue / orders, zero when there are no orders.
	AverageOrderValue decimal.Decimal `json:"average_order_value"`

	// YoYGrowth is the revenue change against the prior year. Sentinel
	// when the prior year had no revenue.
	YoYGrowth analytics.Percent `json:"yoy_growth"`

	Months []MonthSummary `json:"months"`
}

// YoYView aligns two years on a shared period axis.
type YoYView struct {
	CurrentYear int    `json:"current_year"`
	PriorYear   int    `json:"prior_year"`
	Period      string `json:"period"`
	Metric      string `json:"metric"`

	Rows []YoYRow `json:"rows"`
}

// YoYRow is one aligned period with a display label ("Jan", "W05").
type YoYRow struct {
	analytics.ComparisonRow
	Label string `json:"label"`
}

// PriceRangeRow is one price bucket's slice of the year.
type PriceRangeRow struct {
	Bucket  string          `json:"bucket"`
	Revenue decimal.Decimal `json:"revenue"`
	Units   int64           `json:"units"`
	Orders  int             `json:"orders"`

	// Share is bucket revenue / total revenue, 0 when total is 0.
	Share float64 `json:"share"`

	// AverageOrderValue is the bucket's revenue per order.
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// PriceRangeView is the price-bucket rollup for one year.
type PriceRangeView struct {
	Year    int             `json:"year"`
	Channel string          `json:"channel,omitempty"`
	Total   decimal.Decimal `json:"total"`
	Buckets []PriceRangeRow `json:"buckets"`
}

// RankingsView wraps a ranking run with the parameters that produced it.
type RankingsView struct {
	Year      int    `json:"year"`
	Dimension string `json:"dimension"`
	Metric    string `json:"metric"`
	N         int    `json:"n"`

	*analytics.RankingResult
}

// SeasonalityView wraps the seasonality index with its period choice.
type SeasonalityView struct {
	Period string `json:"period"`

	*analytics.SeasonalityResult
}

// PatternsView is the day-of-week profile with best and worst days
// called out for the dashboard header.
type PatternsView struct {
	Year    int    `json:"year,omitempty"`
	Channel string `json:"channel,omitempty"`

	*analytics.PatternResult

	BestDay  string `json:"best_day"`
	WorstDay string `json:"worst_day"`
}

// TargetsView is monthly actual vs target for one year.
type TargetsView struct {
	Year int `json:"year"`

	*analytics.TargetResult
}

// UnrecognizedView is the rejected-row audit.
type UnrecognizedView struct {
	Total int                      `json:"total"`
	Rows  []domain.UnrecognizedRow `json:"rows"`
}

// StatusView describes the loaded snapshot for health and refresh
// responses.
type StatusView struct {
	Loaded      bool       `json:"loaded"`
	FetchedAt   *time.Time `json:"fetched_at,omitempty"`
	Records     int        `json:"records"`
	Rejected    int        `json:"rejected"`
	Years       []int      `json:"years,omitempty"`
	TargetDays  int        `json:"target_days"`
	Refreshing  bool       `json:"refreshing"`
	NextRefresh *time.Time `json:"next_refresh,omitempty"`
}
