package http

import (
	"context"

	"salespulse/internal/analytics"
	"salespulse/internal/services"
)

// DashboardServiceInterface is the slice of the dashboard service the
// handlers call. Tests substitute a mock.
type DashboardServiceInterface interface {
	Summary(ctx context.Context, year int, channel string) (*services.SummaryView, error)
	YoY(ctx context.Context, currentYear, priorYear int, period analytics.Dimension, metric analytics.Metric) (*services.YoYView, error)
	PriceRanges(ctx context.Context, year int, channel string) (*services.PriceRangeView, error)
	Rankings(ctx context.Context, year int, dimension analytics.Dimension, metric analytics.Metric, n int) (*services.RankingsView, error)
	Seasonality(ctx context.Context, period analytics.Dimension) (*services.SeasonalityView, error)
	Patterns(ctx context.Context, year int, channel string) (*services.PatternsView, error)
	TargetVariance(ctx context.Context, year int) (*services.TargetsView, error)
	Unrecognized(ctx context.Context) (*services.UnrecognizedView, error)
	Refresh(ctx context.Context, trigger string) (*services.RefreshReport, error)
	Status() *services.StatusView
}

// HealthServiceInterface is the slice of the health service the
// health handler calls.
type HealthServiceInterface interface {
	Health(ctx context.Context) *services.HealthReport
	Readiness() (bool, *services.StatusView)
	Liveness() map[string]interface{}
	Version() services.VersionInfo
}
