package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/analytics"
	"salespulse/internal/cache"
	"salespulse/internal/config"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

type fakeSource struct {
	mu         sync.Mutex
	rows       []domain.RawRow
	targetRows []domain.RawRow
	fetchErr   error
	targetErr  error
	pingErr    error
	fetches    int
}

func (f *fakeSource) FetchRows(_ context.Context) ([]domain.RawRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.rows, nil
}

func (f *fakeSource) FetchTargetRows(_ context.Context) ([]domain.RawRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.targetErr != nil {
		return nil, f.targetErr
	}
	return f.targetRows, nil
}

func (f *fakeSource) Ping(_ context.Context) error {
	return f.pingErr
}

type fakeHub struct {
	mu     sync.Mutex
	events []string
}

func (h *fakeHub) BroadcastUpdate(event string, _ interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *fakeHub) ClientCount() int { return 0 }

func (h *fakeHub) eventCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func targetRawRows() []domain.RawRow {
	return []domain.RawRow{
		{Source: "TARGETS", Number: 2, Cells: map[string]string{
			"Date": "06/01/2024", "Daily Target": "100.00",
		}},
		{Source: "TARGETS", Number: 3, Cells: map[string]string{
			"Date": "14/02/2024", "Daily Target": "50.00",
		}},
	}
}

func newTestService(t *testing.T, source *fakeSource) (*DashboardService, *fakeHub) {
	t.Helper()

	cfg := config.Default()
	cfg.Sheets.RefreshInterval = 0

	store := cache.New(time.Minute, 64)
	t.Cleanup(store.Stop)

	logger, _ := testutil.NewTestLogger(t)
	hub := &fakeHub{}

	svc := NewDashboardService(cfg, source, store, hub, nil, logger)
	t.Cleanup(svc.Stop)
	return svc, hub
}

func seededSource() *fakeSource {
	fixtures := testutil.NewSalesTestFixtures("")
	return &fakeSource{
		rows:       fixtures.GetRawRows(),
		targetRows: targetRawRows(),
	}
}

func TestQueriesBeforeFirstRefresh(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()

	_, err := svc.Summary(ctx, 2024, "")
	assert.ErrorIs(t, err, apperrors.ErrSnapshotPending)

	_, err = svc.Unrecognized(ctx)
	assert.ErrorIs(t, err, apperrors.ErrSnapshotPending)

	_, err = svc.Snapshot()
	assert.ErrorIs(t, err, apperrors.ErrSnapshotPending)
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	svc, hub := newTestService(t, seededSource())
	ctx := context.Background()

	report, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	assert.Equal(t, "manual", report.Trigger)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 0, report.Rejected)
	assert.Equal(t, 2, report.TargetDays)
	assert.Equal(t, 1, hub.eventCount())

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Dataset.Records, 3)
	assert.True(t, snap.TargetsOK)
}

func TestRefreshConcurrencyGuard(t *testing.T) {
	svc, _ := newTestService(t, seededSource())

	svc.refreshing.Store(true)
	_, err := svc.Refresh(context.Background(), "manual")
	assert.ErrorIs(t, err, apperrors.ErrRefreshInFlight)
}

func TestRefreshEmptySheet(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{})

	_, err := svc.Refresh(context.Background(), "manual")
	assert.ErrorIs(t, err, apperrors.ErrSheetEmpty)
}

func TestRefreshSourceUnreachable(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{fetchErr: errors.New("dial tcp: timeout")})

	_, err := svc.Refresh(context.Background(), "manual")
	assert.ErrorIs(t, err, apperrors.ErrSheetUnreachable)
}

func TestRefreshSurvivesTargetFailure(t *testing.T) {
	source := seededSource()
	source.targetErr = errors.New("no such worksheet")
	svc, _ := newTestService(t, source)
	ctx := context.Background()

	report, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, 0, report.TargetDays)

	_, err = svc.TargetVariance(ctx, 2024)
	assert.ErrorIs(t, err, apperrors.ErrTargetsUnavailable)
}

func TestSummaryTotals(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.Summary(ctx, 2024, "")
	require.NoError(t, err)

	assert.Equal(t, "82.46", view.Revenue.StringFixed(2))
	assert.Equal(t, int64(7), view.Units)
	assert.Equal(t, 2, view.Orders)
	assert.Equal(t, "41.23", view.AverageOrderValue.StringFixed(2))
	require.Len(t, view.Months, 2)
	assert.Equal(t, "2024-01", view.Months[0].Month)
	assert.Equal(t, "Jan", view.Months[0].Label)

	// No 2023 data, so growth has no denominator.
	assert.Equal(t, analytics.SentinelUndefined, view.YoYGrowth.Sentinel)
}

func TestSummaryChannelFilter(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.Summary(ctx, 2024, "amazon")
	require.NoError(t, err)

	assert.Equal(t, 1, view.Orders)
	assert.Equal(t, "35.96", view.Revenue.StringFixed(2))
}

func TestSummaryServedFromCache(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	first, err := svc.Summary(ctx, 2024, "")
	require.NoError(t, err)
	second, err := svc.Summary(ctx, 2024, "")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestRefreshInvalidatesCache(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	first, err := svc.Summary(ctx, 2024, "")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	second, err := svc.Summary(ctx, 2024, "")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestYoYView(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.YoY(ctx, 2025, 2024, analytics.DimMonth, analytics.MetricValue)
	require.NoError(t, err)

	assert.Equal(t, 2025, view.CurrentYear)
	require.NotEmpty(t, view.Rows)
	for _, row := range view.Rows {
		assert.NotEmpty(t, row.Label)
	}
}

func TestYoYInvalidPeriod(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	_, err = svc.YoY(ctx, 2025, 2024, analytics.DimProduct, analytics.MetricValue)
	assert.ErrorIs(t, err, analytics.ErrInvalidConfig)
}

func TestPriceRangeSharesSumToOne(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.PriceRanges(ctx, 2024, "")
	require.NoError(t, err)
	require.NotEmpty(t, view.Buckets)

	total := 0.0
	for _, b := range view.Buckets {
		total += b.Share
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestRankingsTopBottomDisjoint(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.Rankings(ctx, 0, analytics.DimProduct, analytics.MetricValue, 2)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, e := range view.Top {
		seen[e.Key.String()] = true
	}
	for _, e := range view.Bottom {
		assert.False(t, seen[e.Key.String()], "key %s ranked both top and bottom", e.Key)
	}
}

func TestRankingsDefaultN(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.Rankings(ctx, 0, analytics.DimProduct, analytics.MetricValue, 0)
	require.NoError(t, err)
	assert.Equal(t, svc.cfg.Analytics.TopN, view.N)
}

func TestSeasonalityDefaultsToMonths(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.Seasonality(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, string(analytics.DimMonth), view.Period)
	assert.NotEmpty(t, view.Rows)
}

func TestPatternsBestWorst(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.Patterns(ctx, 0, "")
	require.NoError(t, err)
	assert.NotEmpty(t, view.BestDay)
	assert.NotEmpty(t, view.WorstDay)
}

func TestTargetVariance(t *testing.T) {
	svc, _ := newTestService(t, seededSource())
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)

	view, err := svc.TargetVariance(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, view.Year)
	assert.NotEmpty(t, view.Rows)
}

func TestUnrecognizedAudit(t *testing.T) {
	fixtures := testutil.NewSalesTestFixtures("")
	rows := fixtures.GetRawRows()
	rows = append(rows, fixtures.GetMalformedRawRows()["invalid_date"])

	svc, _ := newTestService(t, &fakeSource{rows: rows})
	ctx := context.Background()
	report, err := svc.Refresh(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rejected)

	view, err := svc.Unrecognized(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, view.Total)
	assert.Equal(t, domain.ReasonInvalidDate, view.Rows[0].Reason)
}

func TestStatusLifecycle(t *testing.T) {
	svc, _ := newTestService(t, seededSource())

	status := svc.Status()
	assert.False(t, status.Loaded)
	assert.Nil(t, status.FetchedAt)

	_, err := svc.Refresh(context.Background(), "manual")
	require.NoError(t, err)

	status = svc.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Records)
	assert.Equal(t, []int{2024, 2025}, status.Years)
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		prior    string
		sentinel string
		value    float64
	}{
		{name: "growth", current: "150", prior: "100", value: 50},
		{name: "decline", current: "50", prior: "100", value: -50},
		{name: "zero prior", current: "10", prior: "0", sentinel: analytics.SentinelUndefined},
		{name: "both zero", current: "0", prior: "0", sentinel: analytics.SentinelUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := growthPercent(mustDecimal(t, tt.current), mustDecimal(t, tt.prior))
			if tt.sentinel != "" {
				assert.Equal(t, tt.sentinel, p.Sentinel)
				return
			}
			require.True(t, p.Defined())
			assert.InDelta(t, tt.value, p.Value, 1e-9)
		})
	}
}
