package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/analytics"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/services"
	"salespulse/internal/shared/testutil"
)

// mockDashboardService returns canned views, or err from every method
// when set.
type mockDashboardService struct {
	err error

	summary      *services.SummaryView
	yoy          *services.YoYView
	priceRanges  *services.PriceRangeView
	rankings     *services.RankingsView
	seasonality  *services.SeasonalityView
	patterns     *services.PatternsView
	targets      *services.TargetsView
	unrecognized *services.UnrecognizedView
	report       *services.RefreshReport
	status       *services.StatusView

	lastYear    int
	lastChannel string
	lastN       int
}

func (m *mockDashboardService) Summary(_ context.Context, year int, channel string) (*services.SummaryView, error) {
	m.lastYear, m.lastChannel = year, channel
	return m.summary, m.err
}

func (m *mockDashboardService) YoY(_ context.Context, year, _ int, _ analytics.Dimension, _ analytics.Metric) (*services.YoYView, error) {
	m.lastYear = year
	return m.yoy, m.err
}

func (m *mockDashboardService) PriceRanges(_ context.Context, year int, channel string) (*services.PriceRangeView, error) {
	m.lastYear, m.lastChannel = year, channel
	return m.priceRanges, m.err
}

func (m *mockDashboardService) Rankings(_ context.Context, year int, _ analytics.Dimension, _ analytics.Metric, n int) (*services.RankingsView, error) {
	m.lastYear, m.lastN = year, n
	return m.rankings, m.err
}

func (m *mockDashboardService) Seasonality(_ context.Context, _ analytics.Dimension) (*services.SeasonalityView, error) {
	return m.seasonality, m.err
}

func (m *mockDashboardService) Patterns(_ context.Context, year int, channel string) (*services.PatternsView, error) {
	m.lastYear, m.lastChannel = year, channel
	return m.patterns, m.err
}

func (m *mockDashboardService) TargetVariance(_ context.Context, year int) (*services.TargetsView, error) {
	m.lastYear = year
	return m.targets, m.err
}

func (m *mockDashboardService) Unrecognized(_ context.Context) (*services.UnrecognizedView, error) {
	return m.unrecognized, m.err
}

func (m *mockDashboardService) Refresh(_ context.Context, _ string) (*services.RefreshReport, error) {
	return m.report, m.err
}

func (m *mockDashboardService) Status() *services.StatusView {
	if m.status != nil {
		return m.status
	}
	return &services.StatusView{}
}

func newDashboardHandler(t *testing.T, mock *mockDashboardService) *DashboardHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardHandler(mock, logger, apierrors.NewErrorHandler(logger, false))
}

func doRequest(t *testing.T, h *DashboardHandler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestGetSummaryOK(t *testing.T) {
	mock := &mockDashboardService{
		summary: &services.SummaryView{Year: 2024, Orders: 2},
	}
	h := newDashboardHandler(t, mock)

	rec := doRequest(t, h, http.MethodGet, "/summary?year=2024&channel=amazon")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, mock.lastYear)
	assert.Equal(t, "amazon", mock.lastChannel)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2024, body["year"])
}

func TestGetSummaryRejectsBadYear(t *testing.T) {
	h := newDashboardHandler(t, &mockDashboardService{})

	for _, target := range []string{"/summary?year=1890", "/summary?year=banana"} {
		rec := doRequest(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestGetSummarySnapshotPending(t *testing.T) {
	h := newDashboardHandler(t, &mockDashboardService{err: apierrors.ErrSnapshotPending})

	rec := doRequest(t, h, http.MethodGet, "/summary")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "snapshot_pending", body["error_type"])
}

func TestGetYoYRejectsBadPeriod(t *testing.T) {
	h := newDashboardHandler(t, &mockDashboardService{yoy: &services.YoYView{}})

	rec := doRequest(t, h, http.MethodGet, "/yoy?period=decade")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetYoYDefaultsPriorYear(t *testing.T) {
	mock := &mockDashboardService{yoy: &services.YoYView{}}
	h := newDashboardHandler(t, mock)

	rec := doRequest(t, h, http.MethodGet, "/yoy?year=2025")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, mock.lastYear)
}

func TestGetRankingsValidation(t *testing.T) {
	mock := &mockDashboardService{
		rankings: &services.RankingsView{RankingResult: &analytics.RankingResult{}},
	}
	h := newDashboardHandler(t, mock)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "defaults", target: "/rankings", status: http.StatusOK},
		{name: "explicit", target: "/rankings?dimension=channel&metric=units&n=10", status: http.StatusOK},
		{name: "bad dimension", target: "/rankings?dimension=flavour", status: http.StatusBadRequest},
		{name: "bad metric", target: "/rankings?metric=vibes", status: http.StatusBadRequest},
		{name: "n too large", target: "/rankings?n=1000", status: http.StatusBadRequest},
		{name: "n zero", target: "/rankings?n=0", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGetRankingsDefaultN(t *testing.T) {
	mock := &mockDashboardService{
		rankings: &services.RankingsView{RankingResult: &analytics.RankingResult{}},
	}
	h := newDashboardHandler(t, mock)

	doRequest(t, h, http.MethodGet, "/rankings")
	assert.Equal(t, 5, mock.lastN)
}

func TestGetTargetsUnavailable(t *testing.T) {
	h := newDashboardHandler(t, &mockDashboardService{err: apierrors.ErrTargetsUnavailable})

	rec := doRequest(t, h, http.MethodGet, "/targets?year=2024")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshAccepted(t *testing.T) {
	h := newDashboardHandler(t, &mockDashboardService{
		report: &services.RefreshReport{Trigger: "manual", Records: 3},
	})

	rec := doRequest(t, h, http.MethodPost, "/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["records"])
}

func TestRefreshConflict(t *testing.T) {
	h := newDashboardHandler(t, &mockDashboardService{err: apierrors.ErrRefreshInFlight})

	rec := doRequest(t, h, http.MethodPost, "/refresh")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetStatus(t *testing.T) {
	h := newDashboardHandler(t, &mockDashboardService{
		status: &services.StatusView{Loaded: true, Records: 13},
	})

	rec := doRequest(t, h, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 13, body["records"])
}
