package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/cache"
)

func newTestHealthService(t *testing.T, source *fakeSource) (*HealthService, *DashboardService) {
	t.Helper()

	svc, hub := newTestService(t, source)
	store := cache.New(time.Minute, 16)
	t.Cleanup(store.Stop)

	health := NewHealthService(VersionInfo{Version: "test"}, svc, source, store, hub, nil)
	return health, svc
}

func TestLivenessAlwaysOK(t *testing.T) {
	health, _ := newTestHealthService(t, seededSource())

	body := health.Liveness()
	assert.Equal(t, checkOK, body["status"])
	assert.NotEmpty(t, body["uptime"])
}

func TestReadinessTracksSnapshot(t *testing.T) {
	health, svc := newTestHealthService(t, seededSource())

	ready, status := health.Readiness()
	assert.False(t, ready)
	assert.False(t, status.Loaded)

	_, err := svc.Refresh(context.Background(), "manual")
	require.NoError(t, err)

	ready, status = health.Readiness()
	assert.True(t, ready)
	assert.Equal(t, 3, status.Records)
}

func TestHealthDegradedBeforeLoad(t *testing.T) {
	health, _ := newTestHealthService(t, seededSource())

	report := health.Health(context.Background())
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, checkDegraded, report.Checks["snapshot"].Status)
	assert.Equal(t, checkOK, report.Checks["sheets"].Status)
}

func TestHealthHealthyAfterLoad(t *testing.T) {
	health, svc := newTestHealthService(t, seededSource())
	_, err := svc.Refresh(context.Background(), "manual")
	require.NoError(t, err)

	report := health.Health(context.Background())
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, checkOK, report.Checks["snapshot"].Status)
	assert.NotNil(t, report.Cache)
	assert.Equal(t, "test", report.Version)
}

func TestHealthReportsSheetFailure(t *testing.T) {
	source := seededSource()
	source.pingErr = errors.New("403 forbidden")
	health, svc := newTestHealthService(t, source)
	_, err := svc.Refresh(context.Background(), "manual")
	require.NoError(t, err)

	report := health.Health(context.Background())
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, checkFailed, report.Checks["sheets"].Status)
	assert.Contains(t, report.Checks["sheets"].Detail, "403")
}

func TestVersionIncludesGoVersion(t *testing.T) {
	health, _ := newTestHealthService(t, seededSource())

	v := health.Version()
	assert.Equal(t, "test", v.Version)
	assert.NotEmpty(t, v.GoVersion)
}
