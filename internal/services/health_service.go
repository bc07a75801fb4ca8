package services

import (
	"context"
	"runtime"
	"time"

	"salespulse/internal/cache"
	"salespulse/internal/infrastructure"
)

// CheckResult is one dependency's health verdict.
type CheckResult struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const (
	checkOK       = "ok"
	checkDegraded = "degraded"
	checkFailed   = "failed"
)

// HealthReport is the full /api/health payload.
type HealthReport struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks"`

	Snapshot *StatusView            `json:"snapshot"`
	Cache    map[string]interface{} `json:"cache,omitempty"`
	Clients  int                    `json:"websocket_clients"`
	System   map[string]interface{} `json:"system,omitempty"`
}

// VersionInfo is the build identity served at /api/version.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

// HealthService answers liveness, readiness and dependency health for
// the dashboard. Everything it reports is read-only and cheap except
// the sheets probe, which is bounded by its own timeout.
type HealthService struct {
	version   VersionInfo
	started   time.Time
	dashboard *DashboardService
	source    RowSource
	store     *cache.Cache
	hub       Broadcaster
	system    *infrastructure.SystemMetricsCollector
}

// pingTimeout bounds the sheets reachability probe inside a health check.
const pingTimeout = 5 * time.Second

// NewHealthService wires the health layer. The source, cache, hub and
// system collector are optional; missing pieces are simply not checked.
func NewHealthService(version VersionInfo, dashboard *DashboardService, source RowSource, store *cache.Cache, hub Broadcaster, system *infrastructure.SystemMetricsCollector) *HealthService {
	version.GoVersion = runtime.Version()
	return &HealthService{
		version:   version,
		started:   time.Now(),
		dashboard: dashboard,
		source:    source,
		store:     store,
		hub:       hub,
		system:    system,
	}
}

// Version returns the build identity.
func (s *HealthService) Version() VersionInfo {
	return s.version
}

// Liveness reports that the process is up. It never fails: if the
// handler runs, the process is alive.
func (s *HealthService) Liveness() map[string]interface{} {
	return map[string]interface{}{
		"status": checkOK,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
}

// Readiness reports whether the dashboard can serve data, which means
// a snapshot has been loaded.
func (s *HealthService) Readiness() (bool, *StatusView) {
	status := s.dashboard.Status()
	return status.Loaded, status
}

// Health runs the full dependency check: snapshot presence, sheets
// reachability and the supporting pieces. Overall status is healthy
// only when both the snapshot and the source check out.
func (s *HealthService) Health(ctx context.Context) *HealthReport {
	report := &HealthReport{
		Version:  s.version.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Checks:   make(map[string]CheckResult, 4),
		Snapshot: s.dashboard.Status(),
	}

	if report.Snapshot.Loaded {
		report.Checks["snapshot"] = CheckResult{Status: checkOK}
	} else {
		report.Checks["snapshot"] = CheckResult{Status: checkDegraded, Detail: "snapshot pending"}
	}

	if s.source != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := s.source.Ping(pingCtx)
		cancel()
		if err != nil {
			report.Checks["sheets"] = CheckResult{Status: checkFailed, Detail: err.Error()}
		} else {
			report.Checks["sheets"] = CheckResult{Status: checkOK}
		}
	}

	if s.store != nil {
		report.Cache = s.store.GetStats()
		report.Checks["cache"] = CheckResult{Status: checkOK}
	}

	if s.hub != nil {
		report.Clients = s.hub.ClientCount()
		report.Checks["websocket"] = CheckResult{Status: checkOK}
	}

	if s.system != nil {
		if stats := s.system.GetCurrentStats(ctx); stats != nil {
			report.System = stats.FormatStats()
		}
	}

	report.Status = overallStatus(report.Checks)
	return report
}

func overallStatus(checks map[string]CheckResult) string {
	status := checkOK
	for _, c := range checks {
		switch c.Status {
		case checkFailed:
			return checkDegraded
		case checkDegraded:
			status = checkDegraded
		}
	}
	if status == checkOK {
		return "healthy"
	}
	return "degraded"
}
