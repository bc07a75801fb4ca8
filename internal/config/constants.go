package config

import "time"

// Application constants - all hardcoded values for the Sales Pulse system
const (
	// Application Info
	AppName    = "Sales Pulse"
	AppVersion = "1.0.0"
	EnvPrefix  = "SALESPULSE"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50
	RefreshRateLimit = 6 // forced snapshot rebuilds per minute

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	SheetsFetchTimeout  = 30 * time.Second
	HealthPingTimeout   = 5 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultExportsDir = "data/exports"

	// Cache Settings
	// Raw worksheet snapshots are expensive to pull and change rarely;
	// derived aggregates are cheap and recomputed often.
	FetchCacheTTL       = 5 * time.Hour
	ComputeCacheTTL     = 5 * time.Minute
	DefaultCacheEntries = 256

	// Refresh Settings
	DefaultRefreshInterval = 1 * time.Hour

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	MaxLogFileSize    = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge     = 30                // days
	MaxLogFileBackups = 10

	// Error Messages
	ErrSheetUnreachable = "Google Sheets data source is unreachable. Check credentials and network connectivity."
	ErrNoSalesData      = "No sales worksheets found. Year-named tabs (e.g. 2024) are required."
	ErrRefreshInFlight  = "A snapshot refresh is already running."

	// Success Messages
	MsgRefreshQueued    = "Snapshot refresh started."
	MsgOperationSuccess = "Operation completed successfully."
)

// Feature Flags - compile-time configuration
const (
	// Core Features
	FeatureWebSocketEnabled   = true
	FeatureMetricsEnabled     = true
	FeatureHealthCheckEnabled = true
	FeatureCSVExportEnabled   = true
	FeatureTargetsEnabled     = true

	// Security Features
	FeatureRateLimitingEnabled = true

	// Development Features
	FeatureDebugLoggingEnabled = false
	FeatureMockDataEnabled     = false
)

// URLs and Endpoints (all embedded)
const (
	// Google Sheets API
	SheetsAPIBaseURL = "https://sheets.googleapis.com"
	SheetsAPIDomain  = "sheets.googleapis.com"

	// API Endpoints (internal)
	APIBasePath        = "/api"
	DashboardEndpoint  = "/api/dashboard"
	ExportEndpoint     = "/api/export"
	HealthEndpoint     = "/api/health"
	MetricsEndpoint    = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// GetFeatureFlag returns the value of a feature flag
func GetFeatureFlag(flag string) bool {
	switch flag {
	case "websocket":
		return FeatureWebSocketEnabled
	case "metrics":
		return FeatureMetricsEnabled
	case "health_check":
		return FeatureHealthCheckEnabled
	case "csv_export":
		return FeatureCSVExportEnabled
	case "targets":
		return FeatureTargetsEnabled
	case "rate_limiting":
		return FeatureRateLimitingEnabled
	case "debug_logging":
		return FeatureDebugLoggingEnabled
	case "mock_data":
		return FeatureMockDataEnabled
	default:
		return false
	}
}
