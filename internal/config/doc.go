// Package config provides centralized configuration management for the Sales Pulse system.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SALESPULSE_* for namespacing:
//
//	SALESPULSE_SERVER_PORT=8080
//	SALESPULSE_SHEETS_SHEET_URL=https://docs.google.com/spreadsheets/d/...
//	SALESPULSE_SHEETS_CREDENTIALS_FILE=credentials.json
//	SALESPULSE_CACHE_FETCH_TTL=5h
//	SALESPULSE_LOGGING_LEVEL=info
//
// # Configuration Structure
//
// The main configuration struct:
//
//	type Config struct {
//	    Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
//	    Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
//	    Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
//	    Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
//	    ...
//	}
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, _ := config.GetPaths()
//	exportPath := paths.GetExportPath("sales_summary.csv")
//	logPath := paths.GetLogPath("salespulse.log")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Port and timeout values are within acceptable ranges
//	- Price bucket bounds are strictly increasing
//	- Cache TTLs are positive when caching is enabled
//	- Required directories exist or can be created
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
