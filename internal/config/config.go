package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SheetsConfig contains the Google Sheets data source configuration
type SheetsConfig struct {
	SheetURL        string        `yaml:"sheet_url" envconfig:"SHEET_URL"`
	TargetsSheet    string        `yaml:"targets_sheet" envconfig:"TARGETS_SHEET" default:"TARGETS"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE" default:"credentials.json"`
	CredentialsKey  string        `yaml:"credentials_key" envconfig:"CREDENTIALS_KEY"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"30s"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL" default:"1h"`

	Columns       ColumnConfig       `yaml:"columns" envconfig:"COLUMNS"`
	TargetColumns TargetColumnConfig `yaml:"target_columns" envconfig:"TARGET_COLUMNS"`
}

// ColumnConfig maps worksheet header names to the fields the normalizer reads.
// Headers are matched exactly after trimming surrounding whitespace.
type ColumnConfig struct {
	Date      string `yaml:"date" envconfig:"DATE" default:"Date"`
	SKU       string `yaml:"sku" envconfig:"SKU" default:"SKU"`
	Listing   string `yaml:"listing" envconfig:"LISTING" default:"Listing"`
	Channel   string `yaml:"channel" envconfig:"CHANNEL" default:"Sales Channel"`
	Category  string `yaml:"category" envconfig:"CATEGORY" default:"Category"`
	Quantity  string `yaml:"quantity" envconfig:"QUANTITY" default:"Quantity"`
	Value     string `yaml:"value" envconfig:"VALUE" default:"Sales Value"`
	UnitPrice string `yaml:"unit_price" envconfig:"UNIT_PRICE" default:"Unit Price"`
}

// TargetColumnConfig maps header names on the targets worksheet
type TargetColumnConfig struct {
	Date   string `yaml:"date" envconfig:"DATE" default:"Date"`
	Amount string `yaml:"amount" envconfig:"AMOUNT" default:"Daily Target"`
}

// CacheConfig contains result cache configuration
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	FetchTTL   time.Duration `yaml:"fetch_ttl" envconfig:"FETCH_TTL" default:"5h"`
	ComputeTTL time.Duration `yaml:"compute_ttl" envconfig:"COMPUTE_TTL" default:"5m"`
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES" default:"256"`
}

// AnalyticsConfig contains defaults for the derived-metric engines
type AnalyticsConfig struct {
	PriceBounds []float64 `yaml:"price_bounds" envconfig:"PRICE_BOUNDS" default:"0,5,10,15,25,50,100"`
	Currency    string    `yaml:"currency" envconfig:"CURRENCY" default:"£"`
	TopN        int       `yaml:"top_n" envconfig:"TOP_N" default:"5"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/salespulse.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ExportsDir    string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"data/exports"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Resolve relative paths
	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Validate paths
	if err := cfg.ValidatePaths(); err != nil {
		return nil, fmt.Errorf("path validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
// Fields carrying a default tag are already populated after envconfig.Process,
// so only fields without defaults can be supplied from the file.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Sheets.SheetURL == "" {
		envConfig.Sheets.SheetURL = fileConfig.Sheets.SheetURL
	}
	if envConfig.Sheets.CredentialsKey == "" {
		envConfig.Sheets.CredentialsKey = fileConfig.Sheets.CredentialsKey
	}
	if envConfig.Paths.ExecutableDir == "" {
		envConfig.Paths.ExecutableDir = fileConfig.Paths.ExecutableDir
	}
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}

	return envConfig
}

// resolvePaths sets up the executable directory and validates paths
func (c *Config) resolvePaths() error {
	// Use centralized paths system to get all paths
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	// Update config with resolved paths from centralized system
	c.Paths.ExecutableDir = paths.ExecutableDir

	return nil
}

// ValidatePaths validates that critical paths exist or can be created
func (c *Config) ValidatePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	// Ensure all required directories exist
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	// Log path resolution for debugging
	paths.LogPathResolution()

	return nil
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	// Use centralized paths system as the single source of truth
	paths, err := GetPaths()
	if err != nil {
		// Fallback to config-based resolution if paths system fails
		if filepath.IsAbs(c.Paths.DataDir) {
			return c.Paths.DataDir
		}
		return filepath.Join(c.Paths.ExecutableDir, c.Paths.DataDir)
	}
	return paths.DataDir
}

// GetExportsDir returns the resolved exports directory path
func (c *Config) GetExportsDir() string {
	// Use centralized paths system as the single source of truth
	paths, err := GetPaths()
	if err != nil {
		// Fallback to config-based resolution if paths system fails
		if filepath.IsAbs(c.Paths.ExportsDir) {
			return c.Paths.ExportsDir
		}
		return filepath.Join(c.Paths.ExecutableDir, c.Paths.ExportsDir)
	}
	return paths.ExportsDir
}

// GetLogsDir returns the resolved logs directory path
func (c *Config) GetLogsDir() string {
	// Use centralized paths system as the single source of truth
	paths, err := GetPaths()
	if err != nil {
		// Fallback to config-based resolution if paths system fails
		if filepath.IsAbs(c.Paths.LogsDir) {
			return c.Paths.LogsDir
		}
		return filepath.Join(c.Paths.ExecutableDir, c.Paths.LogsDir)
	}
	return paths.LogsDir
}

// GetCredentialsFile returns the resolved Google Sheets credentials file path.
// Relative paths resolve against the executable directory, never the working
// directory, so every binary sees the same file.
func (c *Config) GetCredentialsFile() string {
	if filepath.IsAbs(c.Sheets.CredentialsFile) {
		return c.Sheets.CredentialsFile
	}

	paths, err := GetPaths()
	if err != nil {
		return filepath.Join(c.Paths.ExecutableDir, c.Sheets.CredentialsFile)
	}
	return filepath.Join(paths.ExecutableDir, c.Sheets.CredentialsFile)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Sheets.FetchTimeout <= 0 {
		return fmt.Errorf("sheets fetch timeout must be positive")
	}

	// Zero disables the background refresh ticker
	if c.Sheets.RefreshInterval < 0 {
		return fmt.Errorf("sheets refresh interval must not be negative")
	}

	if c.Cache.Enabled {
		if c.Cache.FetchTTL <= 0 {
			return fmt.Errorf("cache fetch TTL must be positive")
		}
		if c.Cache.ComputeTTL <= 0 {
			return fmt.Errorf("cache compute TTL must be positive")
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache max entries must be positive")
		}
	}

	if len(c.Analytics.PriceBounds) == 0 {
		return fmt.Errorf("at least one price bound must be specified")
	}
	for i := 1; i < len(c.Analytics.PriceBounds); i++ {
		if c.Analytics.PriceBounds[i] <= c.Analytics.PriceBounds[i-1] {
			return fmt.Errorf("price bounds must be strictly increasing: %v", c.Analytics.PriceBounds)
		}
	}

	if c.Analytics.TopN <= 0 {
		return fmt.Errorf("ranking size must be positive: %d", c.Analytics.TopN)
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	// Structured log output is always JSON
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/salespulse.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Sheets: SheetsConfig{
			TargetsSheet:    "TARGETS",
			CredentialsFile: "credentials.json",
			FetchTimeout:    30 * time.Second,
			RefreshInterval: time.Hour,
			Columns: ColumnConfig{
				Date:      "Date",
				SKU:       "SKU",
				Listing:   "Listing",
				Channel:   "Sales Channel",
				Category:  "Category",
				Quantity:  "Quantity",
				Value:     "Sales Value",
				UnitPrice: "Unit Price",
			},
			TargetColumns: TargetColumnConfig{
				Date:   "Date",
				Amount: "Daily Target",
			},
		},
		Cache: CacheConfig{
			Enabled:    true,
			FetchTTL:   FetchCacheTTL,
			ComputeTTL: ComputeCacheTTL,
			MaxEntries: DefaultCacheEntries,
		},
		Analytics: AnalyticsConfig{
			PriceBounds: []float64{0, 5, 10, 15, 25, 50, 100},
			Currency:    "£",
			TopN:        5,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "both",
			FilePath:    "logs/salespulse.log",
			Development: false,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ExportsDir: "data/exports",
			LogsDir:    "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
