package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	CacheDir      string
	LogsDir       string

	// Config files
	CredentialsFile string
	ConfigFile      string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	// Get the directory containing the executable
	exeDir := filepath.Dir(exe)

	// Log the resolved executable directory for debugging
	if logger := slog.Default(); logger != nil {
		logger.Debug("Resolved executable directory",
			slog.String("exe_path", exe),
			slog.String("exe_dir", exeDir))
	}

	// All paths are relative to the executable directory
	// Directory structure:
	// dist/
	//   ├── credentials.json
	//   ├── config.yaml
	//   ├── data/
	//   │   ├── exports/   (CSV exports)
	//   │   └── cache/     (scratch files)
	//   └── logs/          (Application logs)

	dataDir := filepath.Join(exeDir, "data")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		ExportsDir:    filepath.Join(dataDir, "exports"),
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(exeDir, "logs"),

		// Configuration files (root of executable directory)
		CredentialsFile: filepath.Join(exeDir, "credentials.json"),
		ConfigFile:      filepath.Join(exeDir, "config.yaml"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ExportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	// Log directory creation
	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		// Log successful directory creation
		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetExportPath returns the path for an export file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetCredentialsPath returns the path for the Google Sheets credentials file
func (p *Paths) GetCredentialsPath() string {
	path := p.CredentialsFile
	logger := slog.Default()
	if logger != nil {
		logger.Debug("Credentials path resolved",
			slog.String("path", path),
			slog.Bool("exists", FileExists(path)))
	}
	return path
}

// GetConfigFilePath returns the path for the YAML configuration file
func (p *Paths) GetConfigFilePath() string {
	return p.ConfigFile
}

// GetSummaryCSVPath returns the path for a dated sales summary export (e.g. sales_summary_20240115.csv)
func (p *Paths) GetSummaryCSVPath(date time.Time) string {
	filename := fmt.Sprintf("sales_summary_%s.csv", date.Format("20060102"))
	return filepath.Join(p.ExportsDir, filename)
}

// GetRankingsCSVPath returns the path for a dated rankings export (e.g. rankings_value_20240115.csv)
func (p *Paths) GetRankingsCSVPath(metric string, date time.Time) string {
	filename := fmt.Sprintf("rankings_%s_%s.csv", strings.ToLower(metric), date.Format("20060102"))
	return filepath.Join(p.ExportsDir, filename)
}

// GetUnrecognizedCSVPath returns the path for a dated rejected-rows export
func (p *Paths) GetUnrecognizedCSVPath(date time.Time) string {
	filename := fmt.Sprintf("unrecognized_%s.csv", date.Format("20060102"))
	return filepath.Join(p.ExportsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("config_files",
			slog.String("credentials", p.CredentialsFile),
			slog.String("config", p.ConfigFile),
		))
}

// ValidateRequiredFiles checks if critical files exist and returns detailed error information
func (p *Paths) ValidateRequiredFiles() error {
	requiredFiles := map[string]string{
		"Credentials": p.CredentialsFile,
	}

	var missingFiles []string
	for name, path := range requiredFiles {
		if !FileExists(path) {
			missingFiles = append(missingFiles, fmt.Sprintf("%s (%s)", name, path))
		}
	}

	if len(missingFiles) > 0 {
		return fmt.Errorf("required files missing: %s", strings.Join(missingFiles, ", "))
	}

	return nil
}
