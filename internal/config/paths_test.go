package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetPaths verifies all paths resolve relative to the executable directory
func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)
	require.NotNil(t, paths)

	// Every path is absolute
	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
	assert.True(t, filepath.IsAbs(paths.DataDir))
	assert.True(t, filepath.IsAbs(paths.ExportsDir))
	assert.True(t, filepath.IsAbs(paths.CacheDir))
	assert.True(t, filepath.IsAbs(paths.LogsDir))
	assert.True(t, filepath.IsAbs(paths.CredentialsFile))

	// Directory layout hangs off the executable directory
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "exports"), paths.ExportsDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "cache"), paths.CacheDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)

	// Config files sit in the executable directory root
	assert.Equal(t, "credentials.json", filepath.Base(paths.CredentialsFile))
	assert.Equal(t, "config.yaml", filepath.Base(paths.ConfigFile))
}

// TestEnsureDirectories creates the full directory tree and is idempotent
func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	paths := &Paths{
		ExecutableDir: root,
		DataDir:       filepath.Join(root, "data"),
		ExportsDir:    filepath.Join(root, "data", "exports"),
		CacheDir:      filepath.Join(root, "data", "cache"),
		LogsDir:       filepath.Join(root, "logs"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.ExportsDir, paths.CacheDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "directory %s should exist", dir)
		assert.True(t, info.IsDir())
	}

	// Second call is a no-op
	assert.NoError(t, paths.EnsureDirectories())
}

func TestGetRelativePath(t *testing.T) {
	paths := &Paths{ExecutableDir: "/opt/salespulse"}
	assert.Equal(t, filepath.Join("/opt/salespulse", "config.yaml"), paths.GetRelativePath("config.yaml"))
}

func TestFileExists(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "present.txt")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0644))

	assert.True(t, FileExists(existing))
	assert.False(t, FileExists(filepath.Join(t.TempDir(), "absent.txt")))
}

// TestExportPathHelpers covers the dated CSV naming conventions
func TestExportPathHelpers(t *testing.T) {
	paths := &Paths{
		ExportsDir: "/opt/salespulse/data/exports",
		CacheDir:   "/opt/salespulse/data/cache",
		LogsDir:    "/opt/salespulse/logs",
	}
	date := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t,
		filepath.Join(paths.ExportsDir, "sales_summary_20240115.csv"),
		paths.GetSummaryCSVPath(date))

	assert.Equal(t,
		filepath.Join(paths.ExportsDir, "rankings_value_20240115.csv"),
		paths.GetRankingsCSVPath("Value", date))

	assert.Equal(t,
		filepath.Join(paths.ExportsDir, "unrecognized_20240115.csv"),
		paths.GetUnrecognizedCSVPath(date))

	assert.Equal(t,
		filepath.Join(paths.ExportsDir, "custom.csv"),
		paths.GetExportPath("custom.csv"))

	assert.Equal(t,
		filepath.Join(paths.LogsDir, "salespulse.log"),
		paths.GetLogPath("salespulse.log"))

	assert.Equal(t,
		filepath.Join(paths.CacheDir, "snapshot.tmp"),
		paths.GetCachePath("snapshot.tmp"))
}

// TestValidateRequiredFiles reports missing credentials with the full path
func TestValidateRequiredFiles(t *testing.T) {
	root := t.TempDir()
	paths := &Paths{
		CredentialsFile: filepath.Join(root, "credentials.json"),
	}

	err := paths.ValidateRequiredFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Credentials")
	assert.Contains(t, err.Error(), paths.CredentialsFile)

	require.NoError(t, os.WriteFile(paths.CredentialsFile, []byte("{}"), 0644))
	assert.NoError(t, paths.ValidateRequiredFiles())
}
