package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://maps.googleapis.com/maps/api/streetview", cfg.API.ImageEndpoint)
	assert.Equal(t, "https://maps.googleapis.com/maps/api/streetview/metadata", cfg.API.MetadataEndpoint)
	assert.Equal(t, "640x640", cfg.Query.DefaultSize)
	assert.Equal(t, "status", cfg.Query.StatusField)
	assert.Equal(t, "OK", cfg.Query.StatusOK)
	assert.Equal(t, "downloads", cfg.Download.Directory)
	assert.Equal(t, 3, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, "metadata.json", cfg.Output.MetadataFile)
	assert.Equal(t, "links.txt", cfg.Output.LinksFile)
	assert.False(t, cfg.Output.AppendMetadata)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GSVBATCH_API_KEY", "env-key")
	t.Setenv("GSVBATCH_DOWNLOAD_DIR", "/tmp/imagery")
	t.Setenv("GSVBATCH_CONCURRENT_DOWNLOADS", "5")
	t.Setenv("GSVBATCH_REQUESTS_PER_MINUTE", "30")
	t.Setenv("GSVBATCH_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-key", cfg.API.Key)
	assert.Equal(t, "/tmp/imagery", cfg.Download.Directory)
	assert.Equal(t, 5, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("GSVBATCH_CONCURRENT_DOWNLOADS", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 3, cfg.Download.ConcurrentDownloads)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  key: "file-key"
query:
  default_size: "1200x800"
download:
  directory: "imagery"
  concurrent_downloads: 4
output:
  append_metadata: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file-key", cfg.API.Key)
	assert.Equal(t, "1200x800", cfg.Query.DefaultSize)
	assert.Equal(t, "imagery", cfg.Download.Directory)
	assert.Equal(t, 4, cfg.Download.ConcurrentDownloads)
	assert.True(t, cfg.Output.AppendMetadata)

	// Untouched sections keep their defaults
	assert.Equal(t, "status", cfg.Query.StatusField)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadFromFileMissingPathIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	// Empty path with no config file in any default location
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldWd)

	require.NoError(t, cfg.LoadFromFile(""))
}

func TestLoadFromFileBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [broken"), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing image endpoint",
			mutate:  func(c *Config) { c.API.ImageEndpoint = "" },
			wantErr: "image endpoint",
		},
		{
			name:    "missing metadata endpoint",
			mutate:  func(c *Config) { c.API.MetadataEndpoint = "" },
			wantErr: "metadata endpoint",
		},
		{
			name:    "missing status field",
			mutate:  func(c *Config) { c.Query.StatusField = "" },
			wantErr: "status field",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Download.ConcurrentDownloads = 0 },
			wantErr: "concurrent downloads",
		},
		{
			name:    "excessive concurrency",
			mutate:  func(c *Config) { c.Download.ConcurrentDownloads = 11 },
			wantErr: "concurrent downloads",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Download.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "missing metadata file",
			mutate:  func(c *Config) { c.Output.MetadataFile = "" },
			wantErr: "metadata file",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimit.RequestsPerMinute = 0 },
			wantErr: "requests per minute",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"key":        "flag-key",
		"directory":  "flag-dir",
		"concurrent": 7,
		"size":       "100x100",
		"append":     true,
		"log-level":  "debug",
	})

	assert.Equal(t, "flag-key", cfg.API.Key)
	assert.Equal(t, "flag-dir", cfg.Download.Directory)
	assert.Equal(t, 7, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, "100x100", cfg.Query.DefaultSize)
	assert.True(t, cfg.Output.AppendMetadata)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestMergeCommandLineFlagsIgnoresEmpty(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"key":        "",
		"concurrent": 0,
	})

	assert.Equal(t, "", cfg.API.Key)
	assert.Equal(t, 3, cfg.Download.ConcurrentDownloads)
}

func TestLoadPrecedence(t *testing.T) {
	// File sets one value, env overrides it, flag overrides env
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
download:
  directory: "from-file"
  concurrent_downloads: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("GSVBATCH_DOWNLOAD_DIR", "from-env")

	cfg, err := Load(path, map[string]interface{}{
		"directory": "from-flag",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Download.Directory)
	// Env did not touch concurrency, the file value survives
	assert.Equal(t, 2, cfg.Download.ConcurrentDownloads)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.Key = "saved-key"
	cfg.Download.Timeout = 45 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))

	assert.Equal(t, "saved-key", loaded.API.Key)
	assert.Equal(t, 45*time.Second, loaded.Download.Timeout)
}
