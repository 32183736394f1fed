package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Street View batch client
type Config struct {
	// Street View API endpoints and key
	API APIConfig `yaml:"api" json:"api"`

	// Query defaults applied to every batch entry
	Query QueryConfig `yaml:"query" json:"query"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output file settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behavior for transient request failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds the Street View endpoints and the API key
type APIConfig struct {
	Key              string `yaml:"key" json:"key"`
	ImageEndpoint    string `yaml:"image_endpoint" json:"image_endpoint"`
	MetadataEndpoint string `yaml:"metadata_endpoint" json:"metadata_endpoint"`
}

// QueryConfig holds per-query defaults and the metadata status contract
type QueryConfig struct {
	// DefaultSize is merged into every query that does not set its own size
	DefaultSize string `yaml:"default_size" json:"default_size"`
	// StatusField is the metadata key holding the availability status
	StatusField string `yaml:"status_field" json:"status_field"`
	// StatusOK is the status value indicating a downloadable image
	StatusOK string `yaml:"status_ok" json:"status_ok"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Directory           string        `yaml:"directory" json:"directory"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
}

// OutputConfig holds the persistence file names and write mode
type OutputConfig struct {
	MetadataFile   string `yaml:"metadata_file" json:"metadata_file"`
	LinksFile      string `yaml:"links_file" json:"links_file"`
	AppendMetadata bool   `yaml:"append_metadata" json:"append_metadata"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for HTTP requests
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// yaml.v3 has no native duration support, so the structs carrying duration
// fields decode them from strings like "30s" themselves. Absent keys leave
// the existing value alone so defaults survive partial config files.

// UnmarshalYAML implements yaml.Unmarshaler for DownloadConfig
func (d *DownloadConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Directory           *string `yaml:"directory"`
		ConcurrentDownloads *int    `yaml:"concurrent_downloads"`
		Timeout             *string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Directory != nil {
		d.Directory = *raw.Directory
	}
	if raw.ConcurrentDownloads != nil {
		d.ConcurrentDownloads = *raw.ConcurrentDownloads
	}
	if raw.Timeout != nil {
		timeout, err := time.ParseDuration(*raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid download timeout: %w", err)
		}
		d.Timeout = timeout
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler for DownloadConfig
func (d DownloadConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Directory           string `yaml:"directory"`
		ConcurrentDownloads int    `yaml:"concurrent_downloads"`
		Timeout             string `yaml:"timeout"`
	}{
		Directory:           d.Directory,
		ConcurrentDownloads: d.ConcurrentDownloads,
		Timeout:             d.Timeout.String(),
	}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler for RetryConfig
func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled     *bool   `yaml:"enabled"`
		MaxAttempts *int    `yaml:"max_attempts"`
		BaseDelay   *string `yaml:"base_delay"`
		MaxDelay    *string `yaml:"max_delay"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Enabled != nil {
		r.Enabled = *raw.Enabled
	}
	if raw.MaxAttempts != nil {
		r.MaxAttempts = *raw.MaxAttempts
	}
	if raw.BaseDelay != nil {
		delay, err := time.ParseDuration(*raw.BaseDelay)
		if err != nil {
			return fmt.Errorf("invalid retry base delay: %w", err)
		}
		r.BaseDelay = delay
	}
	if raw.MaxDelay != nil {
		delay, err := time.ParseDuration(*raw.MaxDelay)
		if err != nil {
			return fmt.Errorf("invalid retry max delay: %w", err)
		}
		r.MaxDelay = delay
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler for RetryConfig
func (r RetryConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Enabled     bool   `yaml:"enabled"`
		MaxAttempts int    `yaml:"max_attempts"`
		BaseDelay   string `yaml:"base_delay"`
		MaxDelay    string `yaml:"max_delay"`
	}{
		Enabled:     r.Enabled,
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay.String(),
		MaxDelay:    r.MaxDelay.String(),
	}, nil
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			ImageEndpoint:    "https://maps.googleapis.com/maps/api/streetview",
			MetadataEndpoint: "https://maps.googleapis.com/maps/api/streetview/metadata",
		},
		Query: QueryConfig{
			DefaultSize: "640x640",
			StatusField: "status",
			StatusOK:    "OK",
		},
		Download: DownloadConfig{
			Directory:           "downloads",
			ConcurrentDownloads: 3,
			Timeout:             30 * time.Second,
		},
		Output: OutputConfig{
			MetadataFile:   "metadata.json",
			LinksFile:      "links.txt",
			AppendMetadata: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("GSVBATCH_API_KEY"); key != "" {
		c.API.Key = key
	}
	if endpoint := os.Getenv("GSVBATCH_IMAGE_ENDPOINT"); endpoint != "" {
		c.API.ImageEndpoint = endpoint
	}
	if endpoint := os.Getenv("GSVBATCH_METADATA_ENDPOINT"); endpoint != "" {
		c.API.MetadataEndpoint = endpoint
	}

	if dir := os.Getenv("GSVBATCH_DOWNLOAD_DIR"); dir != "" {
		c.Download.Directory = dir
	}

	if concurrent := os.Getenv("GSVBATCH_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if rpm := os.Getenv("GSVBATCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if logLevel := os.Getenv("GSVBATCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".gsvbatch.yaml",
		".gsvbatch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "gsvbatch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "gsvbatch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".gsvbatch.yaml"),
		filepath.Join(os.Getenv("HOME"), ".gsvbatch.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate endpoints
	if c.API.ImageEndpoint == "" {
		errs = append(errs, errors.New("image endpoint is required"))
	}
	if c.API.MetadataEndpoint == "" {
		errs = append(errs, errors.New("metadata endpoint is required"))
	}

	// Validate query defaults
	if c.Query.StatusField == "" {
		errs = append(errs, errors.New("status field name is required"))
	}
	if c.Query.StatusOK == "" {
		errs = append(errs, errors.New("status OK value is required"))
	}

	// Validate download settings
	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	// Validate output settings
	if c.Output.MetadataFile == "" {
		errs = append(errs, errors.New("metadata file name is required"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if key, ok := flags["key"].(string); ok && key != "" {
		c.API.Key = key
	}
	if dir, ok := flags["directory"].(string); ok && dir != "" {
		c.Download.Directory = dir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if size, ok := flags["size"].(string); ok && size != "" {
		c.Query.DefaultSize = size
	}
	if appendMeta, ok := flags["append"].(bool); ok {
		c.Output.AppendMetadata = appendMeta
	}
	if metadataFile, ok := flags["metadata-file"].(string); ok && metadataFile != "" {
		c.Output.MetadataFile = metadataFile
	}
	if linksFile, ok := flags["links-file"].(string); ok && linksFile != "" {
		c.Output.LinksFile = linksFile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".gsvbatch.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
