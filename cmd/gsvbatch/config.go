package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gsvbatch/pkg/auth"
	"gsvbatch/pkg/config"
	"gsvbatch/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage gsvbatch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.gsvbatch.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values

The API key will be masked for security.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".gsvbatch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# gsvbatch configuration file
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with GSVBATCH_
# For example: GSVBATCH_API_KEY, GSVBATCH_DOWNLOAD_DIR

# Street View API settings
api:
  # API key (prefer 'gsvbatch auth set' or GSVBATCH_API_KEY over this file)
  key: ""

  # Image and metadata endpoints
  image_endpoint: "https://maps.googleapis.com/maps/api/streetview"
  metadata_endpoint: "https://maps.googleapis.com/maps/api/streetview/metadata"

# Query defaults
query:
  # Image size merged into queries that do not set their own
  default_size: "640x640"

  # Metadata field and value marking downloadable imagery
  status_field: "status"
  status_ok: "OK"

# Download configuration
download:
  # Output directory for images and the metadata file
  directory: "downloads"

  # Number of concurrent requests
  # Range: 1-10
  concurrent_downloads: 3

  # Request timeout
  timeout: 30s

# Output file configuration
output:
  # Metadata file name, written inside the download directory
  metadata_file: "metadata.json"

  # Link list file name
  links_file: "links.txt"

  # Concatenate new records onto an existing metadata file
  append_metadata: false

# Rate limiting configuration
rate_limit:
  # Requests per minute
  requests_per_minute: 60

  # Burst size (number of requests allowed in burst)
  burst_size: 10

# Retry configuration
retry:
  enabled: true

  # Maximum number of attempts per request
  max_attempts: 3

  # Initial and maximum backoff durations
  base_delay: 1s
  max_delay: 30s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your API key with 'gsvbatch auth set'")
	fmt.Println("2. Run 'gsvbatch config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'gsvbatch fetch --location <lat,lng>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Sanitized copy for display
	displayCfg := *cfg
	if displayCfg.API.Key != "" {
		displayCfg.API.Key = auth.MaskKey(displayCfg.API.Key)
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (GSVBATCH_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			".gsvbatch.yaml",
			".gsvbatch.yml",
			filepath.Join(os.Getenv("HOME"), ".gsvbatch.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "gsvbatch", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if cfg.API.Key == "" && os.Getenv("GSVBATCH_API_KEY") == "" {
		warnings = append(warnings, "no API key configured; 'gsvbatch fetch' will need a stored credential")
	}

	if cfg.Download.Directory != "" {
		if err := os.MkdirAll(cfg.Download.Directory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create download directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Download directory: %s\n", cfg.Download.Directory)
	fmt.Printf("  Concurrent requests: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
