package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gsvbatch/pkg/auth"
	"gsvbatch/pkg/batch"
	"gsvbatch/pkg/config"
	"gsvbatch/pkg/logger"
	"gsvbatch/pkg/streetview"
	"gsvbatch/pkg/ui"
)

var (
	// Fetch command flags
	paramsFile   string
	location     string
	pano         string
	size         string
	heading      string
	pitch        string
	fov          string
	apiKey       string
	keyName      string
	outputDir    string
	concurrent   int
	appendMeta   bool
	linksOnly    bool
	previewCount int
	metadataFile string
	linksFile    string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch Street View metadata and download available images",
	Long: `Fetch metadata for a batch of Street View queries and download the
images that exist.

Queries come from either a YAML batch file (--params) or the single-query
flags (--location or --pano, plus optional --size, --heading, --pitch,
--fov). Each query's metadata is fetched first; only entries whose status
is OK are downloaded, so unavailable imagery never consumes image quota.

An API key is required, from one of:
  - The --key flag
  - A stored credential (use 'gsvbatch auth set' to store)
  - The GSVBATCH_API_KEY environment variable
  - The configuration file`,
	Example: `  # Single location with default settings
  gsvbatch fetch --location "46.414382,10.013988"

  # Specific panorama at a custom size and camera angle
  gsvbatch fetch --pano 5kUjTIQUQHSavM5YTo5nqg --size 1200x800 --heading 90

  # A batch file of queries, downloaded to a custom directory
  gsvbatch fetch --params queries.yaml --output ./imagery --concurrent 5

  # Save the link list only, no requests against the API
  gsvbatch fetch --params queries.yaml --links-only

  # Append to an existing metadata file and preview the first results
  gsvbatch fetch --params queries.yaml --append --preview 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runFetch(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&paramsFile, "params", "f", "", "YAML file with a list of query parameter sets")
	fetchCmd.Flags().StringVarP(&location, "location", "l", "", "location as an address or lat,lng pair")
	fetchCmd.Flags().StringVar(&pano, "pano", "", "specific panorama ID")
	fetchCmd.Flags().StringVar(&size, "size", "", "image size as WIDTHxHEIGHT (default 640x640)")
	fetchCmd.Flags().StringVar(&heading, "heading", "", "camera compass heading (0-360)")
	fetchCmd.Flags().StringVar(&pitch, "pitch", "", "camera pitch (-90 to 90)")
	fetchCmd.Flags().StringVar(&fov, "fov", "", "horizontal field of view (max 120)")
	fetchCmd.Flags().StringVarP(&apiKey, "key", "k", "", "Street View API key")
	fetchCmd.Flags().StringVarP(&keyName, "key-name", "a", "", "use a specific stored API key")
	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: downloads)")
	fetchCmd.Flags().IntVar(&concurrent, "concurrent", 3, "number of concurrent requests")
	fetchCmd.Flags().BoolVar(&appendMeta, "append", false, "append records to an existing metadata file")
	fetchCmd.Flags().BoolVar(&linksOnly, "links-only", false, "build and save links without fetching anything")
	fetchCmd.Flags().IntVar(&previewCount, "preview", 0, "print the first N metadata records after fetching")
	fetchCmd.Flags().StringVar(&metadataFile, "metadata-file", "", "metadata file name (default: metadata.json)")
	fetchCmd.Flags().StringVar(&linksFile, "links-file", "", "links file name (default: links.txt)")
}

func runFetch(cmd *cobra.Command, args []string) {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if apiKey != "" {
		flags["key"] = apiKey
	}
	if outputDir != "" {
		flags["directory"] = outputDir
	}
	if concurrent != 3 {
		flags["concurrent"] = concurrent
	}
	if size != "" {
		flags["size"] = size
	}
	if appendMeta {
		flags["append"] = true
	}
	if metadataFile != "" {
		flags["metadata-file"] = metadataFile
	}
	if linksFile != "" {
		flags["links-file"] = linksFile
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("gsvbatch starting")

	// Resolve the API key unless the run never touches the network
	if !linksOnly && cfg.API.Key == "" {
		resolveAPIKey(cfg)
	}

	// Build the query batch
	params, err := loadParams()
	if err != nil {
		ui.PrintError("Failed to load queries", err.Error())
		os.Exit(1)
	}
	if len(params) == 0 {
		ui.PrintError("No queries given", "use --location, --pano, or --params")
		fmt.Println("\nExamples:")
		fmt.Println("  gsvbatch fetch --location \"46.414382,10.013988\"")
		fmt.Println("  gsvbatch fetch --params queries.yaml")
		os.Exit(1)
	}

	ui.PrintInfo("Queries", fmt.Sprintf("%d", len(params)))

	results := batch.New(cfg, params)

	// Save the link list next to the eventual downloads
	if err := results.SaveLinks(cfg.Output.LinksFile); err != nil {
		logger.WithError(err).Error("Failed to save links")
		ui.PrintError("Failed to save links", err.Error())
		os.Exit(1)
	}
	ui.PrintInfo("Links saved", cfg.Output.LinksFile)

	if linksOnly {
		ui.PrintSuccess("Link list written, skipping fetch")
		return
	}

	ui.PrintHighlight("Fetching metadata...")
	results.FetchMetadata()

	fetched := len(results.Records())
	logger.WithField("fetched", fetched).Info("Metadata fetch finished")
	ui.PrintInfo("Metadata records", fmt.Sprintf("%d of %d", fetched, len(params)))

	ui.PrintHighlight("Downloading images...")
	if err := results.DownloadLinks(cfg.Download.Directory); err != nil {
		logger.WithError(err).Error("Download failed")
		ui.PrintError("Download failed", err.Error())
		os.Exit(1)
	}

	if previewCount > 0 {
		results.Preview(os.Stdout, previewCount, nil, "")
	}

	logger.Info("Batch completed successfully")
	ui.PrintSuccess("Batch completed: " + cfg.Download.Directory)
}

// resolveAPIKey fills cfg.API.Key from the credential manager, exiting with
// guidance when no key can be found anywhere.
func resolveAPIKey(cfg *config.Config) {
	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var cred *auth.Credential
	if keyName != "" {
		cred, err = credManager.Retrieve(keyName)
		if err != nil {
			ui.PrintError("Stored key not found", keyName)
			ui.PrintInfo("Stored keys", "Use 'gsvbatch auth list' to see stored keys")
			os.Exit(1)
		}
	} else {
		cred, err = credManager.RetrieveDefault()
		if err != nil {
			logger.Error("No API key found")
			ui.PrintError("No Street View API key found", "")
			fmt.Println("\nTo store a key securely, run:")
			fmt.Println("  gsvbatch auth set")
			fmt.Println("\nYou can also set an environment variable:")
			fmt.Println("  export GSVBATCH_API_KEY=your_api_key")
			os.Exit(1)
		}
	}

	cfg.API.Key = cred.APIKey
	logger.WithField("key_name", cred.Name).Info("Using stored API key")
	ui.PrintInfo("Using key", cred.Name+" ("+auth.MaskKey(cred.APIKey)+")")
}

// loadParams builds the query batch from the --params file or, failing
// that, from the single-query flags.
func loadParams() ([]streetview.Params, error) {
	if paramsFile != "" {
		return loadParamsFile(paramsFile)
	}

	if location == "" && pano == "" {
		return nil, nil
	}

	query := streetview.Params{}
	if location != "" {
		query["location"] = location
	}
	if pano != "" {
		query["pano"] = pano
	}
	if heading != "" {
		query["heading"] = heading
	}
	if pitch != "" {
		query["pitch"] = pitch
	}
	if fov != "" {
		query["fov"] = fov
	}

	return []streetview.Params{query}, nil
}

// loadParamsFile reads a YAML list of query parameter sets
func loadParamsFile(path string) ([]streetview.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}

	var params []streetview.Params
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse params file: %w", err)
	}

	return params, nil
}
