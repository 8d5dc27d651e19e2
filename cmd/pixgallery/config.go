package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pixgallery/pkg/auth"
	"pixgallery/pkg/config"
	"pixgallery/pkg/ui"
)

var (
	forceInit   bool
	initCurrent bool
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage pixgallery configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (PIXGALLERY_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to ~/.config/pixgallery/config.yaml unless a different
path is given with --config.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration after merging every source. The API key is
masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value ranges and enumerations
  - Whether the download, cache and log directories can be created`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&initCurrent, "current", false, "write the current merged settings instead of the commented example")
}

const exampleConfig = `# pixgallery configuration
#
# Environment variables prefixed with PIXGALLERY_ override these values,
# e.g. PIXGALLERY_API_KEY, PIXGALLERY_DOWNLOAD_DIR, PIXGALLERY_LOG_LEVEL.

pixabay:
  # Leave empty to use 'pixgallery auth login' or PIXGALLERY_API_KEY
  api_key: ""
  base_url: "https://pixabay.com/api/"
  # Results per page (3-200)
  per_page: 40
  # all, horizontal, vertical
  orientation: "horizontal"
  # all, photo, illustration, vector
  image_type: "photo"
  safesearch: true
  timeout: 15s
  user_agent: "pixgallery/1.0"

# Pixabay allows 100 requests per 60 seconds
rate_limit:
  requests_per_window: 100
  window: 60s

# Responses are cached for 24 hours as the API terms require
cache:
  enabled: true
  # Defaults to $XDG_DATA_HOME/pixgallery/cache.db
  # path: "/path/to/cache.db"
  ttl: 24h
  memory_entries: 256

gallery:
  # Load the next page when the last card is reached
  infinite_scroll: false
  scroll_debounce: 300ms
  # 0 fits as many cards as the terminal allows
  columns: 0
  max_query_length: 100

download:
  directory: "./pixabay"
  concurrent_downloads: 3
  timeout: 30s
  retry_attempts: 3
  # Write a sidecar with each saved image
  write_metadata: true
  # json, yaml
  metadata_format: "json"

notifications:
  enabled: true
  # terminal, desktop, none
  type: "terminal"

logging:
  # debug, info, warn, error
  level: "info"
  # Logs go only to this file while the gallery is open
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !forceInit {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nUse --force to overwrite it.")
		return fmt.Errorf("refusing to overwrite %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if initCurrent {
		cfg, err := config.Load(configFile, overrides(cmd))
		if err != nil {
			return err
		}
		// keys belong in the credential store
		cfg.Pixabay.APIKey = ""
		if err := cfg.Save(configPath); err != nil {
			return err
		}
	} else if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'pixgallery auth login' to store your Pixabay API key")
	fmt.Println("2. Run 'pixgallery config validate' to check the configuration")
	fmt.Println("3. Start browsing with 'pixgallery'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, overrides(cmd))
	if err != nil {
		return err
	}

	displayCfg := *cfg
	if displayCfg.Pixabay.APIKey != "" {
		displayCfg.Pixabay.APIKey = auth.MaskKey(displayCfg.Pixabay.APIKey)
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (" + config.EnvPrefix + "*)")
	fmt.Println("3. .env files")
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		fmt.Printf("4. Configuration file: %s\n", path)
	} else {
		fmt.Println("4. Configuration file: (none found)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		ui.PrintError("No configuration file found", "Specify a file with --config or run 'pixgallery config init'")
		return fmt.Errorf("no configuration file")
	}

	ui.PrintInfo("Validating configuration", path)

	// Load runs Validate and reports every problem at once
	cfg, err := config.Load(path, config.Overrides{})
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return err
	}

	var problems, warnings []string
	if cfg.Pixabay.APIKey == "" {
		warnings = append(warnings, "no API key in the file; a stored key or "+config.EnvPrefix+"API_KEY will be used")
	}
	dirs := map[string]string{"download": cfg.Download.Directory}
	if cfg.Cache.Enabled {
		dirs["cache"] = filepath.Dir(cfg.Cache.Path)
	}
	if cfg.Logging.File != "" {
		dirs["log"] = filepath.Dir(cfg.Logging.File)
	}
	for name, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s directory: %v", name, err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("%d configuration errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Per page: %d\n", cfg.Pixabay.PerPage)
	fmt.Printf("  Rate limit: %d requests per %s\n", cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
	fmt.Printf("  Cache: %v (%s)\n", cfg.Cache.Enabled, cfg.Cache.TTL)
	fmt.Printf("  Infinite scroll: %v\n", cfg.Gallery.InfiniteScroll)
	fmt.Printf("  Download directory: %s\n", cfg.Download.Directory)
	fmt.Printf("  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
