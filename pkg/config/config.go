package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the app reads.
const EnvPrefix = "PIXGALLERY_"

// Config holds all configuration options for pixgallery
type Config struct {
	Pixabay       PixabayConfig      `yaml:"pixabay" json:"pixabay"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit" json:"rate_limit"`
	Cache         CacheConfig        `yaml:"cache" json:"cache"`
	Gallery       GalleryConfig      `yaml:"gallery" json:"gallery"`
	Download      DownloadConfig     `yaml:"download" json:"download"`
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`
	Logging       LoggingConfig      `yaml:"logging" json:"logging"`
}

// PixabayConfig holds the search API parameters
type PixabayConfig struct {
	APIKey      string        `yaml:"api_key" json:"api_key"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	PerPage     int           `yaml:"per_page" json:"per_page"`
	Orientation string        `yaml:"orientation" json:"orientation"`
	ImageType   string        `yaml:"image_type" json:"image_type"`
	SafeSearch  bool          `yaml:"safesearch" json:"safesearch"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig bounds how many API requests go out per window.
// Pixabay allows 100 requests per 60 seconds per key.
type RateLimitConfig struct {
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
}

// CacheConfig controls the on-disk response cache
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Path          string        `yaml:"path" json:"path"`
	TTL           time.Duration `yaml:"ttl" json:"ttl"`
	MemoryEntries int           `yaml:"memory_entries" json:"memory_entries"`
}

// GalleryConfig holds presentation and paging behavior
type GalleryConfig struct {
	InfiniteScroll bool          `yaml:"infinite_scroll" json:"infinite_scroll"`
	ScrollDebounce time.Duration `yaml:"scroll_debounce" json:"scroll_debounce"`
	Columns        int           `yaml:"columns" json:"columns"`
	MaxQueryLength int           `yaml:"max_query_length" json:"max_query_length"`
}

// DownloadConfig holds settings for saving full-size images
type DownloadConfig struct {
	Directory           string        `yaml:"directory" json:"directory"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	WriteMetadata       bool          `yaml:"write_metadata" json:"write_metadata"`
	MetadataFormat      string        `yaml:"metadata_format" json:"metadata_format"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Type    string `yaml:"type" json:"type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	// Quiet routes console output to io.Discard; file output is unaffected.
	Quiet bool `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pixabay: PixabayConfig{
			BaseURL:     "https://pixabay.com/api/",
			PerPage:     40,
			Orientation: "horizontal",
			ImageType:   "photo",
			SafeSearch:  true,
			Timeout:     15 * time.Second,
			UserAgent:   "pixgallery/1.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 100,
			Window:            60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Path:          filepath.Join(DataDir(), "cache.db"),
			TTL:           24 * time.Hour,
			MemoryEntries: 256,
		},
		Gallery: GalleryConfig{
			InfiniteScroll: false,
			ScrollDebounce: 300 * time.Millisecond,
			Columns:        0, // 0 fits as many cards as the terminal allows
			MaxQueryLength: 100,
		},
		Download: DownloadConfig{
			Directory:           "./pixabay",
			ConcurrentDownloads: 3,
			Timeout:             30 * time.Second,
			RetryAttempts:       3,
			WriteMetadata:       true,
			MetadataFormat:      "json",
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Type:    "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DataDir returns the XDG data directory used for the cache and history.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pixgallery")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pixgallery"
	}
	return filepath.Join(home, ".local", "share", "pixgallery")
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "API_KEY"); v != "" {
		c.Pixabay.APIKey = v
	}
	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.Pixabay.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "DOWNLOAD_DIR"); v != "" {
		c.Download.Directory = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvPrefix + "CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}

	if v := os.Getenv(EnvPrefix + "CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCONCURRENT_DOWNLOADS: %w", EnvPrefix, err))
		} else if n > 0 {
			c.Download.ConcurrentDownloads = n
		}
	}
	if v := os.Getenv(EnvPrefix + "INFINITE_SCROLL"); v != "" {
		c.Gallery.InfiniteScroll = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(EnvPrefix + "CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.EqualFold(v, "true")
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
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

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".pixgallery.yaml",
		".pixgallery.yml",
		filepath.Join(home, ".config", "pixgallery", "config.yaml"),
		filepath.Join(home, ".config", "pixgallery", "config.yml"),
		filepath.Join(home, ".pixgallery.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultConfigPath is where `config init` writes when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "pixgallery", "config.yaml")
}

// Validate checks if the configuration is valid. A missing API key is not
// an error here since it may still be resolved from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Pixabay.BaseURL == "" {
		errs = append(errs, errors.New("pixabay base URL is required"))
	}
	if c.Pixabay.PerPage < 3 || c.Pixabay.PerPage > 200 {
		errs = append(errs, errors.New("per_page must be between 3 and 200"))
	}
	if !oneOf(c.Pixabay.Orientation, "all", "horizontal", "vertical") {
		errs = append(errs, fmt.Errorf("invalid orientation %q", c.Pixabay.Orientation))
	}
	if !oneOf(c.Pixabay.ImageType, "all", "photo", "illustration", "vector") {
		errs = append(errs, fmt.Errorf("invalid image type %q", c.Pixabay.ImageType))
	}
	if c.Pixabay.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("requests per window must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache path is required when the cache is enabled"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache TTL cannot be negative"))
	}

	if c.Gallery.MaxQueryLength <= 0 {
		errs = append(errs, errors.New("max query length must be positive"))
	}
	if c.Gallery.ScrollDebounce < 0 {
		errs = append(errs, errors.New("scroll debounce cannot be negative"))
	}
	if c.Gallery.Columns < 0 {
		errs = append(errs, errors.New("columns cannot be negative"))
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
	if c.Download.RetryAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
	}
	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if !oneOf(c.Download.MetadataFormat, "json", "yaml") {
		errs = append(errs, fmt.Errorf("invalid metadata format %q", c.Download.MetadataFormat))
	}

	if !oneOf(c.Logging.Level, "debug", "info", "warn", "error") {
		errs = append(errs, errors.New("invalid log level"))
	}
	if !oneOf(c.Notifications.Type, "terminal", "desktop", "none") {
		errs = append(errs, errors.New("invalid notification type"))
	}

	return errors.Join(errs...)
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return true
		}
	}
	return false
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Overrides carries values set explicitly on the command line. Zero values
// leave the loaded configuration untouched.
type Overrides struct {
	APIKey         string
	DownloadDir    string
	LogLevel       string
	LogFile        string
	Concurrent     int
	PerPage        int
	InfiniteScroll *bool
	NoCache        bool
	Notifications  *bool
}

// Apply merges command line overrides into the configuration
func (c *Config) Apply(o Overrides) {
	if o.APIKey != "" {
		c.Pixabay.APIKey = o.APIKey
	}
	if o.DownloadDir != "" {
		c.Download.Directory = o.DownloadDir
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFile != "" {
		c.Logging.File = o.LogFile
	}
	if o.Concurrent > 0 {
		c.Download.ConcurrentDownloads = o.Concurrent
	}
	if o.PerPage > 0 {
		c.Pixabay.PerPage = o.PerPage
	}
	if o.InfiniteScroll != nil {
		c.Gallery.InfiniteScroll = *o.InfiniteScroll
	}
	if o.NoCache {
		c.Cache.Enabled = false
	}
	if o.Notifications != nil {
		c.Notifications.Enabled = *o.Notifications
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, o Overrides) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pixgallery.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
