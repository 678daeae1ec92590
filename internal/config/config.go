// Package config loads the mouseadmin configuration file and applies
// environment overrides. The publish tunables default to the values the
// remote host is known to tolerate; override them only against a host you
// control.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default publish tunables, matching the observed limits of the remote host.
const (
	DefaultBatchSize        = 25
	DefaultBatchCooldown    = 3 * time.Second
	DefaultMinWriteInterval = 66 * time.Second
	DefaultListTTL          = 15 * time.Second
	DefaultThumbnailBox     = 180
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Site     SiteConfig     `yaml:"site"`
	Cache    CacheConfig    `yaml:"cache"`
	Publish  PublishConfig  `yaml:"publish"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
}

// DatabaseConfig locates the SQLite record store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SiteConfig identifies the remote static-file host.
type SiteConfig struct {
	// BaseURL is the public root of the site, e.g. "https://dumbiee.neocities.org".
	BaseURL string `yaml:"base_url"`
	// APIURL is the host's API endpoint root, e.g. "https://neocities.org/api".
	APIURL string `yaml:"api_url"`
	// APIKey authenticates uploads. Usually supplied via
	// MOUSEADMIN_SITE_API_KEY rather than the file.
	APIKey string `yaml:"api_key,omitempty"`
}

// CacheConfig controls the local mirror of remote files.
type CacheConfig struct {
	Directory string   `yaml:"directory"`
	ListTTL   Duration `yaml:"list_ttl,omitempty"`
}

// PublishConfig holds the rate-limit tunables for the publish pipeline.
type PublishConfig struct {
	BatchSize        int      `yaml:"batch_size,omitempty"`
	BatchCooldown    Duration `yaml:"batch_cooldown,omitempty"`
	MinWriteInterval Duration `yaml:"min_write_interval,omitempty"`
	ThumbnailBox     int      `yaml:"thumbnail_box,omitempty"`
}

// MetricsConfig enables the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
}

// Duration wraps time.Duration so YAML values like "3s" parse naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Database.Path == "" {
		config.Database.Path = os.Getenv("MOUSEADMIN_DB")
	}
	if config.Site.APIKey == "" {
		config.Site.APIKey = os.Getenv("MOUSEADMIN_SITE_API_KEY")
	}
	if config.Site.APIURL == "" {
		config.Site.APIURL = "https://neocities.org/api"
	}
	if config.Cache.Directory == "" {
		config.Cache.Directory = "./cache"
	}
	if config.Cache.ListTTL == 0 {
		config.Cache.ListTTL = Duration(DefaultListTTL)
	}
	if config.Publish.BatchSize == 0 {
		config.Publish.BatchSize = DefaultBatchSize
	}
	if config.Publish.BatchCooldown == 0 {
		config.Publish.BatchCooldown = Duration(DefaultBatchCooldown)
	}
	if config.Publish.MinWriteInterval == 0 {
		config.Publish.MinWriteInterval = Duration(DefaultMinWriteInterval)
	}
	if config.Publish.ThumbnailBox == 0 {
		config.Publish.ThumbnailBox = DefaultThumbnailBox
	}
	if config.Metrics.Enabled && config.Metrics.Listen == "" {
		config.Metrics.Listen = "127.0.0.1:9190"
	}
}

// Validate checks fields that have no usable default.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required (or set MOUSEADMIN_DB)")
	}
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url is required")
	}
	if c.Publish.BatchSize < 1 {
		return fmt.Errorf("publish.batch_size must be at least 1")
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Database: DatabaseConfig{Path: "./mouseadmin.db"},
		Site: SiteConfig{
			BaseURL: "https://example.neocities.org",
			APIURL:  "https://neocities.org/api",
			APIKey:  "${MOUSEADMIN_SITE_API_KEY}",
		},
		Cache: CacheConfig{
			Directory: "./cache",
			ListTTL:   Duration(DefaultListTTL),
		},
		Publish: PublishConfig{
			BatchSize:        DefaultBatchSize,
			BatchCooldown:    Duration(DefaultBatchCooldown),
			MinWriteInterval: Duration(DefaultMinWriteInterval),
			ThumbnailBox:     DefaultThumbnailBox,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
