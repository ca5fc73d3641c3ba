package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBaseURL is the root of the Imgur v3 API
	DefaultAPIBaseURL = "https://api.imgur.com/3"

	appName = "imgrab"
)

// Config holds all configuration options for imgrab
type Config struct {
	// Imgur API access
	Imgur ImgurConfig `yaml:"imgur" json:"imgur"`

	// Client-side rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Caller-side retry of rate limited or failed operations
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ImgurConfig holds Imgur-specific configuration
type ImgurConfig struct {
	ClientID   string        `yaml:"client_id" json:"client_id"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
	APIBaseURL string        `yaml:"api_base_url" json:"api_base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds client-side rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool   `yaml:"enabled" json:"enabled"`
	Strategy          string `yaml:"strategy" json:"strategy"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts     int           `yaml:"max_attempts" json:"max_attempts"`
	HonorRetryAfter bool          `yaml:"honor_retry_after" json:"honor_retry_after"`
	MaxWait         time.Duration `yaml:"max_wait" json:"max_wait"`
	BaseDelay       time.Duration `yaml:"base_delay" json:"base_delay"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory       string `yaml:"base_directory" json:"base_directory"`
	OverwriteExisting   bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
	CreateSourceFolders bool   `yaml:"create_source_folders" json:"create_source_folders"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Imgur: ImgurConfig{
			APIBaseURL: DefaultAPIBaseURL,
			Timeout:    0, // the API and CDN are slow for large albums
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			Strategy:          "token_bucket",
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			Enabled:         true,
			MaxAttempts:     3,
			HonorRetryAfter: true,
			MaxWait:         5 * time.Minute,
			BaseDelay:       time.Second,
		},
		Output: OutputConfig{
			BaseDirectory:       "./downloads",
			OverwriteExisting:   false,
			CreateSourceFolders: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Client ID, newest name first
	for _, key := range []string{"IMGRAB_CLIENT_ID", "IMGUR_CLIENT_ID", "imgur_client_id"} {
		if clientID := os.Getenv(key); clientID != "" {
			c.Imgur.ClientID = clientID
			break
		}
	}
	if userAgent := os.Getenv("IMGRAB_USER_AGENT"); userAgent != "" {
		c.Imgur.UserAgent = userAgent
	}
	if baseURL := os.Getenv("IMGRAB_API_BASE_URL"); baseURL != "" {
		c.Imgur.APIBaseURL = baseURL
	}

	if rpm := os.Getenv("IMGRAB_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		if _, err := fmt.Sscanf(rpm, "%d", &val); err != nil {
			return fmt.Errorf("invalid IMGRAB_REQUESTS_PER_MINUTE %q: %w", rpm, err)
		}
		if val > 0 {
			c.RateLimit.Enabled = true
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if retries := os.Getenv("IMGRAB_MAX_RETRIES"); retries != "" {
		var val int
		if _, err := fmt.Sscanf(retries, "%d", &val); err != nil {
			return fmt.Errorf("invalid IMGRAB_MAX_RETRIES %q: %w", retries, err)
		}
		c.Retry.MaxAttempts = val
	}

	if outputDir := os.Getenv("IMGRAB_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if logLevel := os.Getenv("IMGRAB_LOG_LEVEL"); logLevel != "" {
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
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// SearchPaths lists the config file locations in order of precedence
func SearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"." + appName + ".yaml",
		"." + appName + ".yml",
		filepath.Join(xdg.ConfigHome, appName, "config.yaml"),
		filepath.Join(xdg.ConfigHome, appName, "config.yml"),
		filepath.Join(home, "."+appName+".yaml"),
		filepath.Join(home, "."+appName+".yml"),
	}
}

// DefaultPath is where `config init` writes when no path is given
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Imgur.APIBaseURL == "" {
		errs = append(errs, errors.New("imgur API base URL is required"))
	} else if u, err := url.Parse(c.Imgur.APIBaseURL); err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, fmt.Errorf("imgur API base URL %q must be absolute", c.Imgur.APIBaseURL))
	}
	if c.Imgur.Timeout < 0 {
		errs = append(errs, errors.New("imgur timeout cannot be negative"))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, errors.New("requests per minute must be positive"))
		}
		switch strings.ToLower(c.RateLimit.Strategy) {
		case "token_bucket", "sliding_window":
		default:
			errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
		}
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}
	if c.Retry.MaxWait < 0 {
		errs = append(errs, errors.New("max retry wait cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
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
	if clientID, ok := flags["client-id"].(string); ok && clientID != "" {
		c.Imgur.ClientID = clientID
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if overwrite, ok := flags["overwrite"].(bool); ok {
		c.Output.OverwriteExisting = overwrite
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.Enabled = true
		c.RateLimit.RequestsPerMinute = rpm
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries >= 0 {
		c.Retry.MaxAttempts = maxRetries
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	home, _ := os.UserHomeDir()
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(home, ".env"))
	_ = godotenv.Load(filepath.Join(home, "."+appName+".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
