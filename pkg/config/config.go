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

const (
	// DefaultCatalogURL is the wallpaper catalog page scraped by default
	DefaultCatalogURL = "https://support.microsoft.com/en-us/windows/wallpapers-5cfa0cc7-b75a-165a-467b-c95abaf5dc2a"

	// DefaultSectionSelector selects the labelled category sections of the catalog page
	DefaultSectionSelector = "#ID0EBD-supTabControlContent-1 .ocpSection[aria-label]"

	// Failure policies for the download pool
	FailurePolicyAbort    = "abort"
	FailurePolicyContinue = "continue"

	// DefaultConfigFile is written by "walldl config init" and is the
	// first location searched when no --config is given
	DefaultConfigFile = "walldl.yaml"

	envPrefix = "WALLDL_"
)

// Config holds all configuration options for walldl
type Config struct {
	// Catalog page settings
	Source SourceConfig `yaml:"source" json:"source"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourceConfig describes where the catalog comes from and how it is fetched
type SourceConfig struct {
	URL       string        `yaml:"url" json:"url"`
	Selector  string        `yaml:"selector" json:"selector"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	CategoryDirs  bool   `yaml:"category_dirs" json:"category_dirs"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Workers       int    `yaml:"workers" json:"workers"`
	FailurePolicy string `yaml:"failure_policy" json:"failure_policy"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:       DefaultCatalogURL,
			Selector:  DefaultSectionSelector,
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:   0, // no timeout
		},
		Output: OutputConfig{
			BaseDirectory: "out",
			CategoryDirs:  true,
		},
		Download: DownloadConfig{
			Workers:       4,
			FailurePolicy: FailurePolicyAbort,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if url := os.Getenv(envPrefix + "URL"); url != "" {
		c.Source.URL = url
	}
	if selector := os.Getenv(envPrefix + "SELECTOR"); selector != "" {
		c.Source.Selector = selector
	}
	if userAgent := os.Getenv(envPrefix + "USER_AGENT"); userAgent != "" {
		c.Source.UserAgent = userAgent
	}
	if timeout := os.Getenv(envPrefix + "TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", envPrefix, err)
		}
		c.Source.Timeout = d
	}

	if outputDir := os.Getenv(envPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if catDirs := os.Getenv(envPrefix + "CATEGORY_DIRS"); catDirs != "" {
		v, err := strconv.ParseBool(catDirs)
		if err != nil {
			return fmt.Errorf("invalid %sCATEGORY_DIRS: %w", envPrefix, err)
		}
		c.Output.CategoryDirs = v
	}

	if workers := os.Getenv(envPrefix + "WORKERS"); workers != "" {
		v, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS: %w", envPrefix, err)
		}
		c.Download.Workers = v
	}
	if policy := os.Getenv(envPrefix + "FAILURE_POLICY"); policy != "" {
		c.Download.FailurePolicy = policy
	}

	if logLevel := os.Getenv(envPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	// DEBUG=1 forces debug logging
	if os.Getenv("DEBUG") == "1" {
		c.Logging.Level = "debug"
	}
	if logFile := os.Getenv(envPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
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

// ConfigFileLocations lists the places searched for a config file, in order
func ConfigFileLocations() []string {
	home := os.Getenv("HOME")
	return []string{
		DefaultConfigFile,
		"walldl.yml",
		".walldl.yaml",
		".walldl.yml",
		filepath.Join(home, ".config", "walldl", "config.yaml"),
		filepath.Join(home, ".config", "walldl", "config.yml"),
		filepath.Join(home, ".walldl.yaml"),
	}
}

func findConfigFile() string {
	for _, loc := range ConfigFileLocations() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.URL == "" {
		errs = append(errs, errors.New("catalog URL is required"))
	}
	if c.Source.Selector == "" {
		errs = append(errs, errors.New("section selector is required"))
	}
	if c.Source.Timeout < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.Workers > 16 {
		errs = append(errs, errors.New("workers should not exceed 16"))
	}
	switch strings.ToLower(c.Download.FailurePolicy) {
	case FailurePolicyAbort, FailurePolicyContinue:
	default:
		errs = append(errs, fmt.Errorf("invalid failure policy %q (want %s or %s)",
			c.Download.FailurePolicy, FailurePolicyAbort, FailurePolicyContinue))
	}

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

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if url, ok := flags["url"].(string); ok && url != "" {
		c.Source.URL = url
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if catDirs, ok := flags["category-dirs"].(bool); ok {
		c.Output.CategoryDirs = catDirs
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Download.Workers = workers
	}
	if policy, ok := flags["failure-policy"].(string); ok && policy != "" {
		c.Download.FailurePolicy = policy
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".walldl.env"))

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
