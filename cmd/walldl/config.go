package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"walldl/pkg/config"
	"walldl/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage walldl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (WALLDL_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'walldl.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging defaults, the
configuration file, environment variables and .env files.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges (workers 1-16, failure policy, log level)
  - That the output directory can be created`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# walldl configuration file
#
# Every option can also be set through an environment variable prefixed
# with WALLDL_, for example WALLDL_OUTPUT_DIR or WALLDL_WORKERS.

# Catalog page
source:
  # Page listing the wallpaper categories
  url: "%s"

  # CSS selector of the labelled category sections
  selector: "%s"

  # User agent sent with every request; uncomment to override the default
  # user_agent: "walldl"

  # Per-request timeout, e.g. 30s or 2m. 0 means no timeout
  timeout: 0s

# Where wallpapers are written
output:
  # Root directory
  base_directory: "out"

  # true: one directory per category
  # false: all files in base_directory, named "<category> - <title> - <id>.<ext>"
  category_dirs: true

# Download pool
download:
  # Number of parallel downloads
  # Range: 1-16
  workers: 4

  # abort: stop the run on the first failed download
  # continue: download everything and report all failures at the end
  failure_policy: "abort"

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stdout only
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = config.DefaultConfigFile
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	content := fmt.Sprintf(exampleConfig, config.DefaultCatalogURL, config.DefaultSectionSelector)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the output directory and worker count")
	fmt.Printf("2. Run 'walldl config validate --config %s' to check the configuration\n", configPath)
	fmt.Println("3. Start downloading with 'walldl dl'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (WALLDL_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: first found of")
		for _, loc := range config.ConfigFileLocations() {
			fmt.Printf("     %s\n", loc)
		}
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	source := configFile
	if source == "" {
		source = "(defaults and environment)"
	}
	ui.PrintInfo("Validating configuration", source)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Catalog URL: %s\n", cfg.Source.URL)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Category directories: %t\n", cfg.Output.CategoryDirs)
	fmt.Printf("  Workers: %d\n", cfg.Download.Workers)
	fmt.Printf("  Failure policy: %s\n", cfg.Download.FailurePolicy)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
