package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"walldl/pkg/errors"
	"walldl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	debug      bool
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "walldl",
	Short: "Download every wallpaper from a wallpaper catalog page",
	Long: `walldl fetches a wallpaper catalog page, extracts its categories and
downloads every wallpaper into a local directory.

Wallpapers that are already on disk are recognised by their asset id and
skipped, so a run can be repeated at any time to pick up new ones. Files
are written to a temporary name first and only renamed once complete.

Running walldl without a subcommand is the same as 'walldl dl'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
	},
	RunE: runDownload,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("walldl failed", err)
		os.Exit(errors.ExitCode(err))
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.walldl.yaml or ~/.config/walldl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "shorthand for --log-level debug")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Download flags also work without the dl subcommand
	addDownloadFlags(rootCmd)

	rootCmd.SetVersionTemplate(`walldl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
