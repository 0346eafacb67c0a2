package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"walldl/pkg/config"
	"walldl/pkg/logger"
	"walldl/pkg/scraper"
	"walldl/pkg/ui"
)

var (
	// Download command flags
	outputDir     string
	flat          bool
	workers       int
	failurePolicy string
	catalogURL    string
)

// dlCmd represents the dl command
var dlCmd = &cobra.Command{
	Use:   "dl",
	Short: "Download all wallpapers from the catalog",
	Long: `Download all wallpapers from the catalog page.

By default every category gets its own directory below the output
directory. With --flat all files go straight into the output directory and
the category becomes part of the file name.`,
	Example: `  # Download into ./out/<category>/
  walldl dl

  # Download into ./wallpapers, one flat directory
  walldl dl --output ./wallpapers --flat

  # Keep going when a single wallpaper fails
  walldl dl --failure-policy continue --workers 8`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(dlCmd)
	addDownloadFlags(dlCmd)
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default \"out\")")
	cmd.Flags().BoolVar(&flat, "flat", false, "write all files to the output directory instead of one directory per category")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of parallel downloads (default 4)")
	cmd.Flags().StringVar(&failurePolicy, "failure-policy", "", "what a failed download does to the run: abort or continue (default abort)")
	cmd.Flags().StringVar(&catalogURL, "url", "", "catalog page to download from")
}

// downloadFlags collects the flags the user actually set
func downloadFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("output") {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("flat") {
		flags["category-dirs"] = !flat
	}
	if cmd.Flags().Changed("workers") {
		flags["workers"] = workers
	}
	if cmd.Flags().Changed("failure-policy") {
		flags["failure-policy"] = failurePolicy
	}
	if cmd.Flags().Changed("url") {
		flags["url"] = catalogURL
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if debug {
		flags["log-level"] = "debug"
	}
	return flags
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, downloadFlags(cmd))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	defer logger.Shutdown()
	log := logger.GetLogger()
	log.WithField("version", version).Debug("walldl starting")

	ui.PrintInfo("Catalog", cfg.Source.URL)
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)
	ui.PrintInfo("Workers", strconv.Itoa(cfg.Download.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := scraper.New(cfg, log).Scrape(ctx)
	ui.PrintSummary(summary)
	if err != nil {
		log.WithError(err).Error("Run failed")
		return err
	}

	log.Info("Run completed")
	return nil
}
