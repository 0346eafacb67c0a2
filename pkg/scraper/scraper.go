package scraper

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"walldl/internal/downloader"
	"walldl/pkg/catalog"
	"walldl/pkg/config"
	"walldl/pkg/errors"
	"walldl/pkg/fetch"
	"walldl/pkg/filetree"
	"walldl/pkg/logger"
	"walldl/pkg/storage"
)

// Scraper orchestrates a catalog run: fetch the page, extract categories,
// create directories and download every asset on a worker pool.
type Scraper struct {
	client    CatalogClient
	extractor *catalog.Extractor
	config    *config.Config
	logger    logger.Logger
}

// New creates a Scraper with an HTTP client built from cfg
func New(cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	client := fetch.NewClient(cfg.Source.UserAgent, cfg.Source.Timeout, log)
	return NewWithClient(cfg, client, log)
}

// NewWithClient creates a Scraper using the given client
func NewWithClient(cfg *config.Config, client CatalogClient, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:    client,
		extractor: catalog.NewExtractor(cfg.Source.Selector),
		config:    cfg,
		logger:    log,
	}
}

// Categories fetches the catalog page and extracts its categories
func (s *Scraper) Categories(ctx context.Context) ([]catalog.Category, error) {
	pageURL, err := url.Parse(s.config.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL %q: %w", s.config.Source.URL, err)
	}

	s.logger.InfoWithFields("Fetching catalog page", map[string]interface{}{
		"url": pageURL.String(),
	})
	body, err := s.client.GetPage(ctx, pageURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog page: %w", err)
	}

	doc, err := catalog.Parse(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, err
	}

	categories, err := s.extractor.Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract categories: %w", err)
	}

	s.logger.InfoWithFields("Extracted categories", map[string]interface{}{
		"categories": len(categories),
	})
	return categories, nil
}

// Scrape runs the whole pipeline and blocks until every job has finished
// or the run was aborted. The summary is returned even when err is set,
// except when the page could not be fetched or parsed.
func (s *Scraper) Scrape(ctx context.Context) (*downloader.Summary, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return s.Download(ctx, categories)
}

// Download enqueues one job per link of categories and waits for the pool.
// A second link with the same asset id in the same directory is skipped so
// that no two jobs ever write the same file.
func (s *Scraper) Download(ctx context.Context, categories []catalog.Category) (*downloader.Summary, error) {
	cfg := s.config
	pool := downloader.NewWorkerPool(
		ctx,
		cfg.Download.Workers,
		downloader.FailurePolicy(strings.ToLower(cfg.Download.FailurePolicy)),
		downloader.New(s.client, s.logger),
		s.logger,
	)
	pool.Start()

	duplicates, enqueueErr := s.enqueue(pool, categories)
	if enqueueErr != nil && !stderrors.Is(enqueueErr, downloader.ErrPoolClosed) {
		pool.Cancel()
	}
	pool.Close()

	summary, err := pool.Wait()
	summary.Duplicates = duplicates

	logger.LogMetrics(s.logger, "scrape", map[string]interface{}{
		"total":      summary.Total,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"cancelled":  summary.Cancelled,
		"duplicates": summary.Duplicates,
		"bytes":      humanize.Bytes(uint64(summary.Bytes)),
		"duration":   summary.Duration,
	})

	switch {
	case enqueueErr == nil:
		return summary, err
	case stderrors.Is(enqueueErr, downloader.ErrPoolClosed) && err != nil:
		// The pool stopped taking jobs because the run was aborted
		return summary, err
	default:
		return summary, enqueueErr
	}
}

func (s *Scraper) enqueue(pool *downloader.WorkerPool, categories []catalog.Category) (int, error) {
	seen := make(map[string]struct{})
	duplicates := 0

	root := s.config.Output.BaseDirectory
	for _, category := range categories {
		if !catalog.IsPathSafe(category.Title) {
			return duplicates, errors.New(errors.ErrorTypeInvalidTitle, "category title %q cannot be used as a file name", category.Title)
		}
		tree := filetree.New(s.config.Output.CategoryDirs, category.Title)
		dir := tree.ParentDir(root)
		if !withinRoot(root, dir) {
			return duplicates, errors.New(errors.ErrorTypeInvalidTitle, "category %q resolves outside %s", category.Title, root)
		}
		if err := storage.EnsureDir(dir); err != nil {
			return duplicates, err
		}

		enqueued := 0
		for _, link := range category.Links {
			if !catalog.IsPathSafe(link.Title) {
				return duplicates, errors.New(errors.ErrorTypeInvalidTitle, "link title %q cannot be used as a file name", link.Title)
			}
			key := dir + "\x00" + link.AssetID
			if _, dup := seen[key]; dup {
				duplicates++
				s.logger.WarnWithFields("Skipping duplicate asset", map[string]interface{}{
					"category": category.Title,
					"asset_id": link.AssetID,
					"dir":      dir,
				})
				continue
			}
			seen[key] = struct{}{}

			job := downloader.DownloadJob{
				Dir:      dir,
				Category: category.Title,
				Link:     link,
				Filetree: tree,
			}
			if err := pool.Submit(job); err != nil {
				return duplicates, err
			}
			enqueued++
		}

		s.logger.InfoWithFields(fmt.Sprintf("Enqueued %d download jobs", enqueued), map[string]interface{}{
			"category": category.Title,
			"dir":      dir,
		})
	}
	return duplicates, nil
}

// withinRoot reports whether dir is root or lies below it
func withinRoot(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
