package downloader

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"walldl/pkg/catalog"
	"walldl/pkg/errors"
	"walldl/pkg/filetree"
	"walldl/pkg/logger"
	"walldl/pkg/storage"
)

var imageContentType = regexp.MustCompile(`(?i)^image/(\w+)`)

// Status is the outcome of one job
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// DownloadJob is one asset to fetch into Dir. Jobs are independent of each
// other and may run in any order.
type DownloadJob struct {
	Dir      string
	Category string
	Link     catalog.Link
	Filetree filetree.Strategy
}

// DownloadResult describes what happened to a job
type DownloadResult struct {
	Job      DownloadJob
	Status   Status
	Path     string
	Size     int64
	Duration time.Duration
	Error    error
}

// AssetFetcher opens a streaming GET for an asset
type AssetFetcher interface {
	Stream(ctx context.Context, url string) (*http.Response, error)
}

// Downloader performs one idempotent, atomic asset download
type Downloader struct {
	client AssetFetcher
	logger logger.Logger
}

// New creates a downloader using client for HTTP
func New(client AssetFetcher, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{client: client, logger: log}
}

// Download fetches job's asset unless a file with the same asset id is
// already in job.Dir. The final file only appears once fully written.
func (d *Downloader) Download(ctx context.Context, job DownloadJob) (DownloadResult, error) {
	start := time.Now()
	result := DownloadResult{Job: job}
	log := d.logger.WithFields(map[string]interface{}{
		"category": job.Category,
		"asset_id": job.Link.AssetID,
	})

	fail := func(err error) (DownloadResult, error) {
		result.Status = StatusFailed
		result.Error = err
		result.Duration = time.Since(start)
		return result, err
	}

	existing, found, err := storage.FindAsset(job.Dir, job.Link.AssetID)
	if err != nil {
		return fail(err)
	}
	if found {
		log.DebugWithFields("already downloaded", map[string]interface{}{
			"path": existing,
		})
		result.Status = StatusSkipped
		result.Path = existing
		result.Duration = time.Since(start)
		return result, nil
	}

	resp, err := d.client.Stream(ctx, job.Link.URI.String())
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	ext, err := Extension(resp.Header.Get("Content-Type"))
	if err != nil {
		return fail(fmt.Errorf("%s: %w", job.Link.URI, err))
	}

	filename := fmt.Sprintf("%s - %s.%s", job.Link.Title, job.Link.AssetID, ext)
	dest := filepath.Join(job.Dir, job.Filetree.Basename(filename))
	result.Path = dest

	log.InfoWithFields("downloading", map[string]interface{}{
		"dest": dest,
	})

	n, err := storage.WriteAtomic(dest, resp.Body)
	result.Size = n
	if err != nil {
		return fail(err)
	}

	result.Status = StatusDownloaded
	result.Duration = time.Since(start)
	log.InfoWithFields("downloaded", map[string]interface{}{
		"dest":     dest,
		"size":     humanize.Bytes(uint64(n)),
		"duration": result.Duration,
	})
	return result, nil
}

// Extension maps an image content type to a file extension. image/jpeg
// becomes jpg; other subtypes are lowercased as is.
func Extension(contentType string) (string, error) {
	m := imageContentType.FindStringSubmatch(strings.TrimSpace(contentType))
	if m == nil {
		return "", errors.New(errors.ErrorTypeNotAnImage, "content type %q is not an image", contentType)
	}
	ext := strings.ToLower(m[1])
	if ext == "jpeg" {
		ext = "jpg"
	}
	return ext, nil
}
