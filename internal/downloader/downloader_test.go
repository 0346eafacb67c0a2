package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"walldl/pkg/catalog"
	"walldl/pkg/errors"
	"walldl/pkg/fetch"
	"walldl/pkg/filetree"
	"walldl/pkg/logger"
)

// assetServer serves /asset-blobs/<id>_x with the given content type and
// counts requests.
type assetServer struct {
	*httptest.Server
	requests    int32
	contentType string
	body        []byte
}

func newAssetServer(t *testing.T, contentType string, body []byte) *assetServer {
	t.Helper()
	s := &assetServer{contentType: contentType, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.requests, 1)
		w.Header().Set("Content-Type", s.contentType)
		w.Write(s.body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *assetServer) Requests() int {
	return int(atomic.LoadInt32(&s.requests))
}

func newJob(t *testing.T, baseURL, root string, categoryDirs bool) DownloadJob {
	t.Helper()
	uri, err := url.Parse(baseURL + "/asset-blobs/12345_forest.jpg")
	require.NoError(t, err)
	link, err := catalog.NewLink("Forest Path", uri)
	require.NoError(t, err)

	tree := filetree.New(categoryDirs, "Autumn")
	dir := tree.ParentDir(root)
	require.NoError(t, os.MkdirAll(dir, 0755))
	return DownloadJob{Dir: dir, Category: "Autumn", Link: link, Filetree: tree}
}

func newDownloader(log logger.Logger) *Downloader {
	return New(fetch.NewClient("walldl-test", 0, logger.NewNopLogger()), log)
}

func TestDownloadNaming(t *testing.T) {
	server := newAssetServer(t, "image/jpeg", []byte("jpeg bytes"))

	tests := []struct {
		name         string
		categoryDirs bool
		want         string
	}{
		{"category directories", true, filepath.Join("Autumn", "Forest Path - 12345.jpg")},
		{"flat", false, "Autumn - Forest Path - 12345.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			job := newJob(t, server.URL, root, tt.categoryDirs)

			result, err := newDownloader(logger.NewNopLogger()).Download(context.Background(), job)
			require.NoError(t, err)
			assert.Equal(t, StatusDownloaded, result.Status)
			assert.Equal(t, filepath.Join(root, tt.want), result.Path)
			assert.Equal(t, int64(len("jpeg bytes")), result.Size)

			content, err := os.ReadFile(filepath.Join(root, tt.want))
			require.NoError(t, err)
			assert.Equal(t, "jpeg bytes", string(content))
		})
	}
}

func TestDownloadIsIdempotent(t *testing.T) {
	server := newAssetServer(t, "image/png", []byte("png bytes"))
	root := t.TempDir()
	job := newJob(t, server.URL, root, true)
	log := logger.NewTestLogger()
	d := newDownloader(log)

	first, err := d.Download(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StatusDownloaded, first.Status)
	assert.Equal(t, 1, server.Requests())

	second, err := d.Download(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, 1, server.Requests(), "second download must not touch the network")
	assert.True(t, log.HasMessage("already downloaded"))

	entries, err := os.ReadDir(job.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloadSkipsRenamedCopy(t *testing.T) {
	server := newAssetServer(t, "image/png", []byte("png bytes"))
	root := t.TempDir()
	job := newJob(t, server.URL, root, true)

	// Same asset id under an older title and extension
	require.NoError(t, os.WriteFile(filepath.Join(job.Dir, "Old Title - 12345.jpeg"), []byte("x"), 0644))

	result, err := newDownloader(logger.NewNopLogger()).Download(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, result.Status)
	assert.Zero(t, server.Requests())
}

func TestDownloadIgnoresStaleTempFile(t *testing.T) {
	server := newAssetServer(t, "image/jpeg", []byte("fresh"))
	root := t.TempDir()
	job := newJob(t, server.URL, root, true)

	stale := filepath.Join(job.Dir, "Forest Path - 12345.jpg.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("half"), 0644))

	result, err := newDownloader(logger.NewNopLogger()).Download(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StatusDownloaded, result.Status)
	assert.Equal(t, 1, server.Requests())

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(content))
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "rename consumes the temp file")
}

func TestDownloadNotAnImage(t *testing.T) {
	server := newAssetServer(t, "text/html; charset=utf-8", []byte("<html>oops</html>"))
	root := t.TempDir()
	job := newJob(t, server.URL, root, true)

	result, err := newDownloader(logger.NewNopLogger()).Download(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotAnImage, errors.TypeOf(err))
	assert.Equal(t, StatusFailed, result.Status)

	entries, err := os.ReadDir(job.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file may be created for non-image content")
}

func TestDownloadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	job := newJob(t, server.URL, t.TempDir(), true)

	_, err := newDownloader(logger.NewNopLogger()).Download(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeHTTPStatus, errors.TypeOf(err))
}

func TestDownloadMidStreamFailureLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("only a few bytes"))
		// Returning early with a short body makes the client see an unexpected EOF
	}))
	defer server.Close()

	job := newJob(t, server.URL, t.TempDir(), true)

	result, err := newDownloader(logger.NewNopLogger()).Download(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, result.Status)

	entries, err := os.ReadDir(job.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "neither final nor temp file may remain")
}

func TestExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"image/jpeg", "jpg", false},
		{"IMAGE/JPEG", "jpg", false},
		{"image/png", "png", false},
		{"image/webp; charset=binary", "webp", false},
		{"image/svg+xml", "svg", false},
		{"text/html", "", true},
		{"", "", true},
		{"application/octet-stream", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := Extension(tt.contentType)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrorTypeNotAnImage))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
