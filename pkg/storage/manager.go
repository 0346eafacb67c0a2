package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"walldl/pkg/errors"
)

// TempSuffix marks files that are still being written. Such names are never
// treated as complete assets.
const TempSuffix = ".tmp"

// EnsureDir creates dir and its parents when missing
func EnsureDir(dir string) error {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return errors.New(errors.ErrorTypeFilesystem, "%s exists and is not a directory", dir)
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrorTypeFilesystem, err, "failed to create directory %s", dir)
	}
	return nil
}

// AssetPattern is the name pattern of any stored file for assetID
func AssetPattern(assetID string) string {
	return "* - " + assetID + ".*"
}

// FindAsset looks in dir for a complete file of assetID and returns its
// path. A missing dir is reported as not found.
func FindAsset(dir, assetID string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrap(errors.ErrorTypeFilesystem, err, "failed to read directory %s", dir)
	}

	pattern := AssetPattern(assetID)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, TempSuffix) {
			continue
		}
		// Matching per entry keeps glob metacharacters in dir literal
		if ok, _ := filepath.Match(pattern, name); ok {
			return filepath.Join(dir, name), true, nil
		}
	}
	return "", false, nil
}

// WriteAtomic streams r into path+TempSuffix and renames the result to path
// once the copy is complete. On any failure the temp file is removed and
// path is left untouched. It returns the number of bytes written.
func WriteAtomic(path string, r io.Reader) (int64, error) {
	tempFile := path + TempSuffix
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeFilesystem, err, "failed to create temporary file")
	}

	src := &sourceReader{r: r}
	n, err := io.Copy(out, src)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		if src.err != nil {
			return n, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read asset data after %d bytes", n)
		}
		return n, errors.Wrap(errors.ErrorTypeFilesystem, err, "failed to write %s", tempFile)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return n, errors.Wrap(errors.ErrorTypeFilesystem, closeErr, "failed to close file")
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return n, errors.Wrap(errors.ErrorTypeFilesystem, err, "failed to rename temporary file")
	}

	return n, nil
}

// sourceReader remembers read errors so they can be told apart from write
// errors after io.Copy.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
