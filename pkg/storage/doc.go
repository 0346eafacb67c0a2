// Package storage holds the filesystem side of a download.
//
// The storage package handles:
//   - Creating destination directories
//   - Finding an already stored asset by its id, whatever its title or extension
//   - Writing files atomically through a temporary file and rename
//
// A file whose name ends in TempSuffix is incomplete. The final name only
// ever appears through a rename of a fully written temp file, so any file
// that FindAsset reports is complete.
//
// Usage:
//
//	if err := storage.EnsureDir(dir); err != nil {
//	    return err
//	}
//	if _, found, _ := storage.FindAsset(dir, "12345"); !found {
//	    n, err := storage.WriteAtomic(filepath.Join(dir, "Forest Path - 12345.jpg"), body)
//	    ...
//	}
package storage
