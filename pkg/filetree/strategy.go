// Package filetree maps a category and an asset filename to a location on
// disk. Two layouts exist: one directory per category, or every file in the
// output root with the category prefixed to its name.
package filetree

import "path/filepath"

// Strategy decides where the files of one category are written
type Strategy interface {
	// ParentDir returns the directory that holds the category's files
	ParentDir(root string) string
	// Basename turns an asset filename into the name written to disk
	Basename(filename string) string
}

// CatDirs places each category in its own subdirectory of the root
type CatDirs struct {
	Category string
}

// ParentDir returns root joined with the category title
func (s CatDirs) ParentDir(root string) string {
	return filepath.Join(root, s.Category)
}

// Basename returns filename unchanged
func (s CatDirs) Basename(filename string) string {
	return filename
}

// Flat writes every file to the root, prefixed with the category title
type Flat struct {
	Category string
}

// ParentDir returns root itself
func (s Flat) ParentDir(root string) string {
	return root
}

// Basename prefixes filename with "<category> - "
func (s Flat) Basename(filename string) string {
	return s.Category + " - " + filename
}

// New returns the strategy for one category
func New(categoryDirs bool, category string) Strategy {
	if categoryDirs {
		return CatDirs{Category: category}
	}
	return Flat{Category: category}
}
