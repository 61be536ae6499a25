// Package storage defines the workspace file-system abstraction.
package storage

import "github.com/outfitter-dev/waymark/internal/models"

// Provider is the interface for workspace file operations. All paths are
// relative to the workspace root and use forward slashes.
type Provider interface {
	// Root returns the absolute workspace root.
	Root() string
	// List returns metadata for every file under dir accepted by the matcher.
	List(dir string) ([]models.FileMetadata, error)
	// Match reports whether the file at path is scanned.
	Match(path string) bool
	// SkipDir reports whether the directory at path is pruned from walks.
	SkipDir(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
