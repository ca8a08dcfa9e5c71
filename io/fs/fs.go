// Package fs provides a simple interface for a filesystem
package fs

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

var ErrExist = os.ErrExist
var ErrNotExist = os.ErrNotExist

// FileInfo describes a file and is returned by Stat and List.
type FileInfo interface {
	// Name returns the full name of the file, starting with a "/".
	Name() string

	// Size reports the size of the file in bytes.
	Size() int64

	// ModTime returns the time of last modification.
	ModTime() time.Time

	// IsDir returns whether the file represents a directory.
	IsDir() bool
}

// Filesystem is an interface that provides access to a filesystem. All paths
// are relative to the root of the filesystem. Leading "/" and ".." are
// resolved such that no path leaves the root.
type Filesystem interface {
	// Name returns the name of the filesystem.
	Name() string

	// Type returns the type of the filesystem, e.g. disk, mem, s3
	Type() string

	// Stat returns info about the file at path. If the file doesn't exist, an error
	// wrapping ErrNotExist will be returned.
	Stat(path string) (FileInfo, error)

	// ReadFile returns the contents of the file at path. If the file doesn't exist,
	// an error wrapping ErrNotExist will be returned.
	ReadFile(path string) ([]byte, error)

	// WriteFile adds a file to the filesystem. Returns the size of the data that has been
	// stored in bytes and whether the file is new. The size is negative if there was
	// an error adding the file and error is not nil.
	WriteFile(path string, data []byte) (int64, bool, error)

	// WriteFileSafe adds a file to the filesystem by first writing it to a tempfile and then
	// renaming it to the actual path. A reader never observes a partially written file.
	WriteFileSafe(path string, data []byte) (int64, bool, error)

	// MkdirAll creates a directory named path, along with any necessary parents. If path
	// is already a directory, MkdirAll does nothing and returns nil.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file at the given path from the filesystem. Returns the size of
	// the remove file in bytes. The size is negative if the file doesn't exist.
	Remove(path string) int64

	// List lists all files below path. If pattern is not empty, only the files whose
	// name matches the glob pattern are returned.
	List(path, pattern string) []FileInfo
}

// IsNotExist returns whether err reports a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// cleanPath returns path as an absolute, slash separated path that can't
// escape the root.
func cleanPath(path string) string {
	return filepath.ToSlash(filepath.Join("/", filepath.Clean("/"+path)))
}
