package ports

import (
	"io"
	"time"
)

// Entry describes one file or directory in the content store. Path is
// slash-separated and relative to the store root.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// ContentStore abstracts the content tree (courses, blogs, temp sessions).
// Every path is slash-separated and relative to the store root; paths that
// escape the root fail with entities.ErrInvalidPath and missing files fail
// with entities.ErrNotFound.
type ContentStore interface {
	// Read returns the whole file
	Read(path string) ([]byte, error)

	// Write replaces the file atomically, creating parent directories
	Write(path string, data []byte) error

	// List returns the direct children of dir sorted by name
	List(dir string) ([]Entry, error)

	// Exists reports whether path names a file or directory
	Exists(path string) bool

	// Stat describes a single path
	Stat(path string) (Entry, error)

	// Remove deletes a file or an empty directory
	Remove(path string) error

	// RemoveAll deletes path and everything below it
	RemoveAll(path string) error

	// MkdirAll creates dir and any missing parents
	MkdirAll(dir string) error

	// Walk calls fn for every file below dir in lexical order
	Walk(dir string, fn func(Entry) error) error

	// Open streams a file; callers must close the reader
	Open(path string) (io.ReadSeekCloser, Entry, error)

	// CreateUnique writes data to dir/name, or to dir/<stem>_<N><ext> for the
	// first N that is free, and returns the name used
	CreateUnique(dir, name string, data []byte) (string, error)
}
