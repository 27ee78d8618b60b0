package ports

import (
	"context"
	"time"
)

// FileWatcher reports changes below a directory tree
type FileWatcher interface {
	// Watch starts watching root recursively; the channel closes when ctx ends
	Watch(ctx context.Context, root string) (<-chan FileChangeEvent, error)
	// Stop stops the file watcher
	Stop() error
}

// FileChangeEvent represents a file change event. Path is relative to the
// watched root.
type FileChangeEvent struct {
	Path      string     `json:"path"`
	Type      ChangeType `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
}

// ChangeType represents the type of file change
type ChangeType int

const (
	// Modified indicates the file was modified
	Modified ChangeType = iota
	// Created indicates the file was created
	Created
	// Deleted indicates the file was deleted
	Deleted
	// Renamed indicates the file was renamed
	Renamed
)

// String returns the string representation of ChangeType
func (c ChangeType) String() string {
	switch c {
	case Modified:
		return "modified"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the change type by name
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
