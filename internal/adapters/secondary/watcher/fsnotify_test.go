package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// waitFor returns the first event for path, skipping others
func waitFor(t *testing.T, events <-chan ports.FileChangeEvent, path string) ports.FileChangeEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "events channel closed")
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestTreeWatcher(t *testing.T) {
	t.Run("rejects missing root", func(t *testing.T) {
		w := NewTreeWatcher(50*time.Millisecond, nil)
		_, err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("rejects file root", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.md")
		writeFile(t, file, "x")

		w := NewTreeWatcher(50*time.Millisecond, nil)
		_, err := w.Watch(context.Background(), file)
		assert.Error(t, err)
	})

	t.Run("reports nested changes relative to root", func(t *testing.T) {
		root := t.TempDir()
		slides := filepath.Join(root, "courses", "go", "slides", "slides.md")
		writeFile(t, slides, "# One")

		w := NewTreeWatcher(50*time.Millisecond, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		defer func() { _ = w.Stop() }()

		events, err := w.Watch(ctx, root)
		require.NoError(t, err)

		writeFile(t, slides, "# Two")

		ev := waitFor(t, events, "courses/go/slides/slides.md")
		assert.Equal(t, ports.Modified, ev.Type)
		assert.WithinDuration(t, time.Now(), ev.Timestamp, 3*time.Second)
	})

	t.Run("watches directories created later", func(t *testing.T) {
		root := t.TempDir()

		w := NewTreeWatcher(50*time.Millisecond, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		defer func() { _ = w.Stop() }()

		events, err := w.Watch(ctx, root)
		require.NoError(t, err)

		writeFile(t, filepath.Join(root, "blogs", "hello", "content.md"), "hi")

		ev := waitFor(t, events, "blogs/hello/content.md")
		assert.Equal(t, ports.Created, ev.Type)
	})

	t.Run("closes channel on stop", func(t *testing.T) {
		w := NewTreeWatcher(50*time.Millisecond, nil)
		events, err := w.Watch(context.Background(), t.TempDir())
		require.NoError(t, err)

		require.NoError(t, w.Stop())
		require.NoError(t, w.Stop())

		_, ok := <-events
		assert.False(t, ok)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		w := NewTreeWatcher(50*time.Millisecond, nil)
		defer func() { _ = w.Stop() }()

		root := t.TempDir()
		_, err := w.Watch(context.Background(), root)
		require.NoError(t, err)

		_, err = w.Watch(context.Background(), root)
		assert.Error(t, err)
	})
}

func TestShouldIgnore(t *testing.T) {
	tests := map[string]bool{
		"/c/courses/go/slides/slides.md": false,
		"/c/courses/go/.DS_Store":        true,
		"/c/.tmp-1234":                   true,
		"/c/notes.md~":                   true,
		"/c/.slides.md.swp":              true,
		"/c/#slides.md#":                 true,
		"/c/assets/Thumbs.db":            true,
	}
	for path, want := range tests {
		assert.Equal(t, want, shouldIgnore(path), path)
	}
}

func TestChangeTypeOf(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want ports.ChangeType
		ok   bool
	}{
		{fsnotify.Create, ports.Created, true},
		{fsnotify.Write, ports.Modified, true},
		{fsnotify.Remove, ports.Deleted, true},
		{fsnotify.Rename, ports.Renamed, true},
		{fsnotify.Chmod, 0, false},
		{fsnotify.Create | fsnotify.Write, ports.Created, true},
	}
	for _, tt := range tests {
		got, ok := changeTypeOf(tt.op)
		assert.Equal(t, tt.ok, ok, tt.op.String())
		assert.Equal(t, tt.want, got, tt.op.String())
	}
}
