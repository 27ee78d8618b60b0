package filestore

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStore_ReadWrite(t *testing.T) {
	s := newTestStore(t)

	t.Run("write creates parents", func(t *testing.T) {
		require.NoError(t, s.Write("courses/go/slides/slides.md", []byte("# Hi")))

		data, err := s.Read("courses/go/slides/slides.md")
		require.NoError(t, err)
		assert.Equal(t, "# Hi", string(data))
	})

	t.Run("write replaces content", func(t *testing.T) {
		require.NoError(t, s.Write("a.txt", []byte("one")))
		require.NoError(t, s.Write("a.txt", []byte("two")))

		data, err := s.Read("a.txt")
		require.NoError(t, err)
		assert.Equal(t, "two", string(data))

		entries, err := s.List("")
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name, tempPrefix)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.Read("nope.md")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestStore_PathEscape(t *testing.T) {
	s := newTestStore(t)

	for _, p := range []string{"../secret", "courses/../../etc/passwd", `a\b`, "a\x00b"} {
		t.Run(p, func(t *testing.T) {
			_, err := s.Read(p)
			assert.ErrorIs(t, err, entities.ErrInvalidPath)
			assert.ErrorIs(t, s.Write(p, nil), entities.ErrInvalidPath)
			assert.False(t, s.Exists(p))
		})
	}

	t.Run("absolute paths stay inside the root", func(t *testing.T) {
		require.NoError(t, s.Write("/inside.txt", []byte("x")))
		_, err := os.Stat(filepath.Join(s.Root(), "inside.txt"))
		assert.NoError(t, err)
	})

	t.Run("root cannot be removed", func(t *testing.T) {
		assert.ErrorIs(t, s.RemoveAll(""), entities.ErrInvalidPath)
		assert.ErrorIs(t, s.Remove("/"), entities.ErrInvalidPath)
	})
}

func TestStore_ListStatWalk(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("assets/b.png", []byte("bb")))
	require.NoError(t, s.Write("assets/a.png", []byte("a")))
	require.NoError(t, s.Write("assets/img/c.svg", []byte("ccc")))

	entries, err := s.List("assets")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.png", entries[0].Name)
	assert.Equal(t, "assets/a.png", entries[0].Path)
	assert.Equal(t, "img", entries[2].Name)
	assert.True(t, entries[2].IsDir)

	entry, err := s.Stat("assets/b.png")
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.Size)

	var walked []string
	require.NoError(t, s.Walk("assets", func(e ports.Entry) error {
		walked = append(walked, e.Path)
		return nil
	}))
	assert.Equal(t, []string{"assets/a.png", "assets/b.png", "assets/img/c.svg"}, walked)

	_, err = s.List("missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)
	assert.ErrorIs(t, s.Walk("missing", func(ports.Entry) error { return nil }), entities.ErrNotFound)
}

func TestStore_RemoveAndOpen(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("blogs/post/content.md", []byte("body")))

	rc, entry, err := s.Open("blogs/post/content.md")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "body", string(data))
	assert.Equal(t, "content.md", entry.Name)

	_, _, err = s.Open("blogs/post")
	assert.ErrorIs(t, err, entities.ErrNotFound)

	require.NoError(t, s.Remove("blogs/post/content.md"))
	assert.ErrorIs(t, s.Remove("blogs/post/content.md"), entities.ErrNotFound)

	require.NoError(t, s.MkdirAll("blogs/post/assets"))
	require.NoError(t, s.RemoveAll("blogs/post"))
	assert.False(t, s.Exists("blogs/post"))
}

func TestStore_CreateUnique(t *testing.T) {
	s := newTestStore(t)

	name, err := s.CreateUnique("courses/go/assets", "logo.png", []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, "logo.png", name)

	name, err = s.CreateUnique("courses/go/assets", "logo.png", []byte("2"))
	require.NoError(t, err)
	assert.Equal(t, "logo_1.png", name)

	name, err = s.CreateUnique("courses/go/assets", "logo.png", []byte("3"))
	require.NoError(t, err)
	assert.Equal(t, "logo_2.png", name)

	data, err := s.Read("courses/go/assets/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	name, err = s.CreateUnique("x", ".env", nil)
	require.NoError(t, err)
	assert.Equal(t, ".env", name)
	name, err = s.CreateUnique("x", ".env", nil)
	require.NoError(t, err)
	assert.Equal(t, ".env_1", name)

	_, err = s.CreateUnique("x", "a/b", nil)
	assert.ErrorIs(t, err, entities.ErrInvalidPath)
}
