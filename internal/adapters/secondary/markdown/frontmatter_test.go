package markdown

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontMatterSplitter_Split(t *testing.T) {
	s := NewFrontMatterSplitter()

	t.Run("yaml front matter", func(t *testing.T) {
		meta, body, err := s.Split([]byte("---\ntitle: Intro\ntheme: dark\n---\n# Welcome\n"))
		require.NoError(t, err)

		assert.Equal(t, "Intro", meta["title"])
		assert.Equal(t, "dark", meta["theme"])
		assert.Contains(t, body, "# Welcome")
		assert.NotContains(t, body, "theme: dark")
	})

	t.Run("no front matter", func(t *testing.T) {
		raw := "# Just content\n---\n# Next"
		meta, body, err := s.Split([]byte(raw))
		require.NoError(t, err)

		assert.NotNil(t, meta)
		assert.Empty(t, meta)
		assert.Contains(t, body, "# Just content")
		assert.Contains(t, body, "---\n# Next")
	})

	t.Run("toml front matter", func(t *testing.T) {
		meta, body, err := s.Split([]byte("+++\ntitle = \"Intro\"\n+++\nBody"))
		require.NoError(t, err)

		assert.Equal(t, "Intro", meta["title"])
		assert.Contains(t, body, "Body")
	})

	t.Run("nested values encode as json", func(t *testing.T) {
		meta, _, err := s.Split([]byte("---\nspeaker:\n  name: Ana\n  links:\n    - site: x\n---\nBody"))
		require.NoError(t, err)

		_, err = json.Marshal(meta)
		assert.NoError(t, err)

		speaker, ok := meta["speaker"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Ana", speaker["name"])
	})

	t.Run("invalid yaml returns raw text", func(t *testing.T) {
		raw := "---\ntitle: [broken\n---\nBody"
		meta, body, err := s.Split([]byte(raw))

		assert.Error(t, err)
		assert.Empty(t, meta)
		assert.Equal(t, raw, body)
	})
}
