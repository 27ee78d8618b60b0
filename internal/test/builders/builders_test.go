package builders

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

func TestDeckBuilder(t *testing.T) {
	t.Run("empty deck", func(t *testing.T) {
		assert.Equal(t, "\n", NewDeckBuilder().Build())
	})

	t.Run("front matter and metadata slides", func(t *testing.T) {
		deck := NewDeckBuilder().
			WithFrontMatter("theme", "dark").
			WithSlide("# One").
			WithMetadataSlide(map[string]interface{}{"layout": "center"}, "# Two").
			Build()

		assert.Equal(t, "---\ntheme: dark\n---\n# One\n---\nlayout: center\n---\n# Two\n", deck)
	})

	t.Run("numbered slides continue after existing ones", func(t *testing.T) {
		deck := NewDeckBuilder().WithSlide("# Intro").WithSlideCount(2).Build()
		assert.Contains(t, deck, "# Slide 2")
		assert.Contains(t, deck, "# Slide 3")
		assert.NotContains(t, deck, "# Slide 1\n")
	})
}

func TestSlideBuilder(t *testing.T) {
	b := NewSlideBuilder().WithID(3).WithContent("# Three").WithMetadata("theme", "dark")
	first := b.Build()
	second := b.WithMetadata("layout", "wide").Build()

	assert.Equal(t, 3, first.ID)
	assert.Equal(t, "# Three", first.Content)
	assert.Equal(t, map[string]any{"theme": "dark"}, first.Metadata)
	assert.Len(t, second.Metadata, 2)
}

func TestCourseBuilder(t *testing.T) {
	root := t.TempDir()

	err := NewCourseBuilder("go").
		WithTitle("Go").
		WithTags("backend").
		WithSlides("extra.md", "# Extra").
		WithLab(2, "# Lab Two").
		WithAsset("img/logo.png", []byte("PNG")).
		WriteTo(root)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "courses", "go", "config.json"))
	require.NoError(t, err)
	var cfg entities.CourseConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "Go", cfg.Title)
	assert.Equal(t, []string{"backend"}, cfg.Tags)

	for _, p := range []string{"slides/slides.md", "slides/extra.md", "labs/lab-2.md", "assets/img/logo.png"} {
		assert.FileExists(t, filepath.Join(root, "courses", "go", filepath.FromSlash(p)))
	}
}

func TestBlogBuilder(t *testing.T) {
	root := t.TempDir()

	err := NewBlogBuilder("hello").WithDraft().WithAsset("cover.png", []byte("PNG")).WriteTo(root)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "blogs", "hello", "config.json"))
	require.NoError(t, err)
	var cfg entities.BlogConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.True(t, cfg.Draft)
	assert.FileExists(t, filepath.Join(root, "blogs", "hello", "content.md"))
	assert.FileExists(t, filepath.Join(root, "blogs", "hello", "assets", "cover.png"))
}
