package builders

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

// CourseBuilder writes a course directory for testing
type CourseBuilder struct {
	config entities.CourseConfig
	slides map[string]string
	labs   map[int]string
	assets map[string][]byte
}

// NewCourseBuilder creates a course with a config and a two slide deck
func NewCourseBuilder(id string) *CourseBuilder {
	return &CourseBuilder{
		config: entities.CourseConfig{
			ID:          id,
			Title:       "Test Course",
			Description: "A course for tests",
			Level:       entities.DefaultCourseLevel,
			Author:      entities.DefaultCourseAuthor,
			Tags:        []string{},
		},
		slides: map[string]string{
			"slides.md": NewDeckBuilder().WithSlideCount(2).Build(),
		},
		labs:   map[int]string{},
		assets: map[string][]byte{},
	}
}

// WithTitle sets the course title
func (b *CourseBuilder) WithTitle(title string) *CourseBuilder {
	b.config.Title = title
	return b
}

// WithTags sets the course tags
func (b *CourseBuilder) WithTags(tags ...string) *CourseBuilder {
	b.config.Tags = append([]string{}, tags...)
	return b
}

// WithSlides sets the content of slides/<filename>
func (b *CourseBuilder) WithSlides(filename, content string) *CourseBuilder {
	b.slides[filename] = content
	return b
}

// WithoutSlides removes every slide file, including the default deck
func (b *CourseBuilder) WithoutSlides() *CourseBuilder {
	b.slides = map[string]string{}
	return b
}

// WithLab sets the content of labs/lab-<chapter>.md
func (b *CourseBuilder) WithLab(chapter int, content string) *CourseBuilder {
	b.labs[chapter] = content
	return b
}

// WithAsset stores data at assets/<path>
func (b *CourseBuilder) WithAsset(path string, data []byte) *CourseBuilder {
	b.assets[path] = data
	return b
}

// Config returns the course config that will be written
func (b *CourseBuilder) Config() entities.CourseConfig {
	return b.config
}

// WriteTo creates courses/<id> under root
func (b *CourseBuilder) WriteTo(root string) error {
	dir := filepath.Join(root, "courses", b.config.ID)

	if err := writeJSON(filepath.Join(dir, "config.json"), b.config); err != nil {
		return err
	}
	for name, content := range b.slides {
		if err := writeFile(filepath.Join(dir, "slides", name), []byte(content)); err != nil {
			return err
		}
	}
	for _, chapter := range sortedKeys(b.labs) {
		name := fmt.Sprintf("lab-%d.md", chapter)
		if err := writeFile(filepath.Join(dir, "labs", name), []byte(b.labs[chapter])); err != nil {
			return err
		}
	}
	for p, data := range b.assets {
		if err := writeFile(filepath.Join(dir, "assets", filepath.FromSlash(p)), data); err != nil {
			return err
		}
	}
	return nil
}

// BlogBuilder writes a blog post directory for testing
type BlogBuilder struct {
	config  entities.BlogConfig
	content string
	assets  map[string][]byte
}

// NewBlogBuilder creates a published post
func NewBlogBuilder(slug string) *BlogBuilder {
	return &BlogBuilder{
		config: entities.BlogConfig{
			Slug:        slug,
			Title:       "Test Post",
			Author:      "Test Author",
			PublishDate: "2024-01-01",
			Tags:        []string{},
		},
		content: "# Test Post\n\nFirst paragraph of the post.",
		assets:  map[string][]byte{},
	}
}

// WithTitle sets the post title
func (b *BlogBuilder) WithTitle(title string) *BlogBuilder {
	b.config.Title = title
	return b
}

// WithPublishDate sets the YYYY-MM-DD publish date
func (b *BlogBuilder) WithPublishDate(date string) *BlogBuilder {
	b.config.PublishDate = date
	return b
}

// WithDraft marks the post as a draft
func (b *BlogBuilder) WithDraft() *BlogBuilder {
	b.config.Draft = true
	return b
}

// WithExcerpt sets an explicit excerpt
func (b *BlogBuilder) WithExcerpt(excerpt string) *BlogBuilder {
	b.config.Excerpt = excerpt
	return b
}

// WithContent sets the post markdown
func (b *BlogBuilder) WithContent(content string) *BlogBuilder {
	b.content = content
	return b
}

// WithAsset stores data at assets/<name>
func (b *BlogBuilder) WithAsset(name string, data []byte) *BlogBuilder {
	b.assets[name] = data
	return b
}

// WriteTo creates blogs/<slug> under root
func (b *BlogBuilder) WriteTo(root string) error {
	dir := filepath.Join(root, "blogs", b.config.Slug)

	if err := writeJSON(filepath.Join(dir, "config.json"), b.config); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "content.md"), []byte(b.content)); err != nil {
		return err
	}
	for name, data := range b.assets {
		if err := writeFile(filepath.Join(dir, "assets", name), data); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
