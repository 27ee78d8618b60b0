package builders

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

// DeckBuilder helps build slide markdown for testing
type DeckBuilder struct {
	frontMatter map[string]interface{}
	segments    []string
}

// NewDeckBuilder creates an empty deck without front matter
func NewDeckBuilder() *DeckBuilder {
	return &DeckBuilder{}
}

// WithFrontMatter adds a key to the document front matter
func (b *DeckBuilder) WithFrontMatter(key string, value interface{}) *DeckBuilder {
	if b.frontMatter == nil {
		b.frontMatter = make(map[string]interface{})
	}
	b.frontMatter[key] = value
	return b
}

// WithSlide appends a content segment
func (b *DeckBuilder) WithSlide(content string) *DeckBuilder {
	b.segments = append(b.segments, content)
	return b
}

// WithMetadataSlide appends a metadata segment followed by its content
func (b *DeckBuilder) WithMetadataSlide(metadata map[string]interface{}, content string) *DeckBuilder {
	b.segments = append(b.segments, marshalYAML(metadata), content)
	return b
}

// WithSlideCount appends count numbered slides
func (b *DeckBuilder) WithSlideCount(count int) *DeckBuilder {
	start := len(b.segments)
	for i := 1; i <= count; i++ {
		b.segments = append(b.segments, "# Slide "+strconv.Itoa(start+i)+"\n\nTest content")
	}
	return b
}

// Build renders the deck as markdown with "---" delimiter lines
func (b *DeckBuilder) Build() string {
	var sb strings.Builder
	if len(b.frontMatter) > 0 {
		sb.WriteString("---\n")
		sb.WriteString(marshalYAML(b.frontMatter))
		sb.WriteString("\n---\n")
	}
	sb.WriteString(strings.Join(b.segments, "\n---\n"))
	sb.WriteString("\n")
	return sb.String()
}

// BuildBytes is Build as a byte slice for store writes and uploads
func (b *DeckBuilder) BuildBytes() []byte {
	return []byte(b.Build())
}

func marshalYAML(v map[string]interface{}) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		panic("builders: marshalling metadata: " + err.Error())
	}
	return strings.TrimRight(string(data), "\n")
}

// SlideBuilder helps build expected Slide entities
type SlideBuilder struct {
	slide entities.Slide
}

// NewSlideBuilder creates slide 1 with empty metadata
func NewSlideBuilder() *SlideBuilder {
	return &SlideBuilder{
		slide: entities.Slide{
			ID:       1,
			Content:  "# Test Slide",
			Metadata: map[string]any{},
		},
	}
}

// WithID sets the slide position
func (b *SlideBuilder) WithID(id int) *SlideBuilder {
	b.slide.ID = id
	return b
}

// WithContent sets the slide markdown
func (b *SlideBuilder) WithContent(content string) *SlideBuilder {
	b.slide.Content = content
	return b
}

// WithHTML sets the rendered slide
func (b *SlideBuilder) WithHTML(html string) *SlideBuilder {
	b.slide.HTML = html
	return b
}

// WithMetadata sets one metadata key
func (b *SlideBuilder) WithMetadata(key string, value any) *SlideBuilder {
	b.slide.Metadata[key] = value
	return b
}

// Build returns a copy of the slide
func (b *SlideBuilder) Build() entities.Slide {
	slide := b.slide
	slide.Metadata = entities.CloneMetadata(b.slide.Metadata)
	return slide
}
