package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Options configures the goldmark renderer
type Options struct {
	// HighlightStyle is a chroma style name such as "github" or "monokai"
	HighlightStyle string

	// Sanitize passes every render through a bluemonday policy
	Sanitize bool
}

// GoldmarkRenderer implements ports.MarkdownRenderer with one goldmark
// instance per profile
type GoldmarkRenderer struct {
	profiles map[ports.Profile]goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewGoldmarkRenderer creates a renderer for the slide, document and blog profiles
func NewGoldmarkRenderer(opts Options) *GoldmarkRenderer {
	style := opts.HighlightStyle
	if style == "" {
		style = "github"
	}

	base := func() []goldmark.Extender {
		return []goldmark.Extender{
			extension.GFM, // tables, strikethrough, autolinks, task lists
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(),
			),
		}
	}

	r := &GoldmarkRenderer{
		profiles: map[ports.Profile]goldmark.Markdown{
			ports.ProfileSlide: goldmark.New(
				goldmark.WithExtensions(base()...),
				goldmark.WithRendererOptions(html.WithUnsafe()),
			),
			ports.ProfileDocument: goldmark.New(
				goldmark.WithExtensions(base()...),
				goldmark.WithParserOptions(parser.WithAutoHeadingID()),
				goldmark.WithRendererOptions(html.WithUnsafe()),
			),
			ports.ProfileBlog: goldmark.New(
				goldmark.WithExtensions(append(base(), extension.Typographer)...),
				goldmark.WithParserOptions(parser.WithAutoHeadingID()),
				goldmark.WithRendererOptions(
					html.WithHardWraps(),
					html.WithUnsafe(),
				),
			),
		},
	}

	if opts.Sanitize {
		r.policy = newSanitizer()
	}

	return r
}

// Render converts markdown to HTML using the requested profile
func (r *GoldmarkRenderer) Render(profile ports.Profile, markdown string) (string, error) {
	md, ok := r.profiles[profile]
	if !ok {
		return "", fmt.Errorf("unknown render profile %d", profile)
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering %s markdown: %w", profile, err)
	}

	if r.policy != nil {
		return r.policy.Sanitize(buf.String()), nil
	}
	return buf.String(), nil
}

// newSanitizer allows user generated content plus the classes, heading ids
// and inline colours produced by the highlighter.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class").Globally()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowStyles("color", "background-color", "font-weight", "font-style", "text-decoration").
		OnElements("pre", "code", "span")

	return p
}

var _ ports.MarkdownRenderer = (*GoldmarkRenderer)(nil)
