package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Content tree layout, relative to the store root
const (
	coursesDir     = "courses"
	blogsDir       = "blogs"
	tempSlidesDir  = "temp_slides"
	tempLabsDir    = "temp_labs"
	courseConfig   = "config.json"
	defaultDeck    = "slides.md"
	blogConfigFile = "config.json"
	blogContent    = "content.md"
)

var (
	headingLine    = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	unsafeFileChar = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)
)

// Dependencies bundles the collaborators shared by the content services
type Dependencies struct {
	Store    ports.ContentStore
	Renderer ports.MarkdownRenderer
	Splitter ports.FrontMatterSplitter
	Parser   ports.SlideParser
	Logger   ports.Logger
	Metrics  ports.MetricsRecorder
	Clock    ports.TimeProvider
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = ports.NopLogger{}
	}
	if d.Metrics == nil {
		d.Metrics = ports.NopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = ports.NewRealTimeProvider()
	}
	if d.Parser == nil {
		d.Parser = NewSegmenter(d.Renderer, d.Metrics, d.Logger)
	}
	return d
}

// loadDocument reads p and splits its front matter. A front matter that
// cannot be parsed is logged and the raw text becomes the body.
func (d Dependencies) loadDocument(p string) (entities.Document, string, error) {
	raw, err := d.Store.Read(p)
	if err != nil {
		return entities.Document{}, "", err
	}
	return d.splitDocument(p, raw), string(raw), nil
}

func (d Dependencies) splitDocument(name string, raw []byte) entities.Document {
	meta, body, err := d.Splitter.Split(raw)
	if err != nil {
		d.Logger.Warn("front matter of %s ignored: %v", name, err)
		return entities.Document{Metadata: map[string]any{}, Body: string(raw)}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return entities.Document{Metadata: meta, Body: body}
}

// render never fails the caller; a broken render yields empty HTML
func (d Dependencies) render(profile ports.Profile, markdown string) string {
	html, err := d.Renderer.Render(profile, markdown)
	if err != nil {
		d.Logger.Warn("rendering %s markdown: %v", profile, err)
		return ""
	}
	return html
}

func (d Dependencies) readJSON(p string, v any) error {
	data, err := d.Store.Read(p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", p, err)
	}
	return nil
}

func (d Dependencies) writeJSON(p string, v any) error {
	data, err := marshalIndent(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", p, err)
	}
	return d.Store.Write(p, data)
}

// marshalIndent encodes v with two-space indentation and without HTML escaping
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// firstHeading returns the text of the first level-one heading
func firstHeading(body string) (string, bool) {
	m := headingLine.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// titleFromName turns "getting-started" into "Getting Started"
func titleFromName(name string) string {
	// Casers keep state and cannot be shared between goroutines
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

func stem(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// SanitizeFilename keeps letters, digits, dash, underscore and dot; every
// other character becomes an underscore.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = unsafeFileChar.ReplaceAllString(name, "_")
	if name == "" || strings.Trim(name, ".") == "" {
		return "unnamed_file"
	}
	return name
}

// checkSegment rejects ids and filenames that would leave their directory
func checkSegment(kind, s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\\x00") {
		return fmt.Errorf("%w: %s %q", entities.ErrInvalidPath, kind, s)
	}
	return nil
}

// checkRelative rejects relative paths containing parent references
func checkRelative(p string) (string, error) {
	if p == "" || strings.ContainsAny(p, "\\\x00") {
		return "", fmt.Errorf("%w: %q", entities.ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", entities.ErrInvalidPath, p)
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" {
		return "", fmt.Errorf("%w: %q", entities.ErrInvalidPath, p)
	}
	return clean, nil
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", entities.ErrInvalidInput, err)
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", entities.ErrNotFound, what)
}
