package entities

// Slide is one rendered unit of a slide deck. Slides are produced fresh on
// every parse and are never persisted on their own.
type Slide struct {
	// ID is the 1-based position of the slide in the deck
	ID int `json:"id"`

	// Content is the trimmed markdown body of the segment
	Content string `json:"content"`

	// HTML is the rendered content
	HTML string `json:"html"`

	// Metadata holds the slide's own front matter or inherited global metadata.
	// It is never nil.
	Metadata map[string]any `json:"metadata"`
}

// Document is a markdown file after its front matter has been removed.
type Document struct {
	Metadata map[string]any `json:"metadata"`
	Body     string         `json:"-"`
}

// Deck is the API shape of a parsed slide file.
type Deck struct {
	Metadata map[string]any `json:"metadata"`
	Slides   []Slide        `json:"slides"`
	HTML     string         `json:"html"`
}

// SlideFile describes one markdown file stored under a course's slides directory.
type SlideFile struct {
	Filename string         `json:"filename"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	HTML     string         `json:"html"`
	Metadata map[string]any `json:"metadata"`
}

// UploadResult describes a markdown file stored for a course.
type UploadResult struct {
	Filename   string         `json:"filename"`
	Title      string         `json:"title"`
	Chapter    int            `json:"chapter,omitempty"`
	CourseName string         `json:"course_name,omitempty"`
	Content    string         `json:"content"`
	HTML       string         `json:"html"`
	Metadata   map[string]any `json:"metadata"`
}

// CloneMetadata returns a shallow copy of m that is never nil.
func CloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MetadataString returns m[key] when it holds a non-empty string.
func MetadataString(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
