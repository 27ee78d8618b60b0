package ports

// Profile selects the goldmark configuration used for a render
type Profile int

const (
	// ProfileSlide renders GFM tables, fenced code and highlighting
	ProfileSlide Profile = iota
	// ProfileDocument adds heading ids to the slide profile
	ProfileDocument
	// ProfileBlog adds hard line breaks and typographic quotes to the document profile
	ProfileBlog
)

// String returns the profile name used in logs and metrics labels
func (p Profile) String() string {
	switch p {
	case ProfileSlide:
		return "slide"
	case ProfileDocument:
		return "document"
	case ProfileBlog:
		return "blog"
	default:
		return "unknown"
	}
}

// MarkdownRenderer converts markdown to HTML
type MarkdownRenderer interface {
	Render(profile Profile, markdown string) (string, error)
}

// FrontMatterSplitter separates a leading front-matter block from the body.
// Text without front matter yields an empty, non-nil map and the raw text.
type FrontMatterSplitter interface {
	Split(raw []byte) (map[string]any, string, error)
}
