package entities

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// BlogConfig is the persisted config.json of a blog post.
type BlogConfig struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Author      string   `json:"author,omitempty"`
	PublishDate string   `json:"publishDate,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Draft       bool     `json:"draft,omitempty"`
	CoverImage  string   `json:"coverImage,omitempty"`
}

// BlogPost is a published post with its rendered body.
type BlogPost struct {
	Config   BlogConfig     `json:"config"`
	Content  string         `json:"content"`
	HTML     string         `json:"html"`
	Metadata map[string]any `json:"metadata"`
}

// BlogRequest is accepted by blog create and update.
type BlogRequest struct {
	Slug        string   `json:"slug,omitempty"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Author      string   `json:"author,omitempty"`
	PublishDate string   `json:"publishDate,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Draft       bool     `json:"draft,omitempty"`
	CoverImage  string   `json:"coverImage,omitempty"`
	Content     string   `json:"content"`
}

// Validate requires a title and content; publishDate must be YYYY-MM-DD
// when given.
func (r BlogRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.By(notBlank("title"))),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.PublishDate, validation.Date("2006-01-02")),
	)
}

// Config returns the persisted form of the request under slug.
func (r BlogRequest) Config(slug string) BlogConfig {
	return BlogConfig{
		Slug:        slug,
		Title:       strings.TrimSpace(r.Title),
		Excerpt:     r.Excerpt,
		Author:      r.Author,
		PublishDate: r.PublishDate,
		Tags:        append([]string(nil), r.Tags...),
		Draft:       r.Draft,
		CoverImage:  r.CoverImage,
	}
}
