package entities

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// DefaultCourseLevel is used when a create request leaves level empty
	DefaultCourseLevel = "Beginner"

	// DefaultCourseAuthor is used when a create request leaves author empty
	DefaultCourseAuthor = "Training Team"
)

// Course is the API view of a course directory: its config.json overlaid on
// defaults derived from the id, plus the number of slides in slides.md.
type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Level       string   `json:"level,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SlidesCount int      `json:"slides_count"`
}

// CourseConfig is the persisted form of config.json.
type CourseConfig struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Level       string   `json:"level,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags"`
}

// Apply overlays the non-empty config values onto c.
func (c *Course) Apply(cfg CourseConfig) {
	if cfg.ID != "" {
		c.ID = cfg.ID
	}
	if cfg.Title != "" {
		c.Title = cfg.Title
	}
	if cfg.Description != "" {
		c.Description = cfg.Description
	}
	if cfg.Level != "" {
		c.Level = cfg.Level
	}
	if cfg.Author != "" {
		c.Author = cfg.Author
	}
	if cfg.Tags != nil {
		c.Tags = append([]string(nil), cfg.Tags...)
	}
}

// CreateCourseRequest carries the fields accepted by POST /api/courses
type CreateCourseRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Level         string   `json:"level,omitempty"`
	Author        string   `json:"author,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	SlidesContent string   `json:"slides_content,omitempty"`
}

// Validate ensures title and description are present.
func (r CreateCourseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.By(notBlank("title"))),
		validation.Field(&r.Description, validation.Required),
	)
}

// UpdateCourseRequest is a partial update; nil fields are left untouched.
type UpdateCourseRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Level       *string   `json:"level,omitempty"`
	Author      *string   `json:"author,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Validate rejects explicit blank titles.
func (r UpdateCourseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty),
	)
}

// ApplyTo writes the non-nil fields into cfg.
func (r UpdateCourseRequest) ApplyTo(cfg *CourseConfig) {
	if r.Title != nil {
		cfg.Title = *r.Title
	}
	if r.Description != nil {
		cfg.Description = *r.Description
	}
	if r.Level != nil {
		cfg.Level = *r.Level
	}
	if r.Author != nil {
		cfg.Author = *r.Author
	}
	if r.Tags != nil {
		cfg.Tags = append([]string{}, (*r.Tags)...)
	}
}

func notBlank(field string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError("validation_"+field+"_blank", field+" must not be blank")
		}
		return nil
	}
}
