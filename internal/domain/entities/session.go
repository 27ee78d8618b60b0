package entities

import (
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SessionKind selects which course subdirectory an edit session commits to
type SessionKind string

const (
	SessionSlides SessionKind = "slides"
	SessionLabs   SessionKind = "labs"
)

// EditSession is a temporary working copy of a course markdown file.
type EditSession struct {
	ID               string      `json:"id"`
	Kind             SessionKind `json:"kind"`
	OriginalFilename string      `json:"originalFilename"`
	TempFilename     string      `json:"tempFilename"`
	CourseID         string      `json:"courseId"`
	Content          string      `json:"content"`
	CreatedAt        time.Time   `json:"createdAt"`
	LastModified     time.Time   `json:"lastModified"`
}

// Expired reports whether the session has been idle for longer than ttl.
func (s EditSession) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastModified) > ttl
}

// CreateSessionRequest opens an edit session.
type CreateSessionRequest struct {
	OriginalFilename string `json:"originalFilename"`
	Content          string `json:"content"`
	CourseID         string `json:"courseId"`
}

// Validate requires a bare .md filename and a course id.
func (r CreateSessionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OriginalFilename, validation.Required, validation.By(bareMarkdownName)),
		validation.Field(&r.CourseID, validation.Required, validation.By(func(value any) error {
			s, _ := value.(string)
			if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
				return validation.NewError("validation_course_id", "course id must be a single path segment")
			}
			return nil
		})),
	)
}

// UpdateSessionRequest replaces the session content.
type UpdateSessionRequest struct {
	Content string `json:"content"`
}

func bareMarkdownName(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) || path.Base(s) != s || s == "." || s == ".." {
		return validation.NewError("validation_filename_bare", "filename must not contain path separators")
	}
	if !strings.HasSuffix(s, ".md") {
		return validation.NewError("validation_filename_md", "filename must end in .md")
	}
	return nil
}
