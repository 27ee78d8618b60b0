package ports

import (
	"context"
	"io"
	"time"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

// SlideParser turns slide markdown into a deck
type SlideParser interface {
	// Parse splits body into slides, giving global metadata to the first
	// content-only slide at the start of the document
	Parse(body string, global map[string]any) []entities.Slide
}

// CourseService manages course directories and their slide files
type CourseService interface {
	List(ctx context.Context) ([]entities.Course, error)
	Get(ctx context.Context, id string) (*entities.Course, error)
	Create(ctx context.Context, req entities.CreateCourseRequest) (*entities.Course, error)
	Update(ctx context.Context, id string, req entities.UpdateCourseRequest) (*entities.Course, error)
	Delete(ctx context.Context, id string) error

	Deck(ctx context.Context, id, filename string) (*entities.Deck, error)
	UpdateDeck(ctx context.Context, id, content string) (*entities.Deck, error)
	ListSlideFiles(ctx context.Context, id string) ([]entities.SlideFile, error)
	SlideFile(ctx context.Context, id, filename string) (*entities.SlideFile, error)
	UploadSlideFile(ctx context.Context, id, filename string, data []byte) (*entities.UploadResult, error)

	Import(ctx context.Context, filename string, data []byte) (*entities.Course, error)
	Export(ctx context.Context, id string, w io.Writer) error
	Template(ctx context.Context, w io.Writer) error
}

// LabService manages lab-<N>.md files
type LabService interface {
	ListForCourse(ctx context.Context, course string) ([]entities.Lab, error)
	Get(ctx context.Context, course string, chapter int) (*entities.Lab, error)
	ListAll(ctx context.Context) (map[string][]entities.LabSummary, error)
	Upload(ctx context.Context, course, filename string, data []byte) (*entities.UploadResult, error)
	Delete(ctx context.Context, course string, chapter int) error
}

// BlogService manages blog posts
type BlogService interface {
	List(ctx context.Context) ([]entities.BlogConfig, error)
	Get(ctx context.Context, slug string) (*entities.BlogPost, error)
	Create(ctx context.Context, req entities.BlogRequest) (*entities.BlogPost, error)
	Update(ctx context.Context, slug string, req entities.BlogRequest) (*entities.BlogPost, error)
	Delete(ctx context.Context, slug string) error
	Asset(ctx context.Context, slug, filename string) (io.ReadSeekCloser, Entry, error)
}

// AssetService manages course assets
type AssetService interface {
	List(ctx context.Context, course string) ([]entities.Asset, error)
	Upload(ctx context.Context, course, filename string, data []byte) (*entities.Asset, error)
	Delete(ctx context.Context, course, path string) error
	Open(ctx context.Context, course, path string) (io.ReadSeekCloser, Entry, error)
}

// EditSessionService manages temporary working copies of one kind of file
type EditSessionService interface {
	Create(ctx context.Context, req entities.CreateSessionRequest) (*entities.EditSession, error)
	Get(ctx context.Context, id string) (*entities.EditSession, error)
	Update(ctx context.Context, id, content string) (*entities.EditSession, error)
	Delete(ctx context.Context, id string) error
	Commit(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
