package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/goliatone/go-slug"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

const defaultSlidesTemplate = `# %[1]s

Welcome to %[1]s!

## Overview
%[2]s

---

# Getting Started

This is your first slide. You can edit the markdown content to create your presentation.

## Key Features
- Create engaging presentations
- Use markdown syntax
- Support for code blocks
- Interactive slide navigation

---

# Thank You!

End of the presentation.

## Next Steps
- Add more slides
- Customize the content
- Share with your audience
`

// CourseService manages course directories, their config and slide files
type CourseService struct {
	deps Dependencies
}

// NewCourseService creates a new course service
func NewCourseService(deps Dependencies) *CourseService {
	return &CourseService{deps: deps.withDefaults()}
}

func coursePath(id string, elem ...string) string {
	return path.Join(append([]string{coursesDir, id}, elem...)...)
}

// requireCourse checks the id and that the course directory exists
func (s *CourseService) requireCourse(id string) error {
	return requireCourse(s.deps.Store, id)
}

func requireCourse(store ports.ContentStore, id string) error {
	if err := checkSegment("course id", id); err != nil {
		return err
	}
	if !store.Exists(coursePath(id)) {
		return notFound("course " + id)
	}
	return nil
}

// List returns every course sorted by id
func (s *CourseService) List(ctx context.Context) ([]entities.Course, error) {
	entries, err := s.deps.Store.List(coursesDir)
	if errors.Is(err, entities.ErrNotFound) {
		return []entities.Course{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	courses := make([]entities.Course, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}
		course, err := s.info(entry.Name)
		if err != nil {
			s.deps.Logger.Warn("skipping course %s: %v", entry.Name, err)
			continue
		}
		courses = append(courses, *course)
	}
	return courses, nil
}

// Get returns one course
func (s *CourseService) Get(ctx context.Context, id string) (*entities.Course, error) {
	if err := s.requireCourse(id); err != nil {
		return nil, err
	}
	return s.info(id)
}

// info overlays config.json on defaults derived from the id and counts
// the slides of slides.md
func (s *CourseService) info(id string) (*entities.Course, error) {
	course := &entities.Course{
		ID:          id,
		Title:       titleFromName(id),
		Description: "Training course: " + id,
	}

	var cfg entities.CourseConfig
	err := s.deps.readJSON(coursePath(id, courseConfig), &cfg)
	switch {
	case err == nil:
		course.Apply(cfg)
	case !errors.Is(err, entities.ErrNotFound):
		return nil, fmt.Errorf("reading course %s config: %w", id, err)
	}

	doc, _, err := s.deps.loadDocument(coursePath(id, "slides", defaultDeck))
	switch {
	case err == nil:
		course.SlidesCount = len(s.deps.Parser.Parse(doc.Body, doc.Metadata))
	case !errors.Is(err, entities.ErrNotFound):
		return nil, fmt.Errorf("reading course %s slides: %w", id, err)
	}

	return course, nil
}

// GenerateCourseID derives a URL-friendly id from a title, falling back to
// course-<8 hex> when the title yields fewer than three characters.
func GenerateCourseID(title string) string {
	id, err := slug.Normalize(title)
	if err != nil || len(id) < 3 {
		return "course-" + uuid.NewString()[:8]
	}
	return id
}

// Create writes a new course with config.json, slides.md and empty labs
// and assets directories
func (s *CourseService) Create(ctx context.Context, req entities.CreateCourseRequest) (*entities.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	id := GenerateCourseID(req.Title)
	if s.deps.Store.Exists(coursePath(id)) {
		return nil, fmt.Errorf("%w: course with id %s", entities.ErrAlreadyExists, id)
	}

	cfg := entities.CourseConfig{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Author:      req.Author,
		Tags:        append([]string{}, req.Tags...),
	}
	if cfg.Level == "" {
		cfg.Level = entities.DefaultCourseLevel
	}
	if cfg.Author == "" {
		cfg.Author = entities.DefaultCourseAuthor
	}

	if err := s.deps.writeJSON(coursePath(id, courseConfig), cfg); err != nil {
		return nil, fmt.Errorf("writing course config: %w", err)
	}

	slides := req.SlidesContent
	if slides == "" {
		slides = fmt.Sprintf(defaultSlidesTemplate, req.Title, req.Description)
	}
	if err := s.deps.Store.Write(coursePath(id, "slides", defaultDeck), []byte(slides)); err != nil {
		return nil, fmt.Errorf("writing course slides: %w", err)
	}

	for _, dir := range []string{"labs", "assets"} {
		if err := s.deps.Store.MkdirAll(coursePath(id, dir)); err != nil {
			return nil, fmt.Errorf("creating course %s directory: %w", dir, err)
		}
	}

	s.deps.Logger.Success("created course %s", id)
	return s.info(id)
}

// Update applies the non-nil fields of req to config.json
func (s *CourseService) Update(ctx context.Context, id string, req entities.UpdateCourseRequest) (*entities.Course, error) {
	if err := s.requireCourse(id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	cfg := entities.CourseConfig{ID: id}
	if err := s.deps.readJSON(coursePath(id, courseConfig), &cfg); err != nil && !errors.Is(err, entities.ErrNotFound) {
		return nil, fmt.Errorf("reading course %s config: %w", id, err)
	}
	req.ApplyTo(&cfg)
	if cfg.Tags == nil {
		cfg.Tags = []string{}
	}

	if err := s.deps.writeJSON(coursePath(id, courseConfig), cfg); err != nil {
		return nil, fmt.Errorf("writing course config: %w", err)
	}
	return s.info(id)
}

// Delete removes the course directory
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.requireCourse(id); err != nil {
		return err
	}
	if err := s.deps.Store.RemoveAll(coursePath(id)); err != nil {
		return fmt.Errorf("deleting course %s: %w", id, err)
	}
	s.deps.Logger.Info("deleted course %s", id)
	return nil
}

// Deck parses one slide file of a course; an empty filename means slides.md
func (s *CourseService) Deck(ctx context.Context, id, filename string) (*entities.Deck, error) {
	if filename == "" {
		filename = defaultDeck
	}
	if err := s.requireCourse(id); err != nil {
		return nil, err
	}
	if err := checkSegment("filename", filename); err != nil {
		return nil, err
	}

	doc, _, err := s.deps.loadDocument(coursePath(id, "slides", filename))
	if errors.Is(err, entities.ErrNotFound) {
		return nil, notFound("slide file " + filename)
	}
	if err != nil {
		return nil, fmt.Errorf("reading slide file %s: %w", filename, err)
	}

	return &entities.Deck{
		Metadata: doc.Metadata,
		Slides:   s.deps.Parser.Parse(doc.Body, doc.Metadata),
		HTML:     s.deps.render(ports.ProfileSlide, doc.Body),
	}, nil
}

// UpdateDeck replaces slides.md and returns the parsed result
func (s *CourseService) UpdateDeck(ctx context.Context, id, content string) (*entities.Deck, error) {
	if err := s.requireCourse(id); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Write(coursePath(id, "slides", defaultDeck), []byte(content)); err != nil {
		return nil, fmt.Errorf("writing slides: %w", err)
	}
	return s.Deck(ctx, id, defaultDeck)
}

// ListSlideFiles returns every markdown file under slides/ sorted by name
func (s *CourseService) ListSlideFiles(ctx context.Context, id string) ([]entities.SlideFile, error) {
	if err := s.requireCourse(id); err != nil {
		return nil, err
	}

	entries, err := s.deps.Store.List(coursePath(id, "slides"))
	if errors.Is(err, entities.ErrNotFound) {
		return []entities.SlideFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing slide files: %w", err)
	}

	files := make([]entities.SlideFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir || path.Ext(entry.Name) != ".md" {
			continue
		}
		doc, _, err := s.deps.loadDocument(entry.Path)
		if err != nil {
			s.deps.Logger.Warn("skipping slide file %s: %v", entry.Path, err)
			continue
		}
		files = append(files, s.slideFile(entry.Name, doc, doc.Body))
	}
	return files, nil
}

// SlideFile returns one slide file with its raw text as content
func (s *CourseService) SlideFile(ctx context.Context, id, filename string) (*entities.SlideFile, error) {
	if err := s.requireCourse(id); err != nil {
		return nil, err
	}
	if err := checkSegment("filename", filename); err != nil {
		return nil, err
	}

	doc, raw, err := s.deps.loadDocument(coursePath(id, "slides", filename))
	if errors.Is(err, entities.ErrNotFound) {
		return nil, notFound("slide file " + filename)
	}
	if err != nil {
		return nil, fmt.Errorf("reading slide file %s: %w", filename, err)
	}

	file := s.slideFile(filename, doc, raw)
	return &file, nil
}

func (s *CourseService) slideFile(filename string, doc entities.Document, content string) entities.SlideFile {
	title, ok := firstHeading(doc.Body)
	if !ok {
		title = titleFromName(stem(filename))
	}
	return entities.SlideFile{
		Filename: filename,
		Title:    title,
		Content:  content,
		HTML:     s.deps.render(ports.ProfileDocument, doc.Body),
		Metadata: doc.Metadata,
	}
}

// UploadSlideFile stores a markdown file under slides/ with a sanitised,
// de-duplicated name
func (s *CourseService) UploadSlideFile(ctx context.Context, id, filename string, data []byte) (*entities.UploadResult, error) {
	if err := s.requireCourse(id); err != nil {
		return nil, err
	}

	doc, name, err := storeMarkdown(s.deps, coursePath(id, "slides"), filename, data)
	if err != nil {
		return nil, err
	}

	title, ok := entities.MetadataString(doc.Metadata, "title")
	if !ok {
		title = stem(name)
	}

	s.deps.Logger.Info("uploaded slide file %s to course %s", name, id)
	return &entities.UploadResult{
		Filename: name,
		Title:    title,
		Content:  doc.Body,
		HTML:     s.deps.render(ports.ProfileSlide, doc.Body),
		Metadata: doc.Metadata,
	}, nil
}

// storeMarkdown validates an uploaded markdown file and writes it to dir
func storeMarkdown(deps Dependencies, dir, filename string, data []byte) (entities.Document, string, error) {
	if !strings.HasSuffix(filename, ".md") {
		return entities.Document{}, "", invalidInput(errors.New("only markdown (.md) files are allowed"))
	}
	if !utf8.Valid(data) {
		return entities.Document{}, "", invalidInput(errors.New("file must be UTF-8 encoded"))
	}

	name, err := deps.Store.CreateUnique(dir, SanitizeFilename(filename), data)
	if err != nil {
		return entities.Document{}, "", fmt.Errorf("storing %s: %w", filename, err)
	}
	return deps.splitDocument(name, data), name, nil
}

var _ ports.CourseService = (*CourseService)(nil)
