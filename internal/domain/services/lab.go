package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

var labFile = regexp.MustCompile(`^lab-(\d+)\.md$`)

// LabService reads and writes lab-<N>.md files under courses/<id>/labs
type LabService struct {
	deps Dependencies
}

// NewLabService creates a new lab service
func NewLabService(deps Dependencies) *LabService {
	return &LabService{deps: deps.withDefaults()}
}

func labName(chapter int) string {
	return fmt.Sprintf("lab-%d.md", chapter)
}

// labChapter extracts N from lab-N.md
func labChapter(name string) (int, bool) {
	m := labFile.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// labFiles returns the lab files of a course sorted by chapter
func (s *LabService) labFiles(course string) ([]ports.Entry, []int, error) {
	entries, err := s.deps.Store.List(coursePath(course, "labs"))
	if errors.Is(err, entities.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("listing labs of %s: %w", course, err)
	}

	type labEntry struct {
		entry   ports.Entry
		chapter int
	}
	var labs []labEntry
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		if chapter, ok := labChapter(entry.Name); ok {
			labs = append(labs, labEntry{entry, chapter})
		}
	}
	sort.SliceStable(labs, func(i, j int) bool { return labs[i].chapter < labs[j].chapter })

	files := make([]ports.Entry, len(labs))
	chapters := make([]int, len(labs))
	for i, l := range labs {
		files[i] = l.entry
		chapters[i] = l.chapter
	}
	return files, chapters, nil
}

func (s *LabService) lab(course string, chapter int, filename string, doc entities.Document) entities.Lab {
	title, ok := firstHeading(doc.Body)
	if !ok {
		title = fmt.Sprintf("Lab %d", chapter)
	}
	return entities.Lab{
		CourseName: course,
		Chapter:    chapter,
		Title:      title,
		Content:    doc.Body,
		HTML:       s.deps.render(ports.ProfileDocument, doc.Body),
		Metadata:   doc.Metadata,
		Filename:   filename,
	}
}

// ListForCourse returns every lab of a course sorted by chapter
func (s *LabService) ListForCourse(ctx context.Context, course string) ([]entities.Lab, error) {
	if err := requireCourse(s.deps.Store, course); err != nil {
		return nil, err
	}

	files, chapters, err := s.labFiles(course)
	if err != nil {
		return nil, err
	}

	labs := make([]entities.Lab, 0, len(files))
	for i, f := range files {
		doc, _, err := s.deps.loadDocument(f.Path)
		if err != nil {
			s.deps.Logger.Warn("skipping lab %s: %v", f.Path, err)
			continue
		}
		labs = append(labs, s.lab(course, chapters[i], f.Name, doc))
	}
	return labs, nil
}

// Get returns lab-<chapter>.md of a course
func (s *LabService) Get(ctx context.Context, course string, chapter int) (*entities.Lab, error) {
	if err := requireCourse(s.deps.Store, course); err != nil {
		return nil, err
	}

	doc, _, err := s.deps.loadDocument(coursePath(course, "labs", labName(chapter)))
	if errors.Is(err, entities.ErrNotFound) {
		return nil, notFound(fmt.Sprintf("lab %d of %s", chapter, course))
	}
	if err != nil {
		return nil, fmt.Errorf("reading lab %d of %s: %w", chapter, course, err)
	}

	lab := s.lab(course, chapter, "", doc)
	return &lab, nil
}

// ListAll groups lab summaries by course, leaving out courses without labs
func (s *LabService) ListAll(ctx context.Context) (map[string][]entities.LabSummary, error) {
	result := map[string][]entities.LabSummary{}

	courses, err := s.deps.Store.List(coursesDir)
	if errors.Is(err, entities.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	for _, c := range courses {
		if !c.IsDir {
			continue
		}
		files, chapters, err := s.labFiles(c.Name)
		if err != nil {
			s.deps.Logger.Warn("skipping labs of %s: %v", c.Name, err)
			continue
		}

		var summaries []entities.LabSummary
		for i, f := range files {
			doc, _, err := s.deps.loadDocument(f.Path)
			if err != nil {
				s.deps.Logger.Warn("skipping lab %s: %v", f.Path, err)
				continue
			}
			title, ok := firstHeading(doc.Body)
			if !ok {
				title = fmt.Sprintf("Lab %d", chapters[i])
			}
			summaries = append(summaries, entities.LabSummary{
				Chapter:  chapters[i],
				Title:    title,
				Filename: f.Name,
			})
		}
		if len(summaries) > 0 {
			result[c.Name] = summaries
		}
	}
	return result, nil
}

// Upload stores a markdown lab under labs/ with a sanitised, de-duplicated name
func (s *LabService) Upload(ctx context.Context, course, filename string, data []byte) (*entities.UploadResult, error) {
	if err := requireCourse(s.deps.Store, course); err != nil {
		return nil, err
	}

	doc, name, err := storeMarkdown(s.deps, coursePath(course, "labs"), filename, data)
	if err != nil {
		return nil, err
	}

	title, ok := entities.MetadataString(doc.Metadata, "title")
	if !ok {
		title = stem(name)
	}

	s.deps.Logger.Info("uploaded lab %s to course %s", name, course)
	return &entities.UploadResult{
		Filename:   name,
		Title:      title,
		Chapter:    metadataChapter(doc.Metadata),
		CourseName: course,
		Content:    doc.Body,
		HTML:       s.deps.render(ports.ProfileSlide, doc.Body),
		Metadata:   doc.Metadata,
	}, nil
}

// metadataChapter reads the chapter key as an int or numeric string,
// defaulting to 1
func metadataChapter(meta map[string]any) int {
	switch v := meta["chapter"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 1
}

// Delete removes lab-<chapter>.md of a course
func (s *LabService) Delete(ctx context.Context, course string, chapter int) error {
	if err := requireCourse(s.deps.Store, course); err != nil {
		return err
	}
	err := s.deps.Store.Remove(coursePath(course, "labs", labName(chapter)))
	if errors.Is(err, entities.ErrNotFound) {
		return notFound(fmt.Sprintf("lab %d of %s", chapter, course))
	}
	if err != nil {
		return fmt.Errorf("deleting lab %d of %s: %w", chapter, course, err)
	}
	s.deps.Logger.Info("deleted lab %d of course %s", chapter, course)
	return nil
}

var _ ports.LabService = (*LabService)(nil)
