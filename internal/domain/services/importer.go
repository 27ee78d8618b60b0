package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// MaxImportBytes bounds the total uncompressed size of an imported archive
const MaxImportBytes = 256 << 20

// Import creates a course from a .zip archive or a single .md deck
func (s *CourseService) Import(ctx context.Context, filename string, data []byte) (*entities.Course, error) {
	switch {
	case strings.HasSuffix(filename, ".zip"):
		return s.importZip(ctx, data)
	case strings.HasSuffix(filename, ".md"):
		return s.importMarkdown(ctx, filename, data)
	default:
		return nil, invalidInput(errors.New("file must be a ZIP archive (.zip) or markdown (.md) file"))
	}
}

func (s *CourseService) importMarkdown(ctx context.Context, filename string, data []byte) (*entities.Course, error) {
	if !utf8.Valid(data) {
		return nil, invalidInput(errors.New("file must be UTF-8 encoded"))
	}
	return s.Create(ctx, entities.CreateCourseRequest{
		Title:         titleFromName(strings.TrimSuffix(path.Base(filename), ".md")),
		Description:   "Imported from " + filename,
		Level:         entities.DefaultCourseLevel,
		Author:        entities.DefaultCourseAuthor,
		SlidesContent: string(data),
	})
}

// importZip locates the course root (a top-level directory holding
// config.json, or the archive root) and copies it to courses/<id>.
func (s *CourseService) importZip(ctx context.Context, data []byte) (*entities.Course, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: archive contains unsafe entry names", entities.ErrInvalidPath)
	}
	if err != nil {
		return nil, invalidInput(fmt.Errorf("invalid ZIP file: %v", err))
	}

	prefix, ok := courseRoot(zr.File)
	if !ok {
		return nil, invalidInput(errors.New("ZIP file must contain a course directory with config.json"))
	}

	raw, err := readZipFile(zr, prefix+courseConfig)
	if err != nil {
		return nil, fmt.Errorf("reading archive config: %w", err)
	}
	var cfg entities.CourseConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, invalidInput(fmt.Errorf("invalid config.json: %v", err))
	}
	// The written config keeps every key of the archive's, not just the
	// ones CourseConfig knows about.
	doc, err := decodeObject(raw)
	if err != nil {
		return nil, invalidInput(fmt.Errorf("invalid config.json: %v", err))
	}

	id := cfg.ID
	if id == "" {
		title := cfg.Title
		if title == "" {
			title = "imported-course"
		}
		id = GenerateCourseID(title)
	}
	if err := checkSegment("course id", id); err != nil {
		return nil, err
	}
	if s.deps.Store.Exists(coursePath(id)) {
		return nil, fmt.Errorf("%w: course with id %s", entities.ErrAlreadyExists, id)
	}

	if err := s.extract(ctx, zr, prefix, id); err != nil {
		_ = s.deps.Store.RemoveAll(coursePath(id))
		return nil, err
	}

	doc["id"] = id
	if _, ok := doc["tags"]; !ok {
		doc["tags"] = []string{}
	}
	if err := s.deps.writeJSON(coursePath(id, courseConfig), doc); err != nil {
		return nil, fmt.Errorf("writing course config: %w", err)
	}
	for _, dir := range []string{"slides", "labs", "assets"} {
		if err := s.deps.Store.MkdirAll(coursePath(id, dir)); err != nil {
			return nil, fmt.Errorf("creating course %s directory: %w", dir, err)
		}
	}

	s.deps.Logger.Success("imported course %s", id)
	return s.info(id)
}

// decodeObject decodes a JSON object keeping numbers as written
func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("config must be a JSON object")
	}
	return doc, nil
}

// extract copies every archive entry below prefix into courses/<id>,
// rejecting entries that escape it and archives over MaxImportBytes
func (s *CourseService) extract(ctx context.Context, zr *zip.Reader, prefix, id string) error {
	var total int64
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		rel, err := checkRelative(strings.TrimPrefix(f.Name, prefix))
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", f.Name, err)
		}
		if rel == courseConfig {
			continue
		}

		total += int64(f.UncompressedSize64)
		if total > MaxImportBytes {
			return invalidInput(fmt.Errorf("archive exceeds %d bytes", MaxImportBytes))
		}

		content, err := readZipEntry(f)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
		if err := s.deps.Store.Write(coursePath(id, rel), content); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

// courseRoot returns the prefix of the directory holding config.json
func courseRoot(files []*zip.File) (string, bool) {
	root := false
	for _, f := range files {
		dir, name := path.Split(f.Name)
		if name != courseConfig {
			continue
		}
		if dir == "" {
			root = true
			continue
		}
		if strings.Count(dir, "/") == 1 {
			return dir, true
		}
	}
	return "", root
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return readZipEntry(f)
		}
	}
	return nil, notFound(name)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, MaxImportBytes+1))
}

// Export writes the course directory to w as a zip archive rooted at <id>/
func (s *CourseService) Export(ctx context.Context, id string, w io.Writer) error {
	if err := s.requireCourse(id); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	err := s.deps.Store.Walk(coursePath(id), func(e ports.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := s.deps.Store.Read(e.Path)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(e.Path, coursePath(id)+"/")
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Join(id, rel),
			Method:   zip.Deflate,
			Modified: e.ModTime,
		})
		if err != nil {
			return err
		}
		_, err = fw.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("exporting course %s: %w", id, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("exporting course %s: %w", id, err)
	}
	return nil
}

// templateFiles is the example course served by Template
var templateFiles = []struct {
	name    string
	content string
}{
	{"course-template/config.json", `{
  "id": "course-template",
  "title": "Course Template",
  "description": "An example course showing the expected layout",
  "level": "Beginner",
  "author": "Training Team",
  "tags": ["template"]
}
`},
	{"course-template/slides/slides.md", `---
theme: default
---
# Course Template

Replace this deck with your own slides.

---
layout: two-column
---
# Slide Metadata

A block of YAML keys above a slide applies to that slide only.

---

# Code

` + "```go\nfmt.Println(\"hello\")\n```\n"},
	{"course-template/labs/lab-1.md", `---
chapter: 1
title: First Lab
---
# First Lab

1. Read the instructions
2. Complete the exercise
`},
	{"course-template/assets/README.md", "Place images, videos and documents for the course here.\n"},
}

// Template writes a zip archive of an example course to w
func (s *CourseService) Template(ctx context.Context, w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range templateFiles {
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("writing template: %w", err)
		}
		if _, err := io.WriteString(fw, f.content); err != nil {
			return fmt.Errorf("writing template: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	return nil
}
