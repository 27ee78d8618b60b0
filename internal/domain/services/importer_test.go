package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := map[string]string{}
	for _, f := range zr.File {
		content, err := readZipEntry(f)
		require.NoError(t, err)
		out[f.Name] = string(content)
	}
	return out
}

func TestCourseService_ImportZip(t *testing.T) {
	ctx := context.Background()

	t.Run("course directory", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewCourseService(env.deps)
		data := buildZip(t, map[string]string{
			"rust/config.json":       `{"id":"rust-101","title":"Rust 101","description":"Ownership"}`,
			"rust/slides/slides.md":  "# One\n---\n# Two",
			"rust/assets/img/a.png":  "png",
			"rust/labs/lab-1.md":     "# Lab",
			"unrelated/readme.md":    "skip me",
		})

		course, err := svc.Import(ctx, "rust.zip", data)
		require.NoError(t, err)

		assert.Equal(t, "rust-101", course.ID)
		assert.Equal(t, "Rust 101", course.Title)
		assert.Equal(t, 2, course.SlidesCount)
		assert.Equal(t, "png", env.read(t, "courses/rust-101/assets/img/a.png"))
		assert.False(t, env.store.Exists("courses/rust-101/readme.md"))

		_, err = svc.Import(ctx, "rust.zip", data)
		assert.ErrorIs(t, err, entities.ErrAlreadyExists)
	})

	t.Run("keeps config keys it does not model", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewCourseService(env.deps)
		data := buildZip(t, map[string]string{
			"config.json":      `{"title":"Go Deep","duration_hours":12,"prerequisites":["go-basics"],"id":"old"}`,
			"slides/slides.md": "# One",
		})

		course, err := svc.Import(ctx, "go.zip", data)
		require.NoError(t, err)
		assert.Equal(t, "old", course.ID)

		var written map[string]any
		require.NoError(t, json.Unmarshal([]byte(env.read(t, "courses/old/config.json")), &written))
		assert.Equal(t, "old", written["id"])
		assert.Equal(t, "Go Deep", written["title"])
		assert.Equal(t, float64(12), written["duration_hours"])
		assert.Equal(t, []any{"go-basics"}, written["prerequisites"])
		assert.Equal(t, []any{}, written["tags"])
	})

	t.Run("generated id replaces a missing one", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewCourseService(env.deps)
		data := buildZip(t, map[string]string{
			"config.json": `{"title":"Kubernetes Ops","tags":["k8s"],"level":"advanced"}`,
		})

		course, err := svc.Import(ctx, "k8s.zip", data)
		require.NoError(t, err)

		var written map[string]any
		require.NoError(t, json.Unmarshal([]byte(env.read(t, "courses/"+course.ID+"/config.json")), &written))
		assert.Equal(t, course.ID, written["id"])
		assert.Equal(t, []any{"k8s"}, written["tags"])
		assert.Equal(t, "advanced", written["level"])
	})

	t.Run("files at the archive root", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewCourseService(env.deps)
		data := buildZip(t, map[string]string{
			"config.json":      `{"title":"Python Intro"}`,
			"slides/slides.md": "# Hi",
		})

		course, err := svc.Import(ctx, "python.zip", data)
		require.NoError(t, err)
		assert.Equal(t, GenerateCourseID("Python Intro"), course.ID)
		assert.Contains(t, env.read(t, coursePath(course.ID, courseConfig)), `"id": "`+course.ID+`"`)
		assert.True(t, env.store.Exists(coursePath(course.ID, "labs")))
	})

	t.Run("missing config", func(t *testing.T) {
		svc := NewCourseService(newTestEnv(t).deps)
		_, err := svc.Import(ctx, "x.zip", buildZip(t, map[string]string{"slides/slides.md": "# Hi"}))
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})

	t.Run("invalid config", func(t *testing.T) {
		svc := NewCourseService(newTestEnv(t).deps)
		_, err := svc.Import(ctx, "x.zip", buildZip(t, map[string]string{"config.json": "{nope"}))
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})

	t.Run("not a zip", func(t *testing.T) {
		svc := NewCourseService(newTestEnv(t).deps)
		_, err := svc.Import(ctx, "x.zip", []byte("plain text"))
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})

	t.Run("zip slip", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewCourseService(env.deps)
		data := buildZip(t, map[string]string{
			"config.json":       `{"id":"evil"}`,
			"../../outside.txt": "x",
		})

		_, err := svc.Import(ctx, "evil.zip", data)
		assert.ErrorIs(t, err, entities.ErrInvalidPath)
		assert.False(t, env.store.Exists("courses/evil"))
	})

	t.Run("id escaping the courses directory", func(t *testing.T) {
		svc := NewCourseService(newTestEnv(t).deps)
		_, err := svc.Import(ctx, "evil.zip", buildZip(t, map[string]string{"config.json": `{"id":"../x"}`}))
		assert.ErrorIs(t, err, entities.ErrInvalidPath)
	})
}

func TestCourseService_ImportMarkdown(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCourseService(env.deps)
	ctx := context.Background()

	course, err := svc.Import(ctx, "getting-started.md", []byte("# One\n---\n# Two"))
	require.NoError(t, err)
	assert.Equal(t, "Getting Started", course.Title)
	assert.Equal(t, "Imported from getting-started.md", course.Description)
	assert.Equal(t, 2, course.SlidesCount)

	_, err = svc.Import(ctx, "bad.md", []byte{0xff})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	_, err = svc.Import(ctx, "course.tar", []byte("x"))
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestCourseService_Export(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCourseService(env.deps)
	ctx := context.Background()
	env.write(t, "courses/go/config.json", `{"id":"go"}`)
	env.write(t, "courses/go/slides/slides.md", "# Hi")
	env.write(t, "courses/go/assets/a/b.png", "png")

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, "go", &buf))

	files := readZip(t, buf.Bytes())
	assert.Equal(t, map[string]string{
		"go/config.json":       `{"id":"go"}`,
		"go/slides/slides.md":  "# Hi",
		"go/assets/a/b.png":    "png",
	}, files)

	assert.ErrorIs(t, svc.Export(ctx, "missing", io.Discard), entities.ErrNotFound)
}

func TestCourseService_TemplateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCourseService(env.deps)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.Template(ctx, &buf))

	course, err := svc.Import(ctx, "course-template.zip", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "course-template", course.ID)
	assert.Equal(t, 3, course.SlidesCount)

	deck, err := svc.Deck(ctx, course.ID, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "default"}, deck.Slides[0].Metadata)
	assert.Equal(t, map[string]any{"layout": "two-column"}, deck.Slides[1].Metadata)
}
