package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/coursekit/internal/adapters/secondary/filestore"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/markdown"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/services"
	"github.com/fredcamaral/coursekit/internal/test/builders"
)

func testServerConfig() *entities.ServerConfig {
	return &entities.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5,
		WriteTimeout:    5,
		ShutdownTimeout: 1,
		Environment:     "development",
		CORSOrigins:     []string{"http://localhost:5173"},
		MaxUploadMB:     1,
		RateLimit:       1000,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	return newTestServerAt(t, t.TempDir())
}

func newTestServerAt(t *testing.T, root string) (*Server, *httptest.Server) {
	t.Helper()

	store, err := filestore.New(root)
	require.NoError(t, err)

	deps := services.Dependencies{
		Store:    store,
		Renderer: markdown.NewGoldmarkRenderer(markdown.Options{}),
		Splitter: markdown.NewFrontMatterSplitter(),
	}

	server := NewServer(Services{
		Courses:       services.NewCourseService(deps),
		Labs:          services.NewLabService(deps),
		Blogs:         services.NewBlogService(deps),
		Assets:        services.NewAssetService(deps),
		SlideSessions: services.NewEditSessionService(deps, entities.SessionSlides, time.Hour),
		LabSessions:   services.NewEditSessionService(deps, entities.SessionLabs, time.Hour),
	}, testServerConfig(), nil)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, ts
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func upload(t *testing.T, url, filename, content string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func createCourse(t *testing.T, baseURL, title string) entities.Course {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/api/courses", map[string]string{
		"title":       title,
		"description": "A test course",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[entities.Course](t, resp)
}

func TestServer_Root(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "Training System API", decode[MessageResponse](t, resp).Message)
}

func TestServer_CourseLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	course := createCourse(t, ts.URL, "Go Basics")
	assert.Equal(t, "go-basics", course.ID)
	assert.Equal(t, entities.DefaultCourseLevel, course.Level)

	t.Run("duplicate", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/courses", map[string]string{
			"title": "Go Basics", "description": "again",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/courses", nil)
		courses := decode[[]entities.Course](t, resp)
		require.Len(t, courses, 1)
		assert.Equal(t, "go-basics", courses[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, ts.URL+"/api/courses/go-basics", map[string]interface{}{
			"title": "Go Fundamentals",
			"tags":  []string{"go"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := decode[entities.Course](t, resp)
		assert.Equal(t, "Go Fundamentals", updated.Title)
		assert.Equal(t, []string{"go"}, updated.Tags)
	})

	t.Run("update deck", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, ts.URL+"/api/courses/go-basics/slides", ContentRequest{
			Content: "title: Intro\n---\n# One\n---\n# Two",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		deck := decode[entities.Deck](t, resp)
		assert.Len(t, deck.Slides, 2)

		resp = doJSON(t, http.MethodGet, ts.URL+"/api/courses/go-basics", nil)
		assert.Equal(t, 2, decode[entities.Course](t, resp).SlidesCount)
	})

	t.Run("delete", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, ts.URL+"/api/courses/go-basics", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Course go-basics deleted successfully", decode[MessageResponse](t, resp).Message)

		resp = doJSON(t, http.MethodGet, ts.URL+"/api/courses/go-basics", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		errResp := decode[ErrorResponse](t, resp)
		assert.Equal(t, "Not Found", errResp.Error)
		assert.Contains(t, errResp.Message, "go-basics")
	})
}

func TestServer_CreateCourseValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/courses", map[string]string{"title": "No description"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/courses", strings.NewReader("{not json"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = raw.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestServer_Assets(t *testing.T) {
	_, ts := newTestServer(t)
	createCourse(t, ts.URL, "Asset Course")

	resp := upload(t, ts.URL+"/api/courses/asset-course/assets/upload", "diagram one.png", "PNGDATA")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Message string         `json:"message"`
		Asset   entities.Asset `json:"asset"`
	}](t, resp)
	assert.Equal(t, "File uploaded successfully", body.Message)
	assert.Equal(t, "diagram_one.png", body.Asset.Name)

	served, err := http.Get(ts.URL + "/assets/asset-course/diagram_one.png")
	require.NoError(t, err)
	defer func() { _ = served.Body.Close() }()
	data, err := io.ReadAll(served.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, served.StatusCode)
	assert.Equal(t, "PNGDATA", string(data))

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/courses/asset-course/assets/diagram_one.png", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/courses/asset-course/assets/diagram_one.png", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_UploadRequiresFileField(t *testing.T) {
	_, ts := newTestServer(t)
	createCourse(t, ts.URL, "Upload Course")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/courses/upload-course/slides/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UploadTooLarge(t *testing.T) {
	server, ts := newTestServer(t)
	createCourse(t, ts.URL, "Big Course")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "big.bin")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/courses/big-course/assets/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServer_SlideUploadAndFiles(t *testing.T) {
	_, ts := newTestServer(t)
	createCourse(t, ts.URL, "Slides Course")

	resp := upload(t, ts.URL+"/api/courses/slides-course/slides/upload", "chapter-1.md", "---\ntitle: Chapter One\n---\n# Hello")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]json.RawMessage](t, resp)
	assert.Contains(t, body, "slide_file")

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/slides/courses/slides-course", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		CourseName string               `json:"course_name"`
		Slides     []entities.SlideFile `json:"slides"`
	}](t, resp)
	assert.Equal(t, "slides-course", list.CourseName)
	assert.NotEmpty(t, list.Slides)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/courses/slides-course/slides/chapter-1.md", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deck := decode[entities.Deck](t, resp)
	assert.Equal(t, "Chapter One", deck.Metadata["title"])
}

func TestServer_EditSessionCommit(t *testing.T) {
	_, ts := newTestServer(t)
	createCourse(t, ts.URL, "Session Course")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/slides/temp", entities.CreateSessionRequest{
		OriginalFilename: "extra.md",
		Content:          "# Draft",
		CourseID:         "session-course",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decode[entities.EditSession](t, resp)
	require.NotEmpty(t, session.ID)

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/slides/temp/"+session.ID, entities.UpdateSessionRequest{Content: "# Final"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Final", decode[entities.EditSession](t, resp).Content)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/slides/temp/"+session.ID+"/commit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Changes committed successfully", decode[MessageResponse](t, resp).Message)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/slides/courses/session-course/file/extra.md", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Final", decode[entities.SlideFile](t, resp).Content)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/slides/temp/"+session.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_LabSessionRejectsPaths(t *testing.T) {
	_, ts := newTestServer(t)
	createCourse(t, ts.URL, "Lab Course")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/labs/temp", entities.CreateSessionRequest{
		OriginalFilename: "../lab-1.md",
		Content:          "# Lab",
		CourseID:         "lab-course",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Labs(t *testing.T) {
	_, ts := newTestServer(t)
	createCourse(t, ts.URL, "Lab Course")

	resp := upload(t, ts.URL+"/api/courses/lab-course/labs/upload", "lab-2.md", "# Lab Two")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/labs/courses/lab-course/chapter/2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/labs/courses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[map[string][]entities.LabSummary](t, resp)
	assert.Len(t, all["lab-course"], 1)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/labs/courses/lab-course/chapter/2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/labs/courses/lab-course/chapter/2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Blogs(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/blogs", entities.BlogRequest{
		Title:       "Hello World",
		Content:     "# Hello\n\nFirst post.",
		PublishDate: "2024-03-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	post := decode[entities.BlogPost](t, resp)
	assert.Equal(t, "hello-world", post.Config.Slug)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/blogs", nil)
	list := decode[struct {
		Blogs []entities.BlogConfig `json:"blogs"`
	}](t, resp)
	require.Len(t, list.Blogs, 1)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/blogs/hello-world", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/blogs/hello-world", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ExportAndTemplate(t *testing.T) {
	_, ts := newTestServer(t)
	createCourse(t, ts.URL, "Export Course")

	for _, tc := range []struct {
		url, filename string
	}{
		{"/api/courses/export-course/export", "export-course.zip"},
		{"/api/courses/template/download", "course-template.zip"},
	} {
		resp, err := http.Get(ts.URL + tc.url)
		require.NoError(t, err)
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), tc.filename)

		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		assert.NotEmpty(t, zr.File)
	}
}

func TestServer_Metrics(t *testing.T) {
	server, _ := newTestServer(t)
	recorder := monitoring.NewRecorder(prometheus.NewRegistry())
	server.SetMetrics(recorder, "/metrics", recorder.Handler())
	server.SetHealth(monitoring.NewHealth(nil))

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	doJSON(t, http.MethodGet, ts.URL+"/api/courses", nil)
	doJSON(t, http.MethodGet, ts.URL+"/api/courses/missing", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `coursekit_http_requests_total{method="GET",route="/api/courses",status="200"} 1`)
	assert.Contains(t, text, `coursekit_http_requests_total{method="GET",route="/api/courses/{id}",status="404"} 1`)

	health := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, true, decode[map[string]interface{}](t, health)["healthy"])
}

func TestServer_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/courses", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_StartStop(t *testing.T) {
	server, _ := newTestServer(t)

	assert.Error(t, server.NotifyClients(wsEvent("x")))
	assert.Error(t, server.Stop(context.Background()))

	require.NoError(t, server.Start(context.Background(), 0, "127.0.0.1"))
	assert.True(t, server.IsRunning())
	assert.Error(t, server.Start(context.Background(), 0, "127.0.0.1"))
	assert.NoError(t, server.NotifyClients(wsEvent("x")))

	require.NoError(t, server.Stop(context.Background()))
	assert.False(t, server.IsRunning())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("course x: %w", entities.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: course", entities.ErrAlreadyExists), http.StatusBadRequest},
		{fmt.Errorf("%w: title", entities.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: ..", entities.ErrInvalidPath), http.StatusForbidden},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.writeError(rec, fmt.Errorf("reading /srv/secret/path: %w", io.ErrUnexpectedEOF))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Internal server error", resp.Message)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestServer_ExistingContentTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, builders.NewCourseBuilder("rust").
		WithTitle("Rust").
		WithLab(1, "---\ntitle: Ownership\n---\n# Lab").
		WithLab(3, "# Lab Three").
		WriteTo(root))
	require.NoError(t, builders.NewBlogBuilder("launch").
		WithAsset("cover.png", []byte("COVER")).
		WriteTo(root))
	require.NoError(t, builders.NewBlogBuilder("secret").WithDraft().WriteTo(root))

	_, ts := newTestServerAt(t, root)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/labs/courses/rust", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	labs := decode[struct {
		CourseName string         `json:"course_name"`
		Labs       []entities.Lab `json:"labs"`
	}](t, resp)
	assert.Equal(t, "rust", labs.CourseName)
	assert.Len(t, labs.Labs, 2)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/blogs", nil)
	list := decode[struct {
		Blogs []entities.BlogConfig `json:"blogs"`
	}](t, resp)
	require.Len(t, list.Blogs, 1)
	assert.Equal(t, "launch", list.Blogs[0].Slug)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/blogs/secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	asset, err := http.Get(ts.URL + "/api/blogs/launch/assets/cover.png")
	require.NoError(t, err)
	defer func() { _ = asset.Body.Close() }()
	data, err := io.ReadAll(asset.Body)
	require.NoError(t, err)
	assert.Equal(t, "COVER", string(data))
	assert.Equal(t, "image/png", asset.Header.Get("Content-Type"))
}
