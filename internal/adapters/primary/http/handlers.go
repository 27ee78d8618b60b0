package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// MessageResponse acknowledges an operation without a payload
type MessageResponse struct {
	Message string `json:"message"`
}

// ContentRequest carries raw markdown for deck and session updates
type ContentRequest struct {
	Content string `json:"content"`
}

// handleRoot identifies the API
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, MessageResponse{Message: "Training System API"})
}

// handleHealth reports process health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		s.writeJSON(w, map[string]interface{}{"healthy": true})
		return
	}
	s.writeJSON(w, s.health.Status())
}

// Courses

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.services.Courses.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if courses == nil {
		courses = []entities.Course{}
	}
	s.writeJSON(w, courses)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.services.Courses.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, course)
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateCourseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.services.Courses.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, course)
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateCourseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.services.Courses.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, course)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.services.Courses.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, MessageResponse{Message: fmt.Sprintf("Course %s deleted successfully", id)})
}

func (s *Server) handleImportCourse(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.services.Courses.Import(r.Context(), filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, course)
}

func (s *Server) handleExportCourse(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Buffered so a failure halfway through still produces a JSON error
	var buf bytes.Buffer
	if err := s.services.Courses.Export(r.Context(), id, &buf); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeZip(w, id+".zip", buf.Bytes())
}

func (s *Server) handleCourseTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.services.Courses.Template(r.Context(), &buf); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeZip(w, "course-template.zip", buf.Bytes())
}

// Slide decks

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deck, err := s.services.Courses.Deck(r.Context(), vars["id"], vars["filename"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, deck)
}

func (s *Server) handleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	deck, err := s.services.Courses.UpdateDeck(r.Context(), mux.Vars(r)["id"], req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, deck)
}

func (s *Server) handleUploadSlides(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.services.Courses.UploadSlideFile(r.Context(), mux.Vars(r)["id"], filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"message":    "Slide file uploaded successfully",
		"slide_file": result,
	})
}

func (s *Server) handleListSlideFiles(w http.ResponseWriter, r *http.Request) {
	course := mux.Vars(r)["course"]
	files, err := s.services.Courses.ListSlideFiles(r.Context(), course)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if files == nil {
		files = []entities.SlideFile{}
	}
	s.writeJSON(w, map[string]interface{}{
		"course_name": course,
		"slides":      files,
	})
}

func (s *Server) handleGetSlideFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	file, err := s.services.Courses.SlideFile(r.Context(), vars["course"], vars["filename"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, file)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrAlreadyExists), errors.Is(err, entities.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrInvalidPath):
		return http.StatusForbidden
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes an ErrorResponse. Server
// errors are logged and replaced with a generic message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("HTTP error (status %d): %v", status, err)
		message = "Internal server error"
	} else {
		s.logger.Debug("HTTP error (status %d): %v", status, err)
	}
	s.writeStatus(w, status, message)
}

// writeStatus writes an ErrorResponse with the given status and message
func (s *Server) writeStatus(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		s.logger.Error("Failed to encode error response: %v", encodeErr)
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) writeZip(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to write %s: %v", filename, err)
	}
}

// decodeJSON reads a size-limited JSON body into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, s.config.GetMaxUploadBytes())
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: decoding request body: %v", entities.ErrInvalidInput, err)
	}
	return nil
}

// readUpload returns the name and contents of the multipart "file" field
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := s.config.GetMaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: parsing multipart form: %v", entities.ErrInvalidInput, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: missing file field: %v", entities.ErrInvalidInput, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("reading upload %s: %w", header.Filename, err)
	}
	return header.Filename, data, nil
}
