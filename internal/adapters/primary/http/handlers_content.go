package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Labs

func (s *Server) handleListAllLabs(w http.ResponseWriter, r *http.Request) {
	labs, err := s.services.Labs.ListAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if labs == nil {
		labs = map[string][]entities.LabSummary{}
	}
	s.writeJSON(w, labs)
}

func (s *Server) handleListLabs(w http.ResponseWriter, r *http.Request) {
	course := mux.Vars(r)["course"]
	labs, err := s.services.Labs.ListForCourse(r.Context(), course)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if labs == nil {
		labs = []entities.Lab{}
	}
	s.writeJSON(w, map[string]interface{}{
		"course_name": course,
		"labs":        labs,
	})
}

func (s *Server) handleGetLab(w http.ResponseWriter, r *http.Request) {
	course, chapter, err := labVars(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	lab, err := s.services.Labs.Get(r.Context(), course, chapter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, lab)
}

func (s *Server) handleDeleteLab(w http.ResponseWriter, r *http.Request) {
	course, chapter, err := labVars(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.services.Labs.Delete(r.Context(), course, chapter); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, MessageResponse{Message: fmt.Sprintf("Lab for chapter %d deleted successfully", chapter)})
}

func (s *Server) handleUploadLab(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.services.Labs.Upload(r.Context(), mux.Vars(r)["id"], filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"message": "Lab file uploaded successfully",
		"lab":     result,
	})
}

func labVars(r *http.Request) (string, int, error) {
	vars := mux.Vars(r)
	chapter, err := strconv.Atoi(vars["chapter"])
	if err != nil || chapter < 1 {
		return "", 0, fmt.Errorf("%w: chapter %q", entities.ErrInvalidInput, vars["chapter"])
	}
	return vars["course"], chapter, nil
}

// Assets

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	course := mux.Vars(r)["id"]
	assets, err := s.services.Assets.List(r.Context(), course)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if assets == nil {
		assets = []entities.Asset{}
	}
	s.writeJSON(w, map[string]interface{}{
		"course_name": course,
		"assets":      assets,
	})
}

func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	asset, err := s.services.Assets.Upload(r.Context(), mux.Vars(r)["id"], filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"message": "File uploaded successfully",
		"asset":   asset,
	})
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.services.Assets.Delete(r.Context(), vars["id"], vars["path"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, MessageResponse{Message: "Asset deleted successfully"})
}

func (s *Server) handleServeAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	file, entry, err := s.services.Assets.Open(r.Context(), vars["course"], vars["path"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.serveContent(w, r, file, entry)
}

// Blogs

func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := s.services.Blogs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if blogs == nil {
		blogs = []entities.BlogConfig{}
	}
	s.writeJSON(w, map[string]interface{}{"blogs": blogs})
}

func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	post, err := s.services.Blogs.Get(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, post)
}

func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	var req entities.BlogRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	post, err := s.services.Blogs.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, post)
}

func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	var req entities.BlogRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	post, err := s.services.Blogs.Update(r.Context(), mux.Vars(r)["slug"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, post)
}

func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if err := s.services.Blogs.Delete(r.Context(), slug); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, MessageResponse{Message: fmt.Sprintf("Blog %s deleted successfully", slug)})
}

func (s *Server) handleBlogAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	file, entry, err := s.services.Blogs.Asset(r.Context(), vars["slug"], vars["filename"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.serveContent(w, r, file, entry)
}

// serveContent streams a stored file with range and conditional request
// support, closing it afterwards
func (s *Server) serveContent(w http.ResponseWriter, r *http.Request, file io.ReadSeekCloser, entry ports.Entry) {
	defer func() { _ = file.Close() }()
	http.ServeContent(w, r, entry.Name, entry.ModTime, file)
}

// Edit sessions

func (s *Server) registerSessionRoutes(router *mux.Router, prefix string, sessions ports.EditSessionService) {
	router.HandleFunc(prefix, s.handleCreateSession(sessions)).Methods(http.MethodPost)
	router.HandleFunc(prefix+"/{sid}", s.handleGetSession(sessions)).Methods(http.MethodGet)
	router.HandleFunc(prefix+"/{sid}", s.handleUpdateSession(sessions)).Methods(http.MethodPut)
	router.HandleFunc(prefix+"/{sid}", s.handleDeleteSession(sessions)).Methods(http.MethodDelete)
	router.HandleFunc(prefix+"/{sid}/commit", s.handleCommitSession(sessions)).Methods(http.MethodPost)
}

func (s *Server) handleCreateSession(sessions ports.EditSessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entities.CreateSessionRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		session, err := sessions.Create(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, session)
	}
}

func (s *Server) handleGetSession(sessions ports.EditSessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessions.Get(r.Context(), mux.Vars(r)["sid"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, session)
	}
}

func (s *Server) handleUpdateSession(sessions ports.EditSessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entities.UpdateSessionRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		session, err := sessions.Update(r.Context(), mux.Vars(r)["sid"], req.Content)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, session)
	}
}

func (s *Server) handleDeleteSession(sessions ports.EditSessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Delete(r.Context(), mux.Vars(r)["sid"]); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, MessageResponse{Message: "Temporary file deleted successfully"})
	}
}

func (s *Server) handleCommitSession(sessions ports.EditSessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Commit(r.Context(), mux.Vars(r)["sid"]); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, MessageResponse{Message: "Changes committed successfully"})
	}
}
