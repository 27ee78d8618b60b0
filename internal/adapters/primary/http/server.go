package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Services groups the domain services exposed over HTTP
type Services struct {
	Courses       ports.CourseService
	Labs          ports.LabService
	Blogs         ports.BlogService
	Assets        ports.AssetService
	SlideSessions ports.EditSessionService
	LabSessions   ports.EditSessionService
}

// HealthReporter describes process health for /healthz
type HealthReporter interface {
	Status() map[string]interface{}
}

// Server implements the HTTPServer interface
type Server struct {
	services Services
	config   *entities.ServerConfig
	logger   ports.Logger
	metrics  ports.MetricsRecorder
	health   HealthReporter

	metricsPath    string
	metricsHandler http.Handler

	connMgr *ConnectionManager
	limiter *rateLimiter
	handler http.Handler

	server  *http.Server
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool
}

// NewServer creates a new HTTP server
// config must not be nil - use config.GetDefaultConfig().Server if needed
func NewServer(services Services, config *entities.ServerConfig, logger ports.Logger) *Server {
	if config == nil {
		panic("server config cannot be nil - provide a valid ServerConfig")
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}

	s := &Server{
		services: services,
		config:   config,
		logger:   logger,
		metrics:  ports.NopMetrics{},
		limiter:  newRateLimiter(config.GetRateLimit(), time.Minute),
	}
	s.connMgr = NewConnectionManager(s.onClientCount)
	return s
}

// SetMetrics records request metrics on recorder and serves handler on path
func (s *Server) SetMetrics(recorder ports.MetricsRecorder, path string, handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recorder != nil {
		s.metrics = recorder
	}
	s.metricsPath = path
	s.metricsHandler = handler
	s.handler = nil
}

// SetHealth sets the reporter behind /healthz
func (s *Server) SetHealth(health HealthReporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = health
	s.handler = nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler == nil {
		s.handler = s.buildHandler()
	}
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context, port int, host string) error {
	handler := s.Handler()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listening on %s:%d: %w", host, port, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.connMgr.Run(runCtx)
	go s.limiter.cleanupRoutine(runCtx)

	s.server = &http.Server{
		Handler:      handler,
		ReadTimeout:  s.config.GetReadTimeout(),
		WriteTimeout: s.config.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		s.logger.Info("HTTP server listening on %s", listener.Addr())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.New("server not running")
	}

	s.connMgr.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.GetShutdownTimeout())
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.cancel()
	s.running = false

	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// NotifyClients sends an update event to all connected clients
func (s *Server) NotifyClients(event ports.UpdateEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return errors.New("server not running")
	}

	s.connMgr.Broadcast(event)
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) onClientCount(n int) {
	if g, ok := s.metrics.(interface{ SetWebSocketClients(int) }); ok {
		g.SetWebSocketClients(n)
	}
}

// buildHandler configures routes and middleware. Callers hold s.mu.
func (s *Server) buildHandler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, fmt.Errorf("%w: %s", entities.ErrNotFound, r.URL.Path))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.Use(s.metricsMiddleware)

	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metricsHandler != nil {
		router.Handle(s.metricsPath, s.metricsHandler).Methods(http.MethodGet)
	}
	router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Courses
	api.HandleFunc("/courses", s.handleListCourses).Methods(http.MethodGet)
	api.HandleFunc("/courses", s.handleCreateCourse).Methods(http.MethodPost)
	api.HandleFunc("/courses/import", s.handleImportCourse).Methods(http.MethodPost)
	api.HandleFunc("/courses/template/download", s.handleCourseTemplate).Methods(http.MethodGet)
	api.HandleFunc("/courses/{id}", s.handleGetCourse).Methods(http.MethodGet)
	api.HandleFunc("/courses/{id}", s.handleUpdateCourse).Methods(http.MethodPut)
	api.HandleFunc("/courses/{id}", s.handleDeleteCourse).Methods(http.MethodDelete)
	api.HandleFunc("/courses/{id}/export", s.handleExportCourse).Methods(http.MethodGet)

	// Slide decks
	api.HandleFunc("/courses/{id}/slides", s.handleGetDeck).Methods(http.MethodGet)
	api.HandleFunc("/courses/{id}/slides", s.handleUpdateDeck).Methods(http.MethodPut)
	api.HandleFunc("/courses/{id}/slides/upload", s.handleUploadSlides).Methods(http.MethodPost)
	api.HandleFunc("/courses/{id}/slides/{filename}", s.handleGetDeck).Methods(http.MethodGet)
	api.HandleFunc("/slides/courses/{course}", s.handleListSlideFiles).Methods(http.MethodGet)
	api.HandleFunc("/slides/courses/{course}/file/{filename}", s.handleGetSlideFile).Methods(http.MethodGet)

	// Labs
	api.HandleFunc("/courses/{id}/labs/upload", s.handleUploadLab).Methods(http.MethodPost)
	api.HandleFunc("/labs/courses", s.handleListAllLabs).Methods(http.MethodGet)
	api.HandleFunc("/labs/courses/{course}", s.handleListLabs).Methods(http.MethodGet)
	api.HandleFunc("/labs/courses/{course}/chapter/{chapter:[0-9]+}", s.handleGetLab).Methods(http.MethodGet)
	api.HandleFunc("/labs/courses/{course}/chapter/{chapter:[0-9]+}", s.handleDeleteLab).Methods(http.MethodDelete)

	// Assets
	api.HandleFunc("/courses/{id}/assets", s.handleListAssets).Methods(http.MethodGet)
	api.HandleFunc("/courses/{id}/assets/upload", s.handleUploadAsset).Methods(http.MethodPost)
	api.HandleFunc("/courses/{id}/assets/{path:.+}", s.handleDeleteAsset).Methods(http.MethodDelete)
	router.HandleFunc("/assets/{course}/{path:.+}", s.handleServeAsset).Methods(http.MethodGet, http.MethodHead)

	// Edit sessions
	s.registerSessionRoutes(api, "/slides/temp", s.services.SlideSessions)
	s.registerSessionRoutes(api, "/labs/temp", s.services.LabSessions)

	// Blogs
	api.HandleFunc("/blogs", s.handleListBlogs).Methods(http.MethodGet)
	api.HandleFunc("/blogs", s.handleCreateBlog).Methods(http.MethodPost)
	api.HandleFunc("/blogs/{slug}", s.handleGetBlog).Methods(http.MethodGet)
	api.HandleFunc("/blogs/{slug}", s.handleUpdateBlog).Methods(http.MethodPut)
	api.HandleFunc("/blogs/{slug}", s.handleDeleteBlog).Methods(http.MethodDelete)
	api.HandleFunc("/blogs/{slug}/assets/{filename}", s.handleBlogAsset).Methods(http.MethodGet, http.MethodHead)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.GetCORSOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	})

	// Applied outermost first: recovery -> logging -> rate limiting -> security -> cors
	var handler http.Handler = c.Handler(router)
	handler = securityHeadersMiddleware(handler)
	handler = s.rateLimitMiddleware(handler)
	handler = createLoggingMiddleware(handler, s.logger)
	handler = s.recoveryMiddleware(handler)

	return handler
}

// Ensure Server implements ports.HTTPServer
var _ ports.HTTPServer = (*Server)(nil)
