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

	"github.com/fredcamaral/texdeck/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/renderer"
	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
	"github.com/fredcamaral/texdeck/internal/logging"
)

// Requests per client per minute
const requestsPerMinute = 100

// PageRenderer renders the HTML pages served next to the API
type PageRenderer interface {
	RenderIndex(data renderer.PageData) ([]byte, error)
	RenderPreview(data renderer.PreviewData) ([]byte, error)
}

// MetricsRecorder counts what the server handles
type MetricsRecorder interface {
	RecordRequest(status int)
	RecordConversion(format entities.Format, d time.Duration, err error)
	RecordConnection()
	RecordCleanup(n int)
	Snapshot() monitoring.Snapshot
}

// ServerDeps wires the server to the conversion core. Converter, Store and
// Config are required.
type ServerDeps struct {
	Converter ports.ConversionService
	Store     ports.ArtifactStore
	Preview   ports.PreviewRenderer
	Pages     PageRenderer
	Metrics   MetricsRecorder
	Config    *entities.Config
	Logger    *logging.Logger
}

// Server implements the HTTPServer interface
type Server struct {
	server    *http.Server
	handler   http.Handler
	connMgr   *ConnectionManager
	converter ports.ConversionService
	store     ports.ArtifactStore
	preview   ports.PreviewRenderer
	pages     PageRenderer
	metrics   MetricsRecorder
	config    *entities.Config
	logger    *logging.Logger
	limiter   *rateLimiter

	mu      sync.RWMutex
	running bool
	addr    string
	stopHub context.CancelFunc
}

// NewServer creates a new HTTP server
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Converter == nil {
		return nil, errors.New("conversion service is required")
	}
	if deps.Store == nil {
		return nil, errors.New("artifact store is required")
	}
	if deps.Config == nil {
		return nil, errors.New("server config is required")
	}

	s := &Server{
		converter: deps.Converter,
		store:     deps.Store,
		preview:   deps.Preview,
		pages:     deps.Pages,
		metrics:   deps.Metrics,
		config:    deps.Config,
		logger:    deps.Logger,
		connMgr:   NewConnectionManager(),
		limiter:   newRateLimiter(requestsPerMinute, time.Minute),
	}

	if s.logger == nil {
		s.logger = logging.FromConfig("server", deps.Config.Logging)
	}
	if s.metrics == nil {
		s.metrics = monitoring.NewMonitor()
	}
	if s.preview == nil {
		s.preview = renderer.NewSlideRendererAdapter()
	}
	if s.pages == nil {
		pages, err := renderer.NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("creating page renderer: %w", err)
		}
		s.pages = pages
	}

	s.handler = s.setupRoutes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in the background
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	cfg := s.config.Server
	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Address(), err)
	}

	hubCtx, cancel := context.WithCancel(ctx)
	s.connMgr = NewConnectionManager()
	go s.connMgr.Run(hubCtx)

	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       cfg.GetReadTimeout(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}
	s.addr = ln.Addr().String()
	s.stopHub = cancel
	s.running = true

	go func(srv *http.Server) {
		s.logger.Info("HTTP server starting on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error: %v", err)
		}
	}(s.server)

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
	s.stopHub()
	s.running = false

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.GetShutdownTimeout())
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("HTTP server stopped")
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

// Addr returns the bound listener address while running
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) connections() *ConnectionManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connMgr
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/convert", s.handleConvert).Methods(http.MethodPost)
	router.HandleFunc("/convert/upload", s.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/download/{filename}", s.handleDownload).Methods(http.MethodGet)
	router.HandleFunc("/cleanup", s.handleCleanup).Methods(http.MethodGet, http.MethodPost)

	router.HandleFunc("/preview", s.handlePreviewPage).Methods(http.MethodPost)
	router.HandleFunc("/api/preview", s.handlePreview).Methods(http.MethodPost)
	router.HandleFunc("/api/formats", s.handleFormats).Methods(http.MethodGet)
	router.HandleFunc("/api/metrics", s.handleMetrics).Methods(http.MethodGet)

	router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Resource not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	})

	// Apply middleware in order: security -> rate limiting -> logging -> metrics -> recovery -> request id
	var handler http.Handler = router
	handler = securityHeadersMiddleware(handler)
	handler = rateLimitMiddleware(s.limiter)(handler)
	handler = loggingMiddleware(s.logger)(handler)
	handler = metricsMiddleware(s.metrics)(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	handler = requestIDMiddleware(handler)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.Server.GetCORSOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return c.Handler(handler)
}

// Ensure Server implements ports.HTTPServer
var _ ports.HTTPServer = (*Server)(nil)
