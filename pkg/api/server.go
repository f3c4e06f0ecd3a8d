package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/confstore/pkg/httputil"
	"github.com/platinummonkey/confstore/pkg/observability"
	"github.com/platinummonkey/confstore/pkg/service"
)

// maxBodyBytes bounds entry values; anything larger than 1 MiB is rejected
// before JSON decoding.
const maxBodyBytes = 1 << 20

// Server routes configuration store requests to the service pipeline
type Server struct {
	service *service.Service
	router  *mux.Router
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewServer creates the API server. metrics may be nil.
func NewServer(svc *service.Service, logger *observability.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		service: svc,
		router:  mux.NewRouter(),
		logger:  logger,
		metrics: metrics,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(
		httputil.RequestIDMiddleware,
		httputil.RecoveryMiddleware(s.logger),
		httputil.LoggingMiddleware(s.logger),
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)

	s.handle("POST", "/v1/repositories", s.createRepository)
	s.handle("GET", "/v1/repositories/{repository}/entries", s.listEntries)
	s.handle("GET", "/v1/repositories/{repository}/entries/{key}", s.getEntry)
	s.handle("PUT", "/v1/repositories/{repository}/entries/{key}", s.saveEntry)
	s.handle("DELETE", "/v1/repositories/{repository}/entries/{key}", s.deleteEntry)
	s.handle("GET", "/v1/repositories/{repository}/entries/{key}/history", s.getEntryHistory)
}

// handle registers a route with per-route request metrics
func (s *Server) handle(method, path string, handler http.HandlerFunc) {
	s.router.Handle(path, httputil.MetricsMiddleware(s.metrics, path)(handler)).Methods(method)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
