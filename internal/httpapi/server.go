package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/a3tai/pdf-form-editor/internal/config"
	"github.com/a3tai/pdf-form-editor/internal/pdf"
)

const (
	// bodySlack covers the JSON envelope and the rename mappings on top of
	// the base64 encoded document.
	bodySlack = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// apiPaths are the field endpoints, the only paths that answer preflight
var apiPaths = []string{"/api/analyze", "/api/rename", "/api/validate"}

// Server serves the form field API over HTTP
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	cors       *corsPolicy
	handler    http.Handler
}

// NewServer creates a new HTTP API server
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		cors:       newCORSPolicy(cfg.AllowedOrigins, apiPaths...),
	}
	s.handler = s.routes()

	return s, nil
}

// routes registers all endpoints and wraps them in the middleware chain
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/rename", s.handleRename)
	mux.HandleFunc("POST /api/validate", s.handleValidate)

	var h http.Handler = mux
	h = s.cors.middleware(h)
	if s.config.IsDebug() {
		h = logRequests(h)
	}
	return h
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.handler
}

// maxBodySize is the request body budget for one document
func (s *Server) maxBodySize() int64 {
	return s.pdfService.GetMaxFileSize()/3*4 + 4 + bodySlack
}

// Run listens on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves requests on ln until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving PDF form API on http://%s", ln.Addr())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}
