// Package server hosts the HTTP surface: health probe, Telegram webhook and
// admin API behind one chi router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/logging"
)

const (
	readHeaderTimeout = 5 * time.Second
	listenPrefix      = ":"

	// HealthPath is the container probe endpoint.
	HealthPath = "/healthz"
	// WebhookPath receives Telegram updates.
	WebhookPath = "/telegram/webhook"
	// AdminPath prefixes the management API.
	AdminPath = "/admin/api"
)

// Routes are the handlers mounted on the router. Nil entries are skipped.
type Routes struct {
	Health  http.Handler
	Webhook http.Handler
	Admin   http.Handler
}

// Server owns the underlying HTTP server.
type Server struct {
	server *http.Server
	logger *logrus.Entry
}

// NewRouter builds the chi router with request-scoped middleware.
func NewRouter(routes Routes, logger *logrus.Entry) http.Handler {
	if logger == nil {
		logger = logging.Logger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	if routes.Health != nil {
		r.Method(http.MethodGet, HealthPath, routes.Health)
	}
	if routes.Webhook != nil {
		r.Mount(WebhookPath, routes.Webhook)
	}
	if routes.Admin != nil {
		r.Mount(AdminPath, routes.Admin)
	}

	return r
}

// New constructs a server listening on the provided port.
func New(port int, routes Routes, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s%d", listenPrefix, port),
			Handler:           NewRouter(routes, logger),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe starts the server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "http_listen",
		"addr":  s.server.Addr,
	}).Info("starting http server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server listen: %w", err)
	}

	s.logger.WithField("event", "http_stopped").Info("http server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

// requestLogger writes one logrus entry per request.
func requestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			entry := logger.WithFields(logging.Fields{
				"event":       "http_request",
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
				"remote_ip":   r.RemoteAddr,
			})

			if status >= http.StatusInternalServerError {
				entry.Warn("http request failed")
				return
			}
			entry.Debug("http request served")
		})
	}
}
