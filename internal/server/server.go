package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pushhook/internal/config"
	"pushhook/internal/deployment"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 10 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware
	RequestTimeout = 30 * time.Second

	// WebhookPath is where GitHub delivers events.
	WebhookPath = "/github-webhook"
)

// Dispatcher schedules a deployment without waiting for it.
type Dispatcher interface {
	Submit(t deployment.Trigger) bool
}

// Server represents the HTTP server
type Server struct {
	Secret     config.SecretSource
	Dispatcher Dispatcher
	Logger     *slog.Logger

	// RateLimit is the per-IP webhook limit in requests per minute; 0 disables it.
	RateLimit int

	// TrustProxy derives the client IP from X-Forwarded-For / X-Real-IP.
	// Otherwise the rate limiter keys on the connection's remote address.
	TrustProxy bool

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(secret config.SecretSource, dispatcher Dispatcher, logger *slog.Logger, rateLimit int) *Server {
	return &Server{
		Secret:     secret,
		Dispatcher: dispatcher,
		Logger:     logger,
		RateLimit:  rateLimit,
	}
}

// Router creates and configures the HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	if s.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(NewLoggingMiddleware(s.Logger))

	r.Get("/health", s.HandleHealth)

	if s.RateLimit > 0 {
		r.With(NewRateLimitMiddleware(s.RateLimit, s.Logger)).Post(WebhookPath, s.HandleWebhook)
	} else {
		r.Post(WebhookPath, s.HandleWebhook)
	}

	return r
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.Logger.Info("Starting server", "addr", addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight requests.
// Background deployments are not tracked here.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}
