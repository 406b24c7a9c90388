package http

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/circuitbreaker"
	"Recall_1.0/backend/go/pkg/httpmiddleware"
	"Recall_1.0/backend/go/pkg/logger"
	"Recall_1.0/backend/go/pkg/ratelimiter"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Middleware defines a function to wrap an http.Handler.
type Middleware func(http.Handler) http.Handler

// Server is a custom HTTP server that wraps the standard http.Server
// and provides built-in support for middleware.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	log        *logger.Logger
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// WithLogger replaces the default service logger.
func WithLogger(l *logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// NewServer creates and configures a new Server instance based on the provided AppConfig and options.
// It automatically applies rate limiting and circuit breaking middleware if enabled in the config.
func NewServer(cfg *config.AppConfig, opts ...ServerOption) (*Server, error) {
	mux := http.NewServeMux()
	var handler http.Handler = mux

	var middlewares []Middleware

	if cfg.Middleware.RateLimiter.Enabled {
		mw, err := createRateLimiter(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		middlewares = append(middlewares, mw)
	}

	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker, err := NewBreaker("http-server", cfg.Middleware.CircuitBreaker)
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		middlewares = append(middlewares, httpmiddleware.CircuitBreak(breaker))
	}

	// Apply all middlewares in reverse order
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	srv := &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		mux: mux,
		log: logger.New("http", "", ""),
	}

	for _, opt := range opts {
		opt(srv)
	}

	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = cfg.App.Address
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = config.DefaultAddress
	}

	srv.log.WithPayload(map[string]interface{}{
		"rateLimiter":    cfg.Middleware.RateLimiter.Enabled,
		"algorithm":      cfg.Middleware.RateLimiter.Algorithm,
		"circuitBreaker": cfg.Middleware.CircuitBreaker.Enabled,
	}).Debug("http middleware configured")

	return srv, nil
}

// Handle registers the handler for the given pattern.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// HandleFunc registers the handler function for the given pattern.
func (s *Server) HandleFunc(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, handler)
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	if s.httpServer.Addr == "" {
		return fmt.Errorf("server address is not set")
	}
	s.log.Info("starting server on " + s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// createRateLimiter builds the global or per-client limiter middleware.
func createRateLimiter(cfg config.RateLimiterConfig) (Middleware, error) {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = "tokenBucket"
	}

	var factory func() ratelimiter.RateLimiter
	switch algorithm {
	case "tokenBucket":
		conf := cfg.TokenBucket
		factory = func() ratelimiter.RateLimiter { return ratelimiter.NewTokenBucket(conf.Rate, conf.Capacity) }
	case "slidingLog":
		conf := cfg.SlidingLog
		window, err := time.ParseDuration(conf.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid slidingLog duration: %w", err)
		}
		factory = func() ratelimiter.RateLimiter { return ratelimiter.NewSlidingWindowLog(conf.Limit, window) }
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}

	if cfg.PerClient {
		return httpmiddleware.RateLimitPerClient(ratelimiter.NewPerKey(factory)), nil
	}
	return httpmiddleware.RateLimit(factory()), nil
}

// NewBreaker builds a circuit breaker from the shared middleware settings.
func NewBreaker(name string, cfg config.CircuitBreakerConfig) (*circuitbreaker.Breaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	l := logger.New(name, "", "")
	return circuitbreaker.New(circuitbreaker.Settings{
		Name:             name,
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          timeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			l.WithPayload(map[string]interface{}{"from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	}), nil
}
