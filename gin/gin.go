// Package gin serves the generation gateway over HTTP using the gin router.
package gin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/codecanvas"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Public error messages. Internal detail is logged, never returned.
const (
	explainFailure = "Failed to generate explanation"
	visualFailure  = "Failed to generate visual analogy"
)

// Server exposes a Gateway over HTTP.
type Server struct {
	gateway        *codecanvas.Gateway
	logger         *zap.Logger
	metrics        Metrics
	metricsHandler http.Handler
	tracer         trace.TracerProvider
	maxBodyBytes   int64
	errorText      string

	router     *gin.Engine
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics sets the collector notified of request outcomes.
func WithMetrics(m Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithTracerProvider sets the provider used for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp }
}

// WithMaxBodyBytes caps request bodies. Larger bodies are rejected with 400.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithStreamErrorText sets the in-band text written when an explanation
// fails after streaming has started.
func WithStreamErrorText(text string) Option {
	return func(s *Server) { s.errorText = text }
}

// NewServer creates a Server for gateway and registers its routes.
func NewServer(gateway *codecanvas.Gateway, opts ...Option) *Server {
	s := &Server{
		gateway:      gateway,
		logger:       zap.NewNop(),
		metrics:      nopMetrics{},
		tracer:       noop.NewTracerProvider(),
		maxBodyBytes: DefaultMaxBodyBytes,
		errorText:    codecanvas.DefaultStreamErrorText,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(s.logger))
	router.Use(Tracing(s.tracer))

	generate := router.Group("")
	generate.Use(LimitBody(s.maxBodyBytes))
	for _, prefix := range []string{"", "/api"} {
		generate.POST(prefix+"/explain", s.observe(RouteExplain), s.handleExplain)
		generate.POST(prefix+"/visual", s.observe(RouteVisual), s.handleVisual)
	}

	router.GET("/health", s.handleHealth)
	if s.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	s.router = router
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr and serves until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout. In-flight streams see their request
// contexts cancelled when the timeout expires.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		_ = s.httpServer.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
