package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Option func(*Options)

type Options struct {
	port          int
	logger        *zap.Logger
	mode          string
	middleware    []gin.HandlerFunc
	enableLogging bool
}

func WithPort(port int) Option {
	return func(o *Options) {
		o.port = port
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithMode sets the gin mode (gin.ReleaseMode, gin.DebugMode, gin.TestMode).
func WithMode(mode string) Option {
	return func(o *Options) {
		o.mode = mode
	}
}

func WithMiddleware(middleware ...gin.HandlerFunc) Option {
	return func(o *Options) {
		o.middleware = append(o.middleware, middleware...)
	}
}

func WithLogging(enabled bool) Option {
	return func(o *Options) {
		o.enableLogging = enabled
	}
}

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	lis        net.Listener
	logger     *zap.Logger
}

// New creates an HTTP server using the builder options. Port 0 binds an
// ephemeral port, which Addr reports.
func New(opts ...Option) (*Server, error) {
	options := &Options{
		port:   8080,
		logger: zap.NewNop(),
		mode:   gin.ReleaseMode,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.port < 0 || options.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", options.port)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", options.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", options.port, err)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(options.mode)
	engine := gin.New()

	engine.Use(RecoveryMiddleware(logger), RequestIDMiddleware())
	if options.enableLogging {
		engine.Use(LoggingMiddleware(logger))
	}
	engine.Use(options.middleware...)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Handler: engine,
		},
		lis:    lis,
		logger: logger.Named("http-server"),
	}, nil
}

// RegisterRoutes allows the main application to register its routes.
func (s *Server) RegisterRoutes(registerFunc func(r *gin.Engine)) {
	registerFunc(s.engine)
}

// Start runs the server in a goroutine and returns immediately.
func (s *Server) Start() {
	s.logger.Info("http server starting", zap.String("addr", s.lis.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(s.lis); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", zap.Error(err))
		}
	}()
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("forced shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
