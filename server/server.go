package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/observability"
	"github.com/kbukum/streamcall/resilience"
	"github.com/kbukum/streamcall/server/endpoint"
	"github.com/kbukum/streamcall/server/middleware"
	"github.com/kbukum/streamcall/version"
)

// Server is an HTTP server backed by Gin. It speaks HTTP/1.1 and HTTP/2
// cleartext on the same port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    http.Handler
	config     Config
	log        *logger.Logger
	streams    endpoint.Streams
	listener   net.Listener
}

// New creates a Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, notFound(c))
	})
	engine.NoMethod(func(c *gin.Context) {
		RespondWithError(c, methodNotAllowed(c))
	})

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          cfg.IdleTimeout,
	}
	handler := h2c.NewHandler(engine, h2s)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		engine:  engine,
		handler: handler,
		config:  cfg,
		log:     log.WithComponent("server"),
	}
}

// Engine returns the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler, including h2c support.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Streams returns the streamed-reply counters.
func (s *Server) Streams() *endpoint.Streams {
	return &s.streams
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", s.Addr()))
	return nil
}

// Stop shuts the server down, waiting up to five seconds for open
// requests to finish.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server", logger.Fields("open_streams", s.streams.Open()))

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// ApplyMiddleware installs recovery, request ID, request logging, CORS,
// the body-size limit and, when configured, rate limiting and bearer
// authentication.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.RequestLogger(s.log))
	s.engine.Use(middleware.CORS(s.config.CORS))
	if s.config.MaxBodySize != "" {
		s.engine.Use(middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	if s.config.RateLimit > 0 {
		s.engine.Use(middleware.RateLimit(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "server",
			Rate:  s.config.RateLimit,
			Burst: s.config.RateBurst,
		})))
	}
	if len(s.config.Tokens) > 0 {
		s.engine.Use(middleware.BearerAuth(middleware.AuthConfig{
			Tokens:    s.config.Tokens,
			SkipPaths: []string{"/health", "/alive", "/info", "/metrics"},
		}))
	}
}

// RegisterDefaultEndpoints registers /health, /alive, /info and /metrics.
func (s *Server) RegisterDefaultEndpoints(service string, checkers ...observability.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(service, version.Get().Version, checkers...))
	s.engine.GET("/alive", endpoint.Liveness(service))
	s.engine.GET("/info", endpoint.Info(service))
	s.engine.GET("/metrics", endpoint.Metrics(&s.streams))
}
