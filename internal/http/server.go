// Package http provides the HTTP API for wizzd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/agent"
	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/orchestrator"
	"github.com/fyrsmithlabs/wizz/internal/publish"
	"github.com/fyrsmithlabs/wizz/internal/sanitize"
	"github.com/fyrsmithlabs/wizz/internal/store"
	"github.com/fyrsmithlabs/wizz/internal/telemetry"
)

// Runner executes orchestrator requests.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
}

// Planner runs the standalone plan phase.
type Planner interface {
	Plan(ctx context.Context, goal, contextText string, build bool, maxTasks int) (agent.PlanOutcome, error)
}

// Executor runs one standalone task.
type Executor interface {
	Execute(ctx context.Context, task, contextText string, build bool) (agent.JuniorResult, error)
}

// Publisher writes a file set to the content store.
type Publisher interface {
	Ready() error
	Publish(ctx context.Context, files []contract.File) (*publish.Receipt, error)
}

// Repository reads from the content store.
type Repository interface {
	Target() string
	ReadFile(ctx context.Context, path string) (*store.FileContent, error)
	ListTree(ctx context.Context) ([]store.TreeEntry, error)
}

// Deps are the components behind the API. Runner is required. A nil
// Repository makes the repo routes report the publisher's missing setting.
type Deps struct {
	Runner          Runner
	Planner         Planner
	Executor        Executor
	Publisher       Publisher
	Repository      Repository
	Limits          sanitize.Limits
	DefaultMaxTasks int
	// Telemetry reports exporter health on /health. Optional.
	Telemetry func() telemetry.HealthStatus
}

// Server provides HTTP endpoints for wizzd.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *logging.Logger
	config *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// BodyLimit caps request bodies, in echo's size notation ("2M").
	BodyLimit string
	// Meter receives the OTEL request metrics. Nil uses the global provider.
	Meter metric.Meter
	// Registry receives the Prometheus request metrics and backs /metrics.
	// Nil uses the Prometheus default registry.
	Registry *prometheus.Registry
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, logger *logging.Logger, cfg *Config) (*Server, error) {
	if deps.Runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9191,
		}
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "2M"
	}
	logger = logger.Named("http")

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if cfg.Registry != nil {
		registerer, gatherer = cfg.Registry, cfg.Registry
	}
	prom, err := NewPromMetrics(registerer)
	if err != nil {
		return nil, fmt.Errorf("prometheus metrics: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger,
		config: cfg,
	}
	e.HTTPErrorHandler = s.handleError

	// Middleware. The metrics middlewares wrap the request logger, which
	// renders handler errors, so all three see the final status.
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(cfg.Meter, logger).MetricsMiddleware())
	e.Use(prom.Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(req.WithContext(ctx))

			if err := next(c); err != nil {
				c.Error(err)
			}

			logger.Info(ctx, "http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	})
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	s.registerRoutes(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(metricsHandler http.Handler) {
	// Health check
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/run", s.handleRun)
	v1.POST("/plan", s.handlePlan)
	v1.POST("/execute", s.handleExecute)
	v1.POST("/publish", s.handlePublish)
	v1.GET("/repo/file", s.handleRepoFile)
	v1.GET("/repo/tree", s.handleRepoTree)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
