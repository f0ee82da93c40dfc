// Package api exposes the pipeline over HTTP, one endpoint per operation.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/aidmatch/internal/metrics"
	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/pipeline"
	"github.com/ppiankov/aidmatch/internal/worker"
)

// Options configures a Server
type Options struct {
	Config   *model.Config
	Pipeline *pipeline.Pipeline
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // Source for /metrics; nil disables the endpoint
	Version  string
}

// Server represents the HTTP server
type Server struct {
	config   model.ServerConfig
	pipeline *pipeline.Pipeline
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	limiter  *worker.Limiter
	version  string
	started  time.Time

	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:   cfg.Server,
		pipeline: opts.Pipeline,
		logger:   logger,
		metrics:  opts.Metrics,
		version:  opts.Version,
		started:  time.Now(),
		router:   gin.New(),
	}
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		rl := cfg.RateLimiting
		s.limiter = worker.NewLimiterWithTTL(rl.RequestsPerSecond, rl.BurstSize, rl.IdleTTL)
		for client, kr := range rl.ClientOverrides {
			s.limiter.SetKeyRate(client, kr.RequestsPerSecond, kr.BurstSize)
		}
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.rateLimitMiddleware())

	s.setupRoutes(opts.Gatherer)
	return s
}

// Handler returns the HTTP handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.GET("/health", s.handleHealth)
	if gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/verify", s.handleVerify)
		v1.POST("/checks/duplicate-identity", s.handleDuplicateIdentity)
		v1.POST("/checks/cost-outlier", s.handleCostOutlier)
		v1.POST("/suggestions", s.handleSuggestions)
		v1.POST("/status/projection", s.handleStatusProjection)
	}
}
