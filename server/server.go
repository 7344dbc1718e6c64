// Package server exposes the analyzer and the scan history over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ariclear/backend/analyzer"
	"github.com/ariclear/backend/logging"
	"github.com/ariclear/backend/middleware"
	"github.com/ariclear/backend/report"
	"github.com/ariclear/backend/scans"
)

// Analyzer is the part of *analyzer.Analyzer the server uses.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*report.AnalysisReport, error)
	GetCacheStats() analyzer.CacheStats
}

// Options wires a Server.
type Options struct {
	Analyzer Analyzer
	Store    scans.Store
	// Statistics is optional; nil keeps in-memory statistics only.
	Statistics  *logging.Statistics
	RateLimiter *middleware.RateLimiter
	Logger      logging.Logger
	// DevMode adds popular URLs and error breakdowns to /api/statistics.
	DevMode bool
	// Now is the clock used for recent-scan windows; nil means time.Now.
	Now func() time.Time
}

type Server struct {
	analyzer Analyzer
	store    scans.Store
	stats    *logging.Statistics
	limiter  *middleware.RateLimiter
	logger   logging.Logger
	devMode  bool
	now      func() time.Time
	router   *gin.Engine
}

func New(opts Options) (*Server, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("server: analyzer is required")
	}
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	s := &Server{
		analyzer: opts.Analyzer,
		store:    opts.Store,
		stats:    opts.Statistics,
		limiter:  opts.RateLimiter,
		logger:   opts.Logger,
		devMode:  opts.DevMode,
		now:      opts.Now,
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.stats == nil {
		s.stats, _ = logging.NewStatistics("")
	}
	if s.limiter == nil {
		s.limiter = middleware.NewRateLimiter(2, 5) // 2 requests per second, bucket size of 5
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the configured gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.CORS())
	r.Use(s.limiter.RateLimit())
	r.Use(middleware.StatsMiddleware(s.stats, s.logger))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze", s.analyzeURL)
		api.GET("/statistics", s.statistics)
		api.POST("/preorder", s.preorder)

		scanGroup := api.Group("/scans", middleware.RequireUser())
		{
			scanGroup.GET("", s.listScans)
			scanGroup.POST("", s.createScan)
			scanGroup.GET("/stats", s.scanStats)
			scanGroup.GET("/:id", s.getScan)
			scanGroup.PATCH("/:id", s.updateChecklist)
			scanGroup.DELETE("/:id", s.deleteScan)
			scanGroup.GET("/:id/export", s.exportScan)
		}
	}
	return r
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting on http://localhost%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := s.stats.Save(); err != nil {
		s.logger.Warn("Failed to save statistics: %v", err)
	}
	return nil
}
