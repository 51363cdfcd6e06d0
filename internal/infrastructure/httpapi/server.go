// Package httpapi exposes the recommendation services over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsRecommender/internal/config"
	"NewsRecommender/internal/usecase"
)

const defaultShutdownTimeout = 10 * time.Second

// Services are the use cases served by the API.
type Services struct {
	Articles        *usecase.ArticleService
	Recommendations *usecase.RecommendationService
	Preferences     *usecase.PreferenceService
	History         *usecase.HistoryService
	Pipeline        *usecase.Pipeline
}

// Server owns the gin engine and its http.Server.
type Server struct {
	cfg    config.ServerConfig
	engine *gin.Engine
	logger *slog.Logger
}

// NewServer registers every route on a fresh gin engine.
func NewServer(cfg config.ServerConfig, services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), observe(logger))

	h := &handlers{services: services, logger: logger}
	engine.GET("/healthz", h.health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/articles/update", h.updateArticles)
	engine.GET("/articles", h.listArticles)
	engine.POST("/articles/track", h.track)

	user := engine.Group("", requireUser())
	user.GET("/articles/filtered", h.filteredArticles)
	user.GET("/articles/personalized", h.personalized)
	user.GET("/preferences", h.preferences)
	user.POST("/preferences/update", h.updatePreferences)
	user.GET("/reading-history", h.readingHistory)

	return &Server{cfg: cfg, engine: engine, logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
