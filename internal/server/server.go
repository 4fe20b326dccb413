// Package server exposes the search engine and story store over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storyseek/storyseek/internal/search"
	"github.com/storyseek/storyseek/internal/store"
)

// Server wraps the gin engine and its dependencies.
type Server struct {
	engine  *search.Engine
	stories store.StoryStore
	logger  *slog.Logger

	defaultLimit  int
	maxLimit      int
	searchTimeout time.Duration

	router *gin.Engine
	http   *http.Server
}

// Options configures a Server.
type Options struct {
	Engine  *search.Engine
	Stories store.StoryStore
	Logger  *slog.Logger

	Addr          string
	GinMode       string
	DefaultLimit  int
	MaxLimit      int
	SearchTimeout time.Duration
}

// New builds the server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 5
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 50
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 10 * time.Second
	}

	s := &Server{
		engine:        opts.Engine,
		stories:       opts.Stories,
		logger:        logger,
		defaultLimit:  opts.DefaultLimit,
		maxLimit:      opts.MaxLimit,
		searchTimeout: opts.SearchTimeout,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.handleHealth)
	api := router.Group("/api")
	{
		api.POST("/stories/search", s.handleSearch)
		api.GET("/stories", s.handleListStories)
		api.GET("/stories/:id", s.handleGetStory)
	}

	s.router = router
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the underlying handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe blocks serving HTTP until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
