package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storyseek/storyseek/internal/errors"
	"github.com/storyseek/storyseek/internal/search"
)

// contextWithTimeout bounds a handler's downstream work with the
// configured deadline while keeping client-cancellation propagation.
func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}

// searchRequest is the POST /api/stories/search body. A missing mode
// means hybrid; a missing limit means the configured default.
type searchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
	Limit *int   `json:"limit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query must not be empty"})
		return
	}

	mode, err := search.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	limit := s.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be positive"})
		return
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	ctx, cancel := contextWithTimeout(c, s.searchTimeout)
	defer cancel()

	hits, err := s.engine.Search(ctx, search.Options{Query: req.Query, Mode: mode, Limit: limit})
	if err != nil {
		s.failSearch(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (s *Server) handleListStories(c *gin.Context) {
	stories, err := s.stories.List(c.Request.Context())
	if err != nil {
		s.logger.Error("list stories failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "service temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (s *Server) handleGetStory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "story id must be an integer"})
		return
	}

	story, err := s.stories.GetByID(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("get story failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "service temporarily unavailable"})
		return
	}
	if story == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "story not found"})
		return
	}
	c.JSON(http.StatusOK, story)
}

// failSearch maps engine errors onto HTTP statuses. Caller mistakes
// get a 400 with the reason; everything else gets a generic 500 so
// provider and store details stay in the logs.
func (s *Server) failSearch(c *gin.Context, err error) {
	if errors.IsCategory(err, errors.CategoryValidation) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Error("search failed",
		"code", errors.GetCode(err),
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "search is temporarily unavailable"})
}
