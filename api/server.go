package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pevans/litcrawl/catalog"
	"github.com/pevans/litcrawl/config"
	"github.com/pevans/litcrawl/corpus"
	"github.com/pevans/litcrawl/ledger"
)

// Pagination limits for record listings.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// RunLister is the read side of the run ledger.
type RunLister interface {
	ListRuns(collection string, limit int) ([]ledger.Run, error)
}

// Server is the read-only status API.
type Server struct {
	cfg  *config.Config
	runs RunLister
}

// ListRecordsResponse is one page of stored records.
type ListRecordsResponse struct {
	Collection string          `json:"collection"`
	Records    []corpus.Record `json:"records"`
	Total      int             `json:"total"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// NewServer creates a status server. runs may be nil when the ledger is
// disabled.
func NewServer(cfg *config.Config, runs RunLister) *Server {
	return &Server{
		cfg:  cfg,
		runs: runs,
	}
}

// SetupRouter configures the Gin router with the status routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api/v1")
	api.GET("/collections", s.HandleListCollections)
	api.GET("/collections/:name", s.HandleGetCollection)
	api.GET("/collections/:name/records", s.HandleListRecords)
	api.GET("/runs", s.HandleListRuns)

	return router
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleListCollections handles GET /api/v1/collections.
func (s *Server) HandleListCollections(c *gin.Context) {
	entries, err := catalog.OpenAll(s.cfg)
	if err != nil {
		slog.Error("failed to open collections", "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to open collections"))
		return
	}

	statuses := make([]*catalog.Status, 0, len(entries))
	for _, entry := range entries {
		status, err := entry.Status()
		if err != nil {
			slog.Error("failed to read collection status", "collection", entry.Name, "err", err)
			c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to read collection status"))
			return
		}
		statuses = append(statuses, status)
	}

	c.JSON(http.StatusOK, gin.H{"collections": statuses})
}

// HandleGetCollection handles GET /api/v1/collections/:name.
func (s *Server) HandleGetCollection(c *gin.Context) {
	entry, ok := s.openEntry(c)
	if !ok {
		return
	}

	status, err := entry.Status()
	if err != nil {
		slog.Error("failed to read collection status", "collection", entry.Name, "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to read collection status"))
		return
	}

	c.JSON(http.StatusOK, status)
}

// HandleListRecords handles GET /api/v1/collections/:name/records.
func (s *Server) HandleListRecords(c *gin.Context) {
	entry, ok := s.openEntry(c)
	if !ok {
		return
	}

	limit, ok := intParam(c, "limit", DefaultLimit, 1)
	if !ok {
		return
	}
	limit = min(limit, MaxLimit)

	offset, ok := intParam(c, "offset", 0, 0)
	if !ok {
		return
	}

	result, err := entry.Store.List(offset, limit)
	if err != nil {
		slog.Error("failed to list records", "collection", entry.Name, "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to read records"))
		return
	}

	c.JSON(http.StatusOK, ListRecordsResponse{
		Collection: entry.Name,
		Records:    result.Records,
		Total:      result.Total,
		Limit:      limit,
		Offset:     offset,
	})
}

// HandleListRuns handles GET /api/v1/runs.
func (s *Server) HandleListRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("ledger_disabled", "Run history is not enabled"))
		return
	}

	limit, ok := intParam(c, "limit", 20, 1)
	if !ok {
		return
	}
	limit = min(limit, MaxLimit)

	collection := c.Query("collection")
	if collection != "" {
		if _, err := s.cfg.Collection(collection); err != nil {
			c.JSON(http.StatusNotFound, errorResponse("not_found", "Collection not found"))
			return
		}
	}

	runs, err := s.runs.ListRuns(collection, limit)
	if err != nil {
		slog.Error("failed to list runs", "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to read run history"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// openEntry resolves the :name parameter, writing a 404 when unknown.
func (s *Server) openEntry(c *gin.Context) (*catalog.Entry, bool) {
	entry, err := catalog.Open(s.cfg, c.Param("name"))
	if errors.Is(err, config.ErrUnknownCollection) {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Collection not found"))
		return nil, false
	}
	if err != nil {
		slog.Error("failed to open collection", "collection", c.Param("name"), "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to open collection"))
		return nil, false
	}
	return entry, true
}

// intParam parses an optional integer query parameter of at least minValue.
func intParam(c *gin.Context, name string, fallback, minValue int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < minValue {
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid "+name+" parameter"))
		return 0, false
	}
	return v, true
}

// requestLogger logs each request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}
