package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scripture-rag-search-api/pkg/schema/db"
)

// VerseCounter reports how many verses the similarity index holds
type VerseCounter interface {
	Count(ctx context.Context) (int, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	index VerseCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(index VerseCounter) *HealthHandler {
	return &HealthHandler{index: index}
}

// HealthResponse is the response for basic health check
type HealthResponse struct {
	Status string `json:"status"`
}

// DatabaseHealthResponse is the response for database health check
type DatabaseHealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// IndexHealthResponse is the response for index health check
type IndexHealthResponse struct {
	Status     string `json:"status"`
	VerseCount int    `json:"verse_count"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// PostgresHealth handles GET /health/postgres
func (h *HealthHandler) PostgresHealth(c echo.Context) error {
	if !db.PostgresEnabled() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_configured",
			"error":  "PostgreSQL is not configured",
		})
	}

	pgDB := db.GetPostgres()
	if pgDB == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  "PostgreSQL connection not available",
		})
	}

	if err := pgDB.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, DatabaseHealthResponse{
		Status:   "connected",
		Database: "postgres",
	})
}

// IndexHealth handles GET /health/index
func (h *HealthHandler) IndexHealth(c echo.Context) error {
	count, err := h.index.Count(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
	}

	status := "ready"
	if count == 0 {
		status = "empty"
	}
	return c.JSON(http.StatusOK, IndexHealthResponse{
		Status:     status,
		VerseCount: count,
	})
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
	g.GET("/health/postgres", h.PostgresHealth)
	g.GET("/health/index", h.IndexHealth)
}
