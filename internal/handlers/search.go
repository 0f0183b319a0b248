package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scripture-rag-search-api/internal/config"
	"github.com/scripture-rag-search-api/internal/models"
	"github.com/scripture-rag-search-api/internal/repository"
	"github.com/scripture-rag-search-api/internal/services"
)

// Retriever is the slice of the retrieval service the search endpoints use
type Retriever interface {
	Search(ctx context.Context, query string, opts services.SearchOptions) ([]models.RetrievalCandidate, error)
	Ask(ctx context.Context, query string, opts services.SearchOptions) (*models.RAGResponse, error)
}

// SearchHandler handles search endpoints
type SearchHandler struct {
	retriever Retriever
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(retriever Retriever) *SearchHandler {
	return &SearchHandler{
		retriever: retriever,
	}
}

func searchOptions(topK int, books []string, useReranker *bool, retrievalFactor *float64) services.SearchOptions {
	cfg := config.GetConfig()

	if topK <= 0 || topK > 50 {
		topK = services.DefaultTopK
	}

	opts := services.SearchOptions{
		TopK:            topK,
		Books:           repository.Books(books),
		UseReranker:     cfg.RerankerEnabled,
		RetrievalFactor: cfg.RetrievalFactor,
	}
	if useReranker != nil {
		opts.UseReranker = *useReranker
	}
	if retrievalFactor != nil {
		opts.RetrievalFactor = *retrievalFactor
	}
	return opts
}

func searchError(err error) *echo.HTTPError {
	if errors.Is(err, services.ErrInvalidTopK) || errors.Is(err, services.ErrInvalidRetrievalFactor) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Search failed: "+err.Error())
}

// Search handles POST /search - semantic verse search
func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query is required")
	}

	opts := searchOptions(req.TopK, req.Books, req.UseReranker, req.RetrievalFactor)

	results, err := h.retriever.Search(ctx, req.Query, opts)
	if err != nil {
		return searchError(err)
	}

	return c.JSON(http.StatusOK, models.SearchResponse{
		Query:   req.Query,
		Results: results,
	})
}

// Ask handles POST /ask - retrieval plus answer generation
func (h *SearchHandler) Ask(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query is required")
	}

	opts := searchOptions(req.TopK, req.Books, req.UseReranker, req.RetrievalFactor)

	response, err := h.retriever.Ask(ctx, req.Query, opts)
	if err != nil {
		return searchError(err)
	}

	return c.JSON(http.StatusOK, models.AskResponse{
		Query:   response.Query,
		Results: response.Results,
		Answer:  response.Answer,
	})
}

// RegisterRoutes registers search routes
func (h *SearchHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/search", h.Search)
	g.POST("/ask", h.Ask)
}
