package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/scripture-rag-search-api/internal/models"
	"github.com/scripture-rag-search-api/internal/reranker"
	"github.com/scripture-rag-search-api/internal/repository"
)

const (
	// DefaultTopK is the number of results returned when the caller does not
	// choose one.
	DefaultTopK = 5

	// DefaultRetrievalFactor widens the similarity query before reranking:
	// the index is asked for max(topK, round(topK*factor)) candidates.
	DefaultRetrievalFactor = 3.0
)

var (
	// ErrInvalidTopK is returned for top_k < 1.
	ErrInvalidTopK = errors.New("top_k must be at least 1")

	// ErrInvalidRetrievalFactor is returned for retrieval_factor < 1.0, which
	// would request fewer candidates than the final cap.
	ErrInvalidRetrievalFactor = errors.New("retrieval_factor must be at least 1.0")
)

// QueryEmbedder embeds a query for retrieval
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float64, error)
}

// Reranker reorders candidate texts by relevance to the query
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]reranker.RankedDocument, error)
}

// Generator produces free-form answer text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchOptions controls one retrieval invocation.
type SearchOptions struct {
	TopK            int
	Books           repository.BookFilter
	UseReranker     bool
	RetrievalFactor float64
}

// RetrievalService runs the two-stage retrieval pipeline: a widened
// similarity query followed by an optional cross-encoder reranking pass.
type RetrievalService struct {
	index     repository.VerseIndex
	embedder  QueryEmbedder
	reranker  Reranker
	generator Generator // nil = search-only mode
	logger    *log.Logger
}

// NewRetrievalService creates a new retrieval service. generator may be nil,
// in which case Ask degrades transparently to search-only responses.
func NewRetrievalService(index repository.VerseIndex, embedder QueryEmbedder, rr Reranker, generator Generator) *RetrievalService {
	return &RetrievalService{
		index:     index,
		embedder:  embedder,
		reranker:  rr,
		generator: generator,
		logger:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Search retrieves the opts.TopK most relevant verses for the query. With
// reranking enabled the similarity index is asked for a widened candidate set
// and the final order is the reranker's, score descending; the original
// distance is kept on each candidate as auxiliary data. Without reranking the
// index's native order stands. An empty candidate set is not an error.
func (s *RetrievalService) Search(ctx context.Context, query string, opts SearchOptions) ([]models.RetrievalCandidate, error) {
	if opts.TopK < 1 {
		return nil, ErrInvalidTopK
	}
	if opts.RetrievalFactor < 1.0 {
		return nil, ErrInvalidRetrievalFactor
	}

	candidateCount := opts.TopK
	if opts.UseReranker {
		widened := int(math.Round(float64(opts.TopK) * opts.RetrievalFactor))
		if widened > candidateCount {
			candidateCount = widened
		}
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	result, err := s.index.SearchByEmbedding(ctx, embedding, candidateCount, opts.Books)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	candidates := make([]models.RetrievalCandidate, result.Len())
	for i := 0; i < result.Len(); i++ {
		meta := result.Metadatas[i]
		candidates[i] = models.RetrievalCandidate{
			Reference:      meta.Reference,
			Text:           result.Texts[i],
			SectionHeading: meta.SectionHeading,
			Book:           meta.Book,
			Chapter:        meta.Chapter,
			Verse:          meta.Verse,
			Distance:       result.Distances[i],
		}
	}

	if opts.UseReranker && len(candidates) > 0 {
		documents := make([]string, len(candidates))
		for i, c := range candidates {
			documents[i] = c.Text
		}

		ranked, err := s.reranker.Rerank(ctx, query, documents, opts.TopK)
		if err != nil {
			return nil, fmt.Errorf("rerank candidates: %w", err)
		}

		reranked := make([]models.RetrievalCandidate, 0, len(ranked))
		for _, rd := range ranked {
			candidate := candidates[rd.Index]
			score := rd.Score
			candidate.RerankerScore = &score
			reranked = append(reranked, candidate)
		}
		return reranked, nil
	}

	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}
	return candidates, nil
}

// Ask retrieves relevant verses and, when a generator is configured,
// synthesizes a cited answer from them. Generation failure is logged and the
// response is returned without an answer; retrieval results are never lost to
// a generation problem.
func (s *RetrievalService) Ask(ctx context.Context, query string, opts SearchOptions) (*models.RAGResponse, error) {
	results, err := s.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	response := &models.RAGResponse{
		Query:   query,
		Results: results,
	}

	if s.generator == nil || len(results) == 0 {
		return response, nil
	}

	answer, err := s.generator.Generate(ctx, buildPrompt(query, results))
	if err != nil {
		s.logger.Printf("Warning: failed to generate answer: %v", err)
		return response, nil
	}
	response.Answer = answer

	return response, nil
}

// buildPrompt renders each candidate as "[reference] text", joined by blank
// lines, under the question and citation instructions.
func buildPrompt(query string, results []models.RetrievalCandidate) string {
	contextParts := make([]string, len(results))
	for i, r := range results {
		contextParts[i] = fmt.Sprintf("[%s] %s", r.Reference, r.Text)
	}

	return fmt.Sprintf(`You are a helpful assistant that answers questions about scripture passages.

Question: %s

Relevant scripture passages:
%s

Please provide a helpful answer based on the scripture passages above. Include citations in the format [Book Chapter:Verse] when referencing specific passages. Keep your answer concise and accurate.`,
		query, strings.Join(contextParts, "\n\n"))
}
