package repository

import (
	"context"

	"github.com/scripture-rag-search-api/internal/models"
)

// QueryResult holds one similarity query's hits as parallel arrays, each of
// length <= the requested limit. Distances are lower = more similar; no
// normalization is guaranteed beyond that within a single query.
type QueryResult struct {
	Texts     []string
	Metadatas []models.VerseMeta
	Distances []float64
}

// Len returns the number of hits.
func (r QueryResult) Len() int {
	return len(r.Texts)
}

// VerseIndex defines the similarity index over embedded verse records.
type VerseIndex interface {
	// UpsertVerses stores records keyed by VerseRecord.ID alongside their
	// embeddings. Re-adding the same verse overwrites rather than
	// duplicates. embeddings must be parallel to records.
	UpsertVerses(ctx context.Context, records []models.VerseRecord, embeddings [][]float64) error

	// SearchByEmbedding returns the limit nearest verses to the embedding,
	// restricted by the book filter.
	SearchByEmbedding(ctx context.Context, embedding []float64, limit int, filter BookFilter) (QueryResult, error)

	// Count returns the number of indexed verses.
	Count(ctx context.Context) (int, error)

	// Clear removes all indexed verses.
	Clear(ctx context.Context) error
}
