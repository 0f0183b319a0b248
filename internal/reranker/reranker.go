// Package reranker reorders retrieval candidates with a cross-encoder scoring
// pass, independent of the similarity index's coarse distance ordering.
package reranker

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// RankedDocument pairs an input position with a cross-encoder relevance score.
// Index refers to the position in the documents slice passed to Rerank.
type RankedDocument struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Scorer produces one relevance score per query-document pair, higher = more
// relevant.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// CrossEncoderReranker reranks documents against a query using an external
// cross-encoder scoring capability. The scorer is created lazily on first use
// and cached for the reranker's lifetime; initialization happens at most once
// even under concurrent first queries.
type CrossEncoderReranker struct {
	newScorer func() (Scorer, error)

	once    sync.Once
	scorer  Scorer
	initErr error
}

// New creates a reranker whose scorer is built by factory on first use.
func New(factory func() (Scorer, error)) *CrossEncoderReranker {
	return &CrossEncoderReranker{newScorer: factory}
}

func (r *CrossEncoderReranker) client() (Scorer, error) {
	r.once.Do(func() {
		r.scorer, r.initErr = r.newScorer()
	})
	if r.initErr != nil {
		return nil, fmt.Errorf("initialize reranker: %w", r.initErr)
	}
	return r.scorer, nil
}

// Rerank scores documents against the query and returns (index, score) pairs
// sorted by score descending; equal scores keep ascending input order. With
// topK <= 0 all documents are returned; otherwise at most topK, with no
// padding when topK exceeds the document count. An empty documents slice
// returns an empty result without touching the scorer.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RankedDocument, error) {
	if len(documents) == 0 {
		return []RankedDocument{}, nil
	}

	scorer, err := r.client()
	if err != nil {
		return nil, err
	}

	scores, err := scorer.Score(ctx, query, documents)
	if err != nil {
		return nil, fmt.Errorf("score documents: %w", err)
	}
	if len(scores) != len(documents) {
		return nil, fmt.Errorf("scorer returned %d scores for %d documents", len(scores), len(documents))
	}

	ranked := make([]RankedDocument, len(documents))
	for i, score := range scores {
		ranked[i] = RankedDocument{Index: i, Score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked, nil
}
