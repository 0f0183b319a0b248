package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripture-rag-search-api/internal/models"
	"github.com/scripture-rag-search-api/internal/reranker"
	"github.com/scripture-rag-search-api/internal/repository"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedQuery(context.Context, string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float64, error) {
	return nil, errors.New("embedding service down")
}

// fakeIndex records the limit and filter of the last query and serves a fixed
// candidate set.
type fakeIndex struct {
	result    repository.QueryResult
	err       error
	lastLimit int
	lastBooks repository.BookFilter
	queries   int
}

func (f *fakeIndex) UpsertVerses(context.Context, []models.VerseRecord, [][]float64) error {
	return nil
}

func (f *fakeIndex) SearchByEmbedding(_ context.Context, _ []float64, limit int, filter repository.BookFilter) (repository.QueryResult, error) {
	f.queries++
	f.lastLimit = limit
	f.lastBooks = filter
	if f.err != nil {
		return repository.QueryResult{}, f.err
	}
	r := f.result
	if r.Len() > limit {
		r = repository.QueryResult{
			Texts:     r.Texts[:limit],
			Metadatas: r.Metadatas[:limit],
			Distances: r.Distances[:limit],
		}
	}
	return r, nil
}

func (f *fakeIndex) Count(context.Context) (int, error) { return f.result.Len(), nil }
func (f *fakeIndex) Clear(context.Context) error        { return nil }

type fakeReranker struct {
	ranked []reranker.RankedDocument
	err    error
	calls  int
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, documents []string, topK int) ([]reranker.RankedDocument, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.ranked != nil {
		return f.ranked, nil
	}
	// identity ranking capped at topK
	n := len(documents)
	if topK > 0 && topK < n {
		n = topK
	}
	out := make([]reranker.RankedDocument, n)
	for i := range out {
		out[i] = reranker.RankedDocument{Index: i, Score: 1.0 - float64(i)/10}
	}
	return out, nil
}

type fakeGenerator struct {
	answer     string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func indexWith(n int) *fakeIndex {
	var result repository.QueryResult
	for i := 0; i < n; i++ {
		result.Texts = append(result.Texts, string(rune('a'+i)))
		result.Metadatas = append(result.Metadatas, models.VerseMeta{
			Book:      "Genesis",
			Abbrev:    "GEN",
			Chapter:   1,
			Verse:     i + 1,
			Reference: models.FormatReference("Genesis", 1, i+1),
		})
		result.Distances = append(result.Distances, 0.1*float64(i+1))
	}
	return &fakeIndex{result: result}
}

func newService(index *fakeIndex, rr *fakeReranker, gen Generator) *RetrievalService {
	return NewRetrievalService(index, fakeEmbedder{}, rr, gen)
}

func defaultOpts() SearchOptions {
	return SearchOptions{
		TopK:            DefaultTopK,
		Books:           repository.AllBooks(),
		UseReranker:     true,
		RetrievalFactor: DefaultRetrievalFactor,
	}
}

func TestSearch_WidensQueryForReranking(t *testing.T) {
	index := indexWith(20)
	svc := newService(index, &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.TopK = 5
	opts.RetrievalFactor = 3.0

	_, err := svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)

	assert.Equal(t, 15, index.lastLimit)
}

func TestSearch_WidenedCountNeverBelowTopK(t *testing.T) {
	index := indexWith(20)
	svc := newService(index, &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.TopK = 10
	opts.RetrievalFactor = 1.0

	_, err := svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)

	assert.Equal(t, 10, index.lastLimit)
}

func TestSearch_NoWideningWithoutReranker(t *testing.T) {
	index := indexWith(20)
	svc := newService(index, &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.TopK = 5
	opts.UseReranker = false

	results, err := svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)

	assert.Equal(t, 5, index.lastLimit)
	assert.Len(t, results, 5)
}

func TestSearch_RerankerOrderReplacesDistanceOrder(t *testing.T) {
	index := &fakeIndex{result: repository.QueryResult{
		Texts: []string{"A", "B", "C"},
		Metadatas: []models.VerseMeta{
			{Reference: "Genesis 1:1"},
			{Reference: "Genesis 1:2"},
			{Reference: "Genesis 1:3"},
		},
		Distances: []float64{0.5, 0.4, 0.6},
	}}
	rr := &fakeReranker{ranked: []reranker.RankedDocument{
		{Index: 2, Score: 0.95},
		{Index: 0, Score: 0.85},
	}}
	svc := newService(index, rr, nil)

	opts := defaultOpts()
	opts.TopK = 2

	results, err := svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "C", results[0].Text)
	require.NotNil(t, results[0].RerankerScore)
	assert.Equal(t, 0.95, *results[0].RerankerScore)
	assert.Equal(t, 0.6, results[0].Distance)

	assert.Equal(t, "A", results[1].Text)
	require.NotNil(t, results[1].RerankerScore)
	assert.Equal(t, 0.85, *results[1].RerankerScore)
	assert.Equal(t, 0.5, results[1].Distance)
}

func TestSearch_NoRerankerScoreWithoutReranking(t *testing.T) {
	svc := newService(indexWith(3), &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.UseReranker = false

	results, err := svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)
	for _, r := range results {
		assert.Nil(t, r.RerankerScore)
	}
}

func TestSearch_EmptyBookListEqualsNoFilter(t *testing.T) {
	index := indexWith(3)
	svc := newService(index, &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.Books = repository.Books([]string{})
	_, err := svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)
	filteredEmpty := index.lastBooks

	opts.Books = repository.AllBooks()
	_, err = svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)

	assert.Equal(t, index.lastBooks, filteredEmpty)
	assert.True(t, filteredEmpty.Empty())
}

func TestSearch_BookFilterPassedThrough(t *testing.T) {
	index := indexWith(3)
	svc := newService(index, &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.Books = repository.Books([]string{"Alma", "Moroni"})

	_, err := svc.Search(context.Background(), "faith", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alma", "Moroni"}, index.lastBooks.Names())
}

func TestSearch_EmptyCandidateSetSkipsReranker(t *testing.T) {
	index := &fakeIndex{}
	rr := &fakeReranker{}
	svc := newService(index, rr, nil)

	results, err := svc.Search(context.Background(), "faith", defaultOpts())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, rr.calls)
}

func TestSearch_InvalidTopK(t *testing.T) {
	svc := newService(indexWith(3), &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.TopK = 0

	_, err := svc.Search(context.Background(), "faith", opts)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestSearch_InvalidRetrievalFactor(t *testing.T) {
	svc := newService(indexWith(3), &fakeReranker{}, nil)

	opts := defaultOpts()
	opts.RetrievalFactor = 0.5

	_, err := svc.Search(context.Background(), "faith", opts)
	assert.ErrorIs(t, err, ErrInvalidRetrievalFactor)
}

func TestSearch_EmbedderFailurePropagates(t *testing.T) {
	svc := NewRetrievalService(indexWith(3), failingEmbedder{}, &fakeReranker{}, nil)

	_, err := svc.Search(context.Background(), "faith", defaultOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service down")
}

func TestSearch_IndexFailurePropagates(t *testing.T) {
	index := &fakeIndex{err: errors.New("index unreachable")}
	svc := newService(index, &fakeReranker{}, nil)

	_, err := svc.Search(context.Background(), "faith", defaultOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unreachable")
}

func TestSearch_RerankerFailurePropagates(t *testing.T) {
	rr := &fakeReranker{err: errors.New("scoring unavailable")}
	svc := newService(indexWith(3), rr, nil)

	_, err := svc.Search(context.Background(), "faith", defaultOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring unavailable")
}

func TestAsk_GeneratesCitedAnswer(t *testing.T) {
	gen := &fakeGenerator{answer: "Faith is taught in [Genesis 1:1]."}
	svc := newService(indexWith(2), &fakeReranker{}, gen)

	resp, err := svc.Ask(context.Background(), "what is faith?", defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, "what is faith?", resp.Query)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, "Faith is taught in [Genesis 1:1].", resp.Answer)

	assert.Contains(t, gen.lastPrompt, "what is faith?")
	assert.Contains(t, gen.lastPrompt, "[Genesis 1:1] a")
	assert.Contains(t, gen.lastPrompt, "[Genesis 1:2] b")
}

func TestAsk_SearchOnlyWithoutGenerator(t *testing.T) {
	svc := newService(indexWith(2), &fakeReranker{}, nil)

	resp, err := svc.Ask(context.Background(), "what is faith?", defaultOpts())
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	assert.Empty(t, resp.Answer)
}

func TestAsk_GenerationFailureKeepsResults(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	svc := newService(indexWith(2), &fakeReranker{}, gen)

	var warnings bytes.Buffer
	svc.logger = log.New(&warnings, "", 0)

	resp, err := svc.Ask(context.Background(), "what is faith?", defaultOpts())
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	assert.Empty(t, resp.Answer)
	assert.Contains(t, warnings.String(), "model overloaded")
}

func TestAsk_NoGenerationForEmptyResults(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be produced"}
	svc := newService(&fakeIndex{}, &fakeReranker{}, gen)

	resp, err := svc.Ask(context.Background(), "what is faith?", defaultOpts())
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Answer)
	assert.Empty(t, gen.lastPrompt)
}
