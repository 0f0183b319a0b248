package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPScorer implements Scorer against a cross-encoder scoring service
type HTTPScorer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPScorer creates a scorer that calls the service at baseURL
func NewHTTPScorer(baseURL string) *HTTPScorer {
	return &HTTPScorer{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// Score returns one relevance score per query-document pair
func (s *HTTPScorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	url := s.baseURL + "/rerank"

	jsonBody, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: documents,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call reranker service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reranker service error: %s", string(body))
	}

	var rr rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return rr.Scores, nil
}
