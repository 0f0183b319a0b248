package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/scripture-rag-search-api/pkg/schema/config"
)

// CustomGenerator implements Generator using a custom HTTP generation service
type CustomGenerator struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewCustomGenerator creates a new custom HTTP generator
func NewCustomGenerator(cfg *config.Config) *CustomGenerator {
	return &CustomGenerator{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

type customGenerationRequest struct {
	Prompt string `json:"prompt"`
}

type customGenerationResponse struct {
	Text string `json:"text"`
}

// Generate produces answer text for the prompt
func (g *CustomGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	url := g.cfg.GenerationServiceURL + "/generate"

	jsonBody, err := json.Marshal(customGenerationRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generation service error: %s", string(body))
	}

	var genResp customGenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return genResp.Text, nil
}
