package services

import (
	"context"
	"fmt"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"

	"github.com/scripture-rag-search-api/pkg/schema/config"
)

// VertexGenerator implements Generator using a Vertex AI publisher model
type VertexGenerator struct {
	client *aiplatform.PredictionClient
	model  string
}

// NewVertexGenerator creates a new Vertex AI answer generator
func NewVertexGenerator(ctx context.Context, cfg *config.Config) (*VertexGenerator, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is required for Vertex AI generation")
	}

	clientEndpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", cfg.GCPLocation)
	client, err := aiplatform.NewPredictionClient(ctx, option.WithEndpoint(clientEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s",
		cfg.GCPProjectID, cfg.GCPLocation, cfg.GenerationModel)

	return &VertexGenerator{
		client: client,
		model:  model,
	}, nil
}

// Close closes the Vertex AI client
func (g *VertexGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate produces answer text for the prompt
func (g *VertexGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := &aiplatformpb.GenerateContentRequest{
		Model: g.model,
		Contents: []*aiplatformpb.Content{
			{
				Role: "user",
				Parts: []*aiplatformpb.Part{
					{Data: &aiplatformpb.Part_Text{Text: prompt}},
				},
			},
		},
	}

	resp, err := g.client.GenerateContent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vertex AI generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.GetText())
	}
	answer := sb.String()
	if answer == "" {
		return "", fmt.Errorf("empty answer returned")
	}
	return answer, nil
}
