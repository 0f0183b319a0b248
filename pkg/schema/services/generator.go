package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/scripture-rag-search-api/pkg/schema/config"
)

// Generator defines the interface for answer generation
type Generator interface {
	// Generate produces free-form answer text for the prompt
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	generator        Generator
	generatorOnce    sync.Once
	generatorInitErr error
)

// GetGenerator returns the singleton answer generator, or nil when generation
// is not configured (GENERATION_PROVIDER=none). Callers treat a nil generator
// as search-only mode.
func GetGenerator() Generator {
	generatorOnce.Do(func() {
		cfg := config.GetConfig()

		switch cfg.GenerationProvider {
		case "vertex":
			g, err := NewVertexGenerator(context.Background(), cfg)
			if err != nil {
				generatorInitErr = fmt.Errorf("failed to create Vertex AI generator: %w", err)
				return
			}
			generator = g
		case "custom":
			generator = NewCustomGenerator(cfg)
		default:
			// search-only mode
		}
	})
	return generator
}

// GetGeneratorInitError returns any error that occurred during initialization
func GetGeneratorInitError() error {
	return generatorInitErr
}
