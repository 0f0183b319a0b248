// index.go
//
// This script populates the verse index from the scripture corpus. It parses
// every .txt file under the assets directory, embeds the verse texts in
// batches, and upserts the records into the configured vector backend
// (pgvector or Vertex AI Vector Search). Verse IDs are derived from the
// reference, so re-running the script overwrites rather than duplicates.
//
// Environment variables:
//   POSTGRES_URI          - PostgreSQL connection string
//   VECTOR_BACKEND        - "pgvector" (default) or "vertex"
//   EMBEDDING_PROVIDER    - "vertex" or "custom"
//
// Usage:
//   go run scripts/index/main.go -assets ./assets -contents ./assets/contents.txt
//   go run scripts/index/main.go -append   # keep existing rows

package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/scripture-rag-search-api/internal/config"
	"github.com/scripture-rag-search-api/internal/models"
	"github.com/scripture-rag-search-api/internal/repository"
	"github.com/scripture-rag-search-api/internal/repository/postgres"
	"github.com/scripture-rag-search-api/internal/repository/vertex"
	"github.com/scripture-rag-search-api/internal/scripture"
	"github.com/scripture-rag-search-api/pkg/schema/db"
	pkgservices "github.com/scripture-rag-search-api/pkg/schema/services"
)

const embedBatchSize = 100

func main() {
	godotenv.Load()

	cfg := config.GetConfig()

	assetsDir := flag.String("assets", cfg.AssetsDir, "Directory containing scripture text files")
	contentsFile := flag.String("contents", cfg.ContentsFile, "Table of contents file with book abbreviations")
	appendMode := flag.Bool("append", false, "Keep existing rows instead of clearing the index first")
	flag.Parse()

	ctx := context.Background()

	mapping, err := scripture.LoadBookMapping(*contentsFile)
	if err != nil {
		log.Printf("Warning: could not load book mapping from %s: %v", *contentsFile, err)
		log.Println("Book names will fall back to their abbreviations")
		mapping = scripture.BookMapping{}
	}

	loader := scripture.NewLoader(mapping)
	records, err := loader.LoadDir(*assetsDir)
	if err != nil {
		log.Fatalf("Failed to load corpus from %s: %v", *assetsDir, err)
	}
	if len(records) == 0 {
		log.Fatalf("No verses found under %s", *assetsDir)
	}
	log.Printf("Parsed %d verses from %s", len(records), *assetsDir)

	if err := db.InitPostgres(ctx); err != nil {
		log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	defer db.ClosePostgres()

	pgDB := db.GetPostgres()
	var verseIndex repository.VerseIndex

	switch cfg.VectorBackend {
	case "vertex":
		log.Println("Using Vertex AI Vector Search backend")
		vertexRepo, err := vertex.NewVerseRepository(ctx, vertex.Config{
			ProjectID:            cfg.VertexProjectID,
			Location:             cfg.VertexLocation,
			IndexID:              cfg.VertexIndexID,
			IndexEndpointID:      cfg.VertexIndexEndpointID,
			DeployedIndexID:      cfg.VertexDeployedIndexID,
			PublicEndpointDomain: cfg.VertexPublicEndpointDomain,
		}, pgDB)
		if err != nil {
			log.Fatalf("Failed to create Vertex AI verse index: %v", err)
		}
		defer vertexRepo.Close()
		verseIndex = vertexRepo
	default:
		log.Println("Using pgvector backend")
		verseIndex = postgres.NewVerseRepository(pgDB)
	}

	embeddingsSvc := pkgservices.GetEmbeddingsService()
	if err := pkgservices.GetInitError(); err != nil {
		log.Fatalf("Failed to initialize embeddings service: %v", err)
	}

	if !*appendMode {
		log.Println("Clearing existing verses...")
		if err := verseIndex.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear index: %v", err)
		}
	}

	indexed := 0
	for start := 0; start < len(records); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		embeddings, err := embeddingsSvc.EmbedVerses(ctx, verseTexts(batch))
		if err != nil {
			log.Fatalf("Failed to embed batch starting at %d: %v", start, err)
		}

		if err := verseIndex.UpsertVerses(ctx, batch, embeddings); err != nil {
			log.Fatalf("Failed to upsert batch starting at %d: %v", start, err)
		}

		indexed += len(batch)
		log.Printf("Indexed %d/%d verses", indexed, len(records))
	}

	count, err := verseIndex.Count(ctx)
	if err != nil {
		log.Printf("Warning: could not count indexed verses: %v", err)
	} else {
		log.Printf("Index now holds %d verses", count)
	}
	log.Println("Done")
}

func verseTexts(records []models.VerseRecord) []string {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	return texts
}
