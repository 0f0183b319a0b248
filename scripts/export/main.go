// export.go
//
// This script exports verse embeddings from PostgreSQL to a JSONL file in
// the format Vertex AI Vector Search expects for batch index creation. Each
// line is a datapoint with the verse ID, its embedding, and a "book"
// restrict so searches can be filtered by book. Upload the output to the
// GCS bucket referenced by GCS_BUCKET_URI before running setup -create-index.
//
// Usage:
//   go run scripts/export/main.go -output embeddings.json

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/scripture-rag-search-api/pkg/schema/config"
)

// DataPoint is the JSONL record format for Vertex AI Vector Search.
type DataPoint struct {
	ID        string     `json:"id"`
	Embedding []float32  `json:"embedding"`
	Restricts []Restrict `json:"restricts,omitempty"`
}

// Restrict is a namespace filter attached to a datapoint.
type Restrict struct {
	Namespace string   `json:"namespace"`
	Allow     []string `json:"allow,omitempty"`
}

type verseRow struct {
	VerseID   string `db:"verse_id"`
	Book      string `db:"book"`
	Embedding string `db:"embedding"`
}

func main() {
	output := flag.String("output", "embeddings.json", "Output JSONL file path")
	flag.Parse()

	godotenv.Load()

	cfg := config.GetConfig()
	if cfg.PostgresURI == "" {
		log.Fatal("POSTGRES_URI environment variable is required")
	}

	ctx := context.Background()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var rows []verseRow
	err = db.SelectContext(ctx, &rows,
		`SELECT verse_id, book, embedding::text AS embedding
		 FROM verses
		 WHERE embedding IS NOT NULL
		 ORDER BY verse_id`)
	if err != nil {
		log.Fatalf("Failed to query verses: %v", err)
	}
	if len(rows) == 0 {
		log.Fatal("No verses with embeddings found. Run scripts/index first.")
	}
	log.Printf("Exporting %d verse embeddings", len(rows))

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	exported := 0
	for _, row := range rows {
		embedding, err := parseEmbedding(row.Embedding)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", row.VerseID, err)
			continue
		}

		dp := DataPoint{
			ID:        row.VerseID,
			Embedding: embedding,
			Restricts: []Restrict{
				{Namespace: "book", Allow: []string{row.Book}},
			},
		}
		if err := enc.Encode(dp); err != nil {
			log.Fatalf("Failed to write datapoint %s: %v", row.VerseID, err)
		}
		exported++
	}

	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to flush output: %v", err)
	}

	log.Printf("Wrote %d datapoints to %s", exported, *output)
	log.Println()
	log.Println("Next steps:")
	log.Printf("  gsutil cp %s ${GCS_BUCKET_URI}/", *output)
	log.Println("  go run scripts/setup/main.go -create-index")
}

// parseEmbedding converts pgvector's text representation "[0.1,0.2,...]"
// into a float32 slice.
func parseEmbedding(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("unexpected embedding format")
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	embedding := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse component %d: %w", i, err)
		}
		embedding[i] = float32(v)
	}
	return embedding, nil
}
