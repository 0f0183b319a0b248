// setup.go
//
// This script prepares the storage for the verse index. With -schema it
// creates the pgvector extension and the verses table in PostgreSQL. The
// remaining flags manage the optional Vertex AI Vector Search backend:
// create an index, create an endpoint, and deploy one to the other.
//
// Environment variables:
//   POSTGRES_URI          - PostgreSQL connection string (for -schema)
//   EMBEDDING_DIMENSIONS  - Embedding dimensionality (default: 768)
//   GCP_PROJECT_ID        - Your GCP project ID (for the Vertex AI flags)
//   VERTEX_LOCATION       - Region (default: us-central1)
//   GCS_BUCKET_URI        - Cloud Storage URI with exported embeddings
//   INDEX_DISPLAY_NAME    - Display name for the index (default: scripture-verses)
//
// Usage:
//   go run scripts/setup/main.go -schema

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/scripture-rag-search-api/pkg/schema/config"
)

func main() {
	createSchema := flag.Bool("schema", false, "Create the PostgreSQL schema")
	createIndex := flag.Bool("create-index", false, "Create a new Vertex AI index")
	createEndpoint := flag.Bool("create-endpoint", false, "Create a new Vertex AI endpoint")
	deployIndex := flag.Bool("deploy", false, "Deploy index to endpoint")
	indexID := flag.String("index-id", "", "Index ID (for deploy)")
	endpointID := flag.String("endpoint-id", "", "Endpoint ID (for deploy)")
	flag.Parse()

	godotenv.Load()

	cfg := config.GetConfig()

	ctx := context.Background()

	if *createSchema {
		setupPostgresSchema(ctx, cfg)
		return
	}

	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		projectID = os.Getenv("VERTEX_PROJECT_ID")
	}
	if projectID == "" {
		log.Fatal("GCP_PROJECT_ID or VERTEX_PROJECT_ID environment variable is required")
	}

	location := os.Getenv("VERTEX_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	gcsBucketURI := os.Getenv("GCS_BUCKET_URI")
	displayName := os.Getenv("INDEX_DISPLAY_NAME")
	if displayName == "" {
		displayName = "scripture-verses"
	}

	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)
	parent := fmt.Sprintf("projects/%s/locations/%s", projectID, location)

	switch {
	case *createIndex:
		if gcsBucketURI == "" {
			log.Fatal("GCS_BUCKET_URI is required for index creation")
		}
		createNewIndex(ctx, endpoint, parent, displayName, gcsBucketURI, cfg.EmbeddingDimensions)
	case *createEndpoint:
		createNewEndpoint(ctx, endpoint, parent, displayName)
	case *deployIndex:
		if *indexID == "" || *endpointID == "" {
			log.Fatal("--index-id and --endpoint-id are required for deployment")
		}
		deployIndexToEndpoint(ctx, endpoint, parent, *indexID, *endpointID, displayName)
	default:
		fmt.Println("Scripture Verse Index Setup")
		fmt.Println("===========================")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  PostgreSQL schema:  go run scripts/setup/main.go -schema")
		fmt.Println("  Create index:       go run scripts/setup/main.go -create-index")
		fmt.Println("  Create endpoint:    go run scripts/setup/main.go -create-endpoint")
		fmt.Println("  Deploy:             go run scripts/setup/main.go -deploy -index-id=XXX -endpoint-id=YYY")
		fmt.Println()
		fmt.Println("Current configuration:")
		fmt.Printf("  Project ID:     %s\n", projectID)
		fmt.Printf("  Location:       %s\n", location)
		fmt.Printf("  GCS Bucket URI: %s\n", gcsBucketURI)
		fmt.Printf("  Display Name:   %s\n", displayName)
		fmt.Printf("  Dimensions:     %d\n", cfg.EmbeddingDimensions)
	}
}

func setupPostgresSchema(ctx context.Context, cfg *config.Config) {
	if cfg.PostgresURI == "" {
		log.Fatal("POSTGRES_URI environment variable is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS verses (
			verse_id        TEXT PRIMARY KEY,
			book            TEXT NOT NULL,
			abbrev          TEXT NOT NULL,
			chapter         INT  NOT NULL,
			verse           INT  NOT NULL,
			reference       TEXT NOT NULL,
			section_heading TEXT NOT NULL DEFAULT '',
			source_file     TEXT NOT NULL DEFAULT '',
			text            TEXT NOT NULL,
			embedding       vector(%d)
		)`, cfg.EmbeddingDimensions),
		`CREATE INDEX IF NOT EXISTS idx_verses_book ON verses (book)`,
		`CREATE INDEX IF NOT EXISTS idx_verses_embedding ON verses
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("Failed to execute schema statement: %v\n%s", err, stmt)
		}
	}

	log.Println("PostgreSQL schema ready")
}

func createNewIndex(ctx context.Context, endpoint, parent, displayName, gcsBucketURI string, dimensions int) {
	log.Printf("Creating Vertex AI Vector Search index...")
	log.Printf("  Parent: %s", parent)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  GCS URI: %s", gcsBucketURI)
	log.Printf("  Dimensions: %d", dimensions)

	client, err := aiplatform.NewIndexClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		log.Fatalf("Failed to create index client: %v", err)
	}
	defer client.Close()

	// The metadata has a nested "config" structure with algorithmConfig required
	treeAhConfig, _ := structpb.NewStruct(map[string]interface{}{
		"leafNodeEmbeddingCount":   1000,
		"leafNodesToSearchPercent": 5,
	})

	algorithmConfig, _ := structpb.NewStruct(map[string]interface{}{
		"treeAhConfig": treeAhConfig.AsMap(),
	})

	configStruct, _ := structpb.NewStruct(map[string]interface{}{
		"dimensions":                dimensions,
		"approximateNeighborsCount": 150,
		"distanceMeasureType":       "COSINE_DISTANCE",
		"algorithmConfig":           algorithmConfig.AsMap(),
	})

	indexConfig, _ := structpb.NewStruct(map[string]interface{}{
		"contentsDeltaUri": gcsBucketURI,
		"config":           configStruct.AsMap(),
	})

	req := &aiplatformpb.CreateIndexRequest{
		Parent: parent,
		Index: &aiplatformpb.Index{
			DisplayName:       displayName,
			Description:       "Verse embeddings for scripture semantic search",
			Metadata:          structpb.NewStructValue(indexConfig),
			IndexUpdateMethod: aiplatformpb.Index_STREAM_UPDATE,
		},
	}

	op, err := client.CreateIndex(ctx, req)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}

	log.Printf("Index creation started. Operation: %s", op.Name())
	log.Printf("This may take 30-60 minutes. You can check status in the GCP Console.")
	log.Println()
	log.Println("Waiting for index creation to complete...")

	index, err := op.Wait(ctx)
	if err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}

	log.Printf("Index created successfully!")
	log.Printf("  Index Name: %s", index.Name)
	log.Printf("  Index ID: %s", extractID(index.Name))
	log.Println()
	log.Println("Next step: Create an endpoint:")
	log.Println("  go run scripts/setup/main.go -create-endpoint")
}

func createNewEndpoint(ctx context.Context, endpoint, parent, displayName string) {
	log.Printf("Creating Vertex AI Vector Search endpoint...")
	log.Printf("  Parent: %s", parent)

	client, err := aiplatform.NewIndexEndpointClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		log.Fatalf("Failed to create endpoint client: %v", err)
	}
	defer client.Close()

	req := &aiplatformpb.CreateIndexEndpointRequest{
		Parent: parent,
		IndexEndpoint: &aiplatformpb.IndexEndpoint{
			DisplayName:           displayName + "-endpoint",
			Description:           "Public endpoint for scripture verse search",
			PublicEndpointEnabled: true,
		},
	}

	op, err := client.CreateIndexEndpoint(ctx, req)
	if err != nil {
		log.Fatalf("Failed to create endpoint: %v", err)
	}

	log.Printf("Endpoint creation started. Operation: %s", op.Name())
	log.Println("Waiting for endpoint creation...")

	indexEndpoint, err := op.Wait(ctx)
	if err != nil {
		log.Fatalf("Endpoint creation failed: %v", err)
	}

	log.Printf("Endpoint created successfully!")
	log.Printf("  Endpoint Name: %s", indexEndpoint.Name)
	log.Printf("  Endpoint ID: %s", extractID(indexEndpoint.Name))
	log.Printf("  Public Domain: %s", indexEndpoint.PublicEndpointDomainName)
	log.Println()
	log.Println("Next step: Deploy the index to the endpoint:")
	log.Printf("  go run scripts/setup/main.go -deploy -index-id=<INDEX_ID> -endpoint-id=%s", extractID(indexEndpoint.Name))
}

func deployIndexToEndpoint(ctx context.Context, endpoint, parent, indexID, endpointID, displayName string) {
	log.Printf("Deploying index to endpoint...")
	log.Printf("  Index ID: %s", indexID)
	log.Printf("  Endpoint ID: %s", endpointID)

	client, err := aiplatform.NewIndexEndpointClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		log.Fatalf("Failed to create endpoint client: %v", err)
	}
	defer client.Close()

	indexEndpointName := fmt.Sprintf("%s/indexEndpoints/%s", parent, endpointID)
	indexName := fmt.Sprintf("%s/indexes/%s", parent, indexID)

	// Deployed index IDs must start with a letter and contain only
	// letters/numbers/underscores
	sanitizedName := strings.ReplaceAll(displayName, "-", "_")
	deployedIndexID := fmt.Sprintf("deployed_%s_%d", sanitizedName, time.Now().Unix())

	req := &aiplatformpb.DeployIndexRequest{
		IndexEndpoint: indexEndpointName,
		DeployedIndex: &aiplatformpb.DeployedIndex{
			Id:    deployedIndexID,
			Index: indexName,
			AutomaticResources: &aiplatformpb.AutomaticResources{
				MinReplicaCount: 1,
				MaxReplicaCount: 2,
			},
		},
	}

	op, err := client.DeployIndex(ctx, req)
	if err != nil {
		log.Fatalf("Failed to deploy index: %v", err)
	}

	log.Printf("Deployment started. Operation: %s", op.Name())
	log.Println("This may take 20-30 minutes. Waiting...")

	resp, err := op.Wait(ctx)
	if err != nil {
		log.Fatalf("Deployment failed: %v", err)
	}

	log.Printf("Index deployed successfully!")
	log.Println()
	log.Println("Add these to your .env file:")
	log.Printf("  VERTEX_INDEX_ENDPOINT_ID=%s", endpointID)
	log.Printf("  VERTEX_DEPLOYED_INDEX_ID=%s", deployedIndexID)
	log.Println()
	log.Printf("Deployed index: %+v", resp.DeployedIndex)
}

func extractID(resourceName string) string {
	// Resource names are like: projects/X/locations/Y/indexes/Z
	for i := len(resourceName) - 1; i >= 0; i-- {
		if resourceName[i] == '/' {
			return resourceName[i+1:]
		}
	}
	return resourceName
}
