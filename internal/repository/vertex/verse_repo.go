package vertex

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/jmoiron/sqlx"
	"google.golang.org/api/option"

	"github.com/scripture-rag-search-api/internal/models"
	"github.com/scripture-rag-search-api/internal/repository"
	"github.com/scripture-rag-search-api/internal/repository/postgres"
)

// Ensure VerseRepository implements repository.VerseIndex
var _ repository.VerseIndex = (*VerseRepository)(nil)

const upsertBatchSize = 100

// Config holds Vertex AI Vector Search configuration
type Config struct {
	ProjectID            string // GCP project ID
	Location             string // e.g., "us-central1"
	IndexID              string // Index ID for streaming upserts
	IndexEndpointID      string // Deployed index endpoint ID
	DeployedIndexID      string // The deployed index ID within the endpoint
	PublicEndpointDomain string // Public endpoint domain for queries (e.g., "123.us-central1-456.vdb.vertexai.goog")
}

// VerseRepository implements repository.VerseIndex using Vertex AI Vector
// Search for the nearest-neighbor queries. Verse text and metadata live in
// PostgreSQL; the deployed index stores only datapoints keyed by verse ID with
// a "book" restrict namespace, so book filtering happens inside the index.
type VerseRepository struct {
	config      Config
	matchClient *aiplatform.MatchClient
	indexClient *aiplatform.IndexClient
	db          *sqlx.DB
	metadata    *postgres.VerseRepository
}

// NewVerseRepository creates a new Vertex AI verse index
func NewVerseRepository(ctx context.Context, config Config, db *sqlx.DB) (*VerseRepository, error) {
	// For public endpoints, use the public domain; otherwise use regional endpoint
	var matchEndpoint string
	if config.PublicEndpointDomain != "" {
		matchEndpoint = fmt.Sprintf("%s:443", config.PublicEndpointDomain)
	} else {
		matchEndpoint = fmt.Sprintf("%s-aiplatform.googleapis.com:443", config.Location)
	}

	matchClient, err := aiplatform.NewMatchClient(ctx, option.WithEndpoint(matchEndpoint))
	if err != nil {
		return nil, fmt.Errorf("create match client: %w", err)
	}

	regionalEndpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", config.Location)
	indexClient, err := aiplatform.NewIndexClient(ctx, option.WithEndpoint(regionalEndpoint))
	if err != nil {
		matchClient.Close()
		return nil, fmt.Errorf("create index client: %w", err)
	}

	return &VerseRepository{
		config:      config,
		matchClient: matchClient,
		indexClient: indexClient,
		db:          db,
		metadata:    postgres.NewVerseRepository(db),
	}, nil
}

// Close closes the Vertex AI clients
func (r *VerseRepository) Close() error {
	var firstErr error
	if r.matchClient != nil {
		firstErr = r.matchClient.Close()
	}
	if r.indexClient != nil {
		if err := r.indexClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// UpsertVerses stores metadata rows in PostgreSQL and streams the embeddings
// to the Vertex AI index. Datapoint IDs are the verse IDs, so re-indexing a
// verse overwrites its datapoint.
func (r *VerseRepository) UpsertVerses(ctx context.Context, records []models.VerseRecord, embeddings [][]float64) error {
	if err := r.metadata.UpsertVerses(ctx, records, embeddings); err != nil {
		return err
	}

	indexName := fmt.Sprintf("projects/%s/locations/%s/indexes/%s",
		r.config.ProjectID, r.config.Location, r.config.IndexID)

	var batch []*aiplatformpb.IndexDatapoint
	for i, rec := range records {
		vector := make([]float32, len(embeddings[i]))
		for j, v := range embeddings[i] {
			vector[j] = float32(v)
		}
		batch = append(batch, &aiplatformpb.IndexDatapoint{
			DatapointId:   rec.ID(),
			FeatureVector: vector,
			Restricts: []*aiplatformpb.IndexDatapoint_Restriction{
				{
					Namespace: "book",
					AllowList: []string{rec.Book},
				},
			},
		})

		if len(batch) >= upsertBatchSize {
			if err := r.upsertBatch(ctx, indexName, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := r.upsertBatch(ctx, indexName, batch); err != nil {
			return err
		}
	}

	return nil
}

func (r *VerseRepository) upsertBatch(ctx context.Context, indexName string, batch []*aiplatformpb.IndexDatapoint) error {
	_, err := r.indexClient.UpsertDatapoints(ctx, &aiplatformpb.UpsertDatapointsRequest{
		Index:      indexName,
		Datapoints: batch,
	})
	if err != nil {
		return fmt.Errorf("upsert datapoints: %w", err)
	}
	return nil
}

// SearchByEmbedding performs nearest-neighbor search via FindNeighbors, then
// hydrates verse text and metadata from PostgreSQL preserving the index order.
func (r *VerseRepository) SearchByEmbedding(ctx context.Context, embedding []float64, limit int, filter repository.BookFilter) (repository.QueryResult, error) {
	indexEndpoint := fmt.Sprintf(
		"projects/%s/locations/%s/indexEndpoints/%s",
		r.config.ProjectID,
		r.config.Location,
		r.config.IndexEndpointID,
	)

	featureVector := make([]float32, len(embedding))
	for i, v := range embedding {
		featureVector[i] = float32(v)
	}

	query := &aiplatformpb.FindNeighborsRequest_Query{
		Datapoint: &aiplatformpb.IndexDatapoint{
			FeatureVector: featureVector,
		},
		NeighborCount: int32(limit),
	}
	if !filter.Empty() {
		query.Datapoint.Restricts = []*aiplatformpb.IndexDatapoint_Restriction{
			{
				Namespace: "book",
				AllowList: filter.Names(),
			},
		}
	}

	resp, err := r.matchClient.FindNeighbors(ctx, &aiplatformpb.FindNeighborsRequest{
		IndexEndpoint:   indexEndpoint,
		DeployedIndexId: r.config.DeployedIndexID,
		Queries:         []*aiplatformpb.FindNeighborsRequest_Query{query},
	})
	if err != nil {
		return repository.QueryResult{}, fmt.Errorf("find neighbors: %w", err)
	}

	if len(resp.NearestNeighbors) == 0 || len(resp.NearestNeighbors[0].Neighbors) == 0 {
		return repository.QueryResult{}, nil
	}

	neighbors := resp.NearestNeighbors[0].Neighbors
	verseIDs := make([]string, len(neighbors))
	distances := make(map[string]float64, len(neighbors))
	for i, neighbor := range neighbors {
		verseID := neighbor.Datapoint.DatapointId
		verseIDs[i] = verseID
		distances[verseID] = float64(neighbor.Distance)
	}

	return r.lookupVerses(ctx, verseIDs, distances)
}

// lookupVerses retrieves verse rows from PostgreSQL for the given IDs,
// returning them in the order of verseIDs.
func (r *VerseRepository) lookupVerses(ctx context.Context, verseIDs []string, distances map[string]float64) (repository.QueryResult, error) {
	query, args, err := sqlx.In(`
		SELECT verse_id, book, abbrev, chapter, verse, reference, section_heading, source_file, text
		FROM verses
		WHERE verse_id IN (?)
	`, verseIDs)
	if err != nil {
		return repository.QueryResult{}, fmt.Errorf("build IN query: %w", err)
	}
	query = r.db.Rebind(query)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return repository.QueryResult{}, fmt.Errorf("query verses: %w", err)
	}
	defer rows.Close()

	type hit struct {
		meta models.VerseMeta
		text string
	}
	hits := make(map[string]hit, len(verseIDs))
	for rows.Next() {
		var id, text string
		var meta models.VerseMeta
		if err := rows.Scan(&id, &meta.Book, &meta.Abbrev, &meta.Chapter, &meta.Verse,
			&meta.Reference, &meta.SectionHeading, &meta.SourceFile, &text); err != nil {
			return repository.QueryResult{}, fmt.Errorf("scan verse: %w", err)
		}
		hits[id] = hit{meta: meta, text: text}
	}
	if err := rows.Err(); err != nil {
		return repository.QueryResult{}, fmt.Errorf("iterate verses: %w", err)
	}

	// Preserve the nearest-neighbor order from Vertex AI
	var result repository.QueryResult
	for _, id := range verseIDs {
		h, ok := hits[id]
		if !ok {
			continue
		}
		result.Texts = append(result.Texts, h.text)
		result.Metadatas = append(result.Metadatas, h.meta)
		result.Distances = append(result.Distances, distances[id])
	}
	return result, nil
}

// Count returns the number of indexed verses
func (r *VerseRepository) Count(ctx context.Context) (int, error) {
	return r.metadata.Count(ctx)
}

// Clear removes the PostgreSQL verse rows. The deployed Vertex AI index is
// rebuilt from a fresh JSONL export rather than purged datapoint by datapoint.
func (r *VerseRepository) Clear(ctx context.Context) error {
	return r.metadata.Clear(ctx)
}
