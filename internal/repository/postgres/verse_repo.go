package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/scripture-rag-search-api/internal/models"
	"github.com/scripture-rag-search-api/internal/repository"
)

// Ensure VerseRepository implements repository.VerseIndex
var _ repository.VerseIndex = (*VerseRepository)(nil)

// VerseRepository implements repository.VerseIndex on PostgreSQL with pgvector
type VerseRepository struct {
	db *sqlx.DB
}

// NewVerseRepository creates a new pgvector-backed verse index
func NewVerseRepository(db *sqlx.DB) *VerseRepository {
	return &VerseRepository{db: db}
}

// UpsertVerses stores verse records with their embeddings. The verse ID is the
// primary key, so re-indexing the same verse updates the stored row instead of
// inserting a duplicate.
func (r *VerseRepository) UpsertVerses(ctx context.Context, records []models.VerseRecord, embeddings [][]float64) error {
	if len(records) != len(embeddings) {
		return fmt.Errorf("got %d records but %d embeddings", len(records), len(embeddings))
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO verses (verse_id, book, abbrev, chapter, verse, reference, section_heading, source_file, text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (verse_id) DO UPDATE SET
			book = EXCLUDED.book,
			abbrev = EXCLUDED.abbrev,
			chapter = EXCLUDED.chapter,
			verse = EXCLUDED.verse,
			reference = EXCLUDED.reference,
			section_heading = EXCLUDED.section_heading,
			source_file = EXCLUDED.source_file,
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		vec := pgvector.NewVector(float32Slice(embeddings[i]))
		if _, err := stmt.ExecContext(ctx,
			rec.ID(), rec.Book, rec.Abbrev, rec.Chapter, rec.Verse,
			rec.Reference, rec.SectionHeading, rec.SourceFile, rec.Text, vec,
		); err != nil {
			return fmt.Errorf("upsert verse %s: %w", rec.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// SearchByEmbedding performs cosine-distance nearest-neighbor search over the
// indexed verses, optionally restricted to a set of book names.
func (r *VerseRepository) SearchByEmbedding(ctx context.Context, embedding []float64, limit int, filter repository.BookFilter) (repository.QueryResult, error) {
	vec := pgvector.NewVector(float32Slice(embedding))

	query := `
		SELECT book, abbrev, chapter, verse, reference, section_heading, source_file, text,
		       embedding <=> $1::vector AS distance
		FROM verses
		WHERE embedding IS NOT NULL
	`
	args := []interface{}{vec}
	if !filter.Empty() {
		query += " AND book = ANY($2)"
		args = append(args, pq.Array(filter.Names()))
	}
	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return repository.QueryResult{}, fmt.Errorf("vector search verses: %w", err)
	}
	defer rows.Close()

	var result repository.QueryResult
	for rows.Next() {
		var meta models.VerseMeta
		var text string
		var distance float64
		if err := rows.Scan(&meta.Book, &meta.Abbrev, &meta.Chapter, &meta.Verse,
			&meta.Reference, &meta.SectionHeading, &meta.SourceFile, &text, &distance); err != nil {
			return repository.QueryResult{}, fmt.Errorf("scan verse result: %w", err)
		}
		result.Texts = append(result.Texts, text)
		result.Metadatas = append(result.Metadatas, meta)
		result.Distances = append(result.Distances, distance)
	}
	if err := rows.Err(); err != nil {
		return repository.QueryResult{}, fmt.Errorf("iterate verse results: %w", err)
	}

	return result, nil
}

// Count returns the number of indexed verses
func (r *VerseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM verses`); err != nil {
		return 0, fmt.Errorf("count verses: %w", err)
	}
	return count, nil
}

// Clear removes all indexed verses
func (r *VerseRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE verses`); err != nil {
		return fmt.Errorf("clear verses: %w", err)
	}
	return nil
}

// float32Slice converts []float64 to []float32 for pgvector
func float32Slice(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
