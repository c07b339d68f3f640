package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"tutorhub/internal/model"
)

// DimensionMismatchError rejects a malformed query vector before it
// reaches the store, so callers can tell "query rejected" apart from
// "no matches".
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// SearchScope bounds a similarity search. DocumentIDs restricts results
// to that set; OwnerID further restricts to documents owned by that user
// or publicly visible. The OwnerID filter is the sole access-control
// mechanism for retrieval.
type SearchScope struct {
	DocumentIDs []string
	OwnerID     string
	Threshold   float32
	Limit       int
}

// RankedChunk is a retrieval candidate with its cosine similarity score.
type RankedChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Tokens     int       `json:"tokens"`
	Similarity float32   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChunkRepository persists chunk vectors and runs pgvector similarity
// queries against them.
type ChunkRepository struct {
	db  *gorm.DB
	dim int
}

func NewChunkRepository(db *gorm.DB, dim int) *ChunkRepository {
	return &ChunkRepository{db: db, dim: dim}
}

// InsertChunks appends chunk rows for a document. Embeddings may be nil;
// such chunks stay invisible to retrieval until embedded.
func (r *ChunkRepository) InsertChunks(ctx context.Context, documentID string, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for i := range chunks {
		chunks[i].DocumentID = documentID
		if chunks[i].Embedding != nil {
			if err := r.validateDimension(chunks[i].Embedding.Slice()); err != nil {
				return err
			}
		}
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		return fmt.Errorf("insert document chunks failed: %w", err)
	}
	return nil
}

// SimilaritySearch returns chunks scoring above scope.Threshold against
// the query embedding, ordered by descending cosine similarity and
// truncated to scope.Limit. Only chunks with a non-NULL embedding are
// candidates. An empty result is not an error.
func (r *ChunkRepository) SimilaritySearch(ctx context.Context, queryEmbedding []float32, scope SearchScope) ([]RankedChunk, error) {
	if err := r.validateDimension(queryEmbedding); err != nil {
		return nil, err
	}
	limit := scope.Limit
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(queryEmbedding)
	q := r.db.WithContext(ctx).
		Table("document_chunks AS c").
		Select("c.id, c.document_id, c.chunk_index, c.text, c.tokens, c.created_at, 1 - (c.embedding <=> ?) AS similarity", vec).
		Joins("JOIN documents d ON d.id = c.document_id").
		Where("c.embedding IS NOT NULL")

	if len(scope.DocumentIDs) > 0 {
		q = q.Where("c.document_id IN ?", scope.DocumentIDs)
	}
	if scope.OwnerID != "" {
		q = q.Where("(d.owner_id = ? OR d.visibility = ?)", scope.OwnerID, model.VisibilityPublic)
	}

	var results []RankedChunk
	err := q.Where("1 - (c.embedding <=> ?) > ?", vec, scope.Threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return results, nil
}

// DeleteByDocumentID removes all chunks of a document, used before
// reprocessing and on document deletion.
func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID string) error {
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error; err != nil {
		return fmt.Errorf("delete document chunks failed: %w", err)
	}
	return nil
}

// CountByDocumentID returns the number of stored chunks for a document.
func (r *ChunkRepository) CountByDocumentID(ctx context.Context, documentID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Where("document_id = ?", documentID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count document chunks failed: %w", err)
	}
	return count, nil
}

func (r *ChunkRepository) validateDimension(vec []float32) error {
	if len(vec) != r.dim {
		return &DimensionMismatchError{Want: r.dim, Got: len(vec)}
	}
	return nil
}
