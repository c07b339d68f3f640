package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DocumentChunk is a bounded slice of a document's text. ChunkIndex is
// zero-based and contiguous within a document. Embedding stays NULL until
// the embedding call succeeds; a chunk without an embedding is never a
// retrieval candidate.
type DocumentChunk struct {
	ID         string           `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID string           `gorm:"type:uuid;not null;uniqueIndex:idx_document_chunk_index" json:"document_id"`
	ChunkIndex int              `gorm:"not null;uniqueIndex:idx_document_chunk_index" json:"chunk_index"`
	Text       string           `gorm:"type:text;not null" json:"text"`
	Tokens     int              `gorm:"not null" json:"tokens"`
	Embedding  *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (c *DocumentChunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// SetEmbedding attaches a computed vector to the chunk.
func (c *DocumentChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = nil
		return
	}
	v := pgvector.NewVector(vec)
	c.Embedding = &v
}
