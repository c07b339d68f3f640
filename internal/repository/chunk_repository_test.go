package repository

import (
	"context"
	"errors"
	"testing"

	"tutorhub/internal/model"
)

func TestInsertChunksRejectsWrongDimension(t *testing.T) {
	repo := NewChunkRepository(nil, 3)

	chunk := model.DocumentChunk{DocumentID: "d1", ChunkIndex: 0, Text: "x"}
	chunk.SetEmbedding([]float32{0.1, 0.2})

	err := repo.InsertChunks(context.Background(), "d1", []model.DocumentChunk{chunk})
	var dimErr *DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("InsertChunks error = %v, want DimensionMismatchError", err)
	}
	if dimErr.Want != 3 || dimErr.Got != 2 {
		t.Fatalf("mismatch = want %d got %d", dimErr.Want, dimErr.Got)
	}
}

func TestSimilaritySearchRejectsWrongDimension(t *testing.T) {
	repo := NewChunkRepository(nil, 1536)

	_, err := repo.SimilaritySearch(context.Background(), []float32{0.1, 0.2, 0.3}, SearchScope{})
	var dimErr *DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("SimilaritySearch error = %v, want DimensionMismatchError", err)
	}
}

func TestInsertChunksEmptySliceIsNoop(t *testing.T) {
	repo := NewChunkRepository(nil, 1536)
	if err := repo.InsertChunks(context.Background(), "d1", nil); err != nil {
		t.Fatalf("InsertChunks(nil) = %v, want nil", err)
	}
}
