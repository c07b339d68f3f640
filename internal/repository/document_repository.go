package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tutorhub/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// GetVisible returns the document if it is owned by ownerID or public.
func (r *DocumentRepository) GetVisible(ctx context.Context, id, ownerID string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND (owner_id = ? OR visibility = ?)", id, ownerID, model.VisibilityPublic).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// MarkReady transitions a document out of processing with its final token
// length.
func (r *DocumentRepository) MarkReady(ctx context.Context, id string, tokenLength int) error {
	updates := map[string]any{
		"status":        model.DocumentStatusReady,
		"token_length":  tokenLength,
		"error_message": "",
		"updated_at":    time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("mark document ready failed: %w", err)
	}
	return nil
}

// MarkError records a processing failure on the document.
func (r *DocumentRepository) MarkError(ctx context.Context, id, message string) error {
	updates := map[string]any{
		"status":        model.DocumentStatusError,
		"error_message": message,
		"updated_at":    time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("mark document error failed: %w", err)
	}
	return nil
}

// MarkProcessing resets a document for synchronous reprocessing.
func (r *DocumentRepository) MarkProcessing(ctx context.Context, id string) error {
	updates := map[string]any{
		"status":        model.DocumentStatusProcessing,
		"error_message": "",
		"updated_at":    time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("mark document processing failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
