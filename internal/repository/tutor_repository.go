package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tutorhub/internal/model"
)

type TutorRepository struct {
	db *gorm.DB
}

func NewTutorRepository(db *gorm.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

func (r *TutorRepository) Create(ctx context.Context, tutor *model.Tutor) error {
	if err := r.db.WithContext(ctx).Create(tutor).Error; err != nil {
		return fmt.Errorf("create tutor failed: %w", err)
	}
	return nil
}

func (r *TutorRepository) Update(ctx context.Context, tutor *model.Tutor) error {
	if err := r.db.WithContext(ctx).Save(tutor).Error; err != nil {
		return fmt.Errorf("update tutor failed: %w", err)
	}
	return nil
}

func (r *TutorRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Tutor, error) {
	var tutor model.Tutor
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&tutor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tutor failed: %w", err)
	}
	return &tutor, nil
}

// GetVisible returns the tutor if it is owned by userID or public.
func (r *TutorRepository) GetVisible(ctx context.Context, id, userID string) (*model.Tutor, error) {
	var tutor model.Tutor
	err := r.db.WithContext(ctx).
		Where("id = ? AND (owner_id = ? OR visibility = ?)", id, userID, model.VisibilityPublic).
		First(&tutor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tutor failed: %w", err)
	}
	return &tutor, nil
}

func (r *TutorRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Tutor, error) {
	var tutors []model.Tutor
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&tutors).Error; err != nil {
		return nil, fmt.Errorf("list tutors failed: %w", err)
	}
	return tutors, nil
}

// ListPublic returns publicly visible tutors for the marketplace.
func (r *TutorRepository) ListPublic(ctx context.Context) ([]model.Tutor, error) {
	var tutors []model.Tutor
	if err := r.db.WithContext(ctx).Where("visibility = ?", model.VisibilityPublic).Order("created_at DESC").Find(&tutors).Error; err != nil {
		return nil, fmt.Errorf("list public tutors failed: %w", err)
	}
	return tutors, nil
}

func (r *TutorRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := r.db.WithContext(ctx).Where("tutor_id = ?", id).Delete(&model.TutorDocument{}).Error; err != nil {
		return fmt.Errorf("delete tutor links failed: %w", err)
	}
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Tutor{}).Error; err != nil {
		return fmt.Errorf("delete tutor failed: %w", err)
	}
	return nil
}

func (r *TutorRepository) LinkDocument(ctx context.Context, tutorID, documentID string) error {
	link := model.TutorDocument{TutorID: tutorID, DocumentID: documentID}
	err := r.db.WithContext(ctx).
		Where("tutor_id = ? AND document_id = ?", tutorID, documentID).
		FirstOrCreate(&link).Error
	if err != nil {
		return fmt.Errorf("link tutor document failed: %w", err)
	}
	return nil
}

func (r *TutorRepository) UnlinkDocument(ctx context.Context, tutorID, documentID string) error {
	err := r.db.WithContext(ctx).
		Where("tutor_id = ? AND document_id = ?", tutorID, documentID).
		Delete(&model.TutorDocument{}).Error
	if err != nil {
		return fmt.Errorf("unlink tutor document failed: %w", err)
	}
	return nil
}

// ListLinkedDocuments returns all documents linked to the tutor.
func (r *TutorRepository) ListLinkedDocuments(ctx context.Context, tutorID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Table("documents").
		Joins("JOIN tutor_documents td ON td.document_id = documents.id").
		Where("td.tutor_id = ?", tutorID).
		Order("documents.created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list linked documents failed: %w", err)
	}
	return docs, nil
}

// ListReadyLinkedDocumentIDs returns the IDs of linked documents in ready
// status, the only documents searchable for a tutor.
func (r *TutorRepository) ListReadyLinkedDocumentIDs(ctx context.Context, tutorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("documents").
		Joins("JOIN tutor_documents td ON td.document_id = documents.id").
		Where("td.tutor_id = ? AND documents.status = ?", tutorID, model.DocumentStatusReady).
		Pluck("documents.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list ready linked document ids failed: %w", err)
	}
	return ids, nil
}

// UnlinkDocumentEverywhere removes a document from all tutors, used on
// document deletion.
func (r *TutorRepository) UnlinkDocumentEverywhere(ctx context.Context, documentID string) error {
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.TutorDocument{}).Error; err != nil {
		return fmt.Errorf("unlink document everywhere failed: %w", err)
	}
	return nil
}
