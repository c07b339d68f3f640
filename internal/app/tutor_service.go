package app

import (
	"context"
	"strings"

	"tutorhub/internal/model"
	"tutorhub/internal/repository"
)

// Bounds for tutor completion parameters.
const (
	maxTutorTemperature  = 2.0
	maxTutorTokens       = 4096
	maxTutorChunks       = 50
	defaultTutorModel    = "gpt-4"
	defaultMaxTokens     = 1000
	defaultContextChunks = 10
	defaultThreshold     = 0.1
)

// TutorService manages tutor personas, their document links and the
// public marketplace listing. New tutors that name no model fall back to
// defaultModel, the deployment's configured chat model.
type TutorService struct {
	tutorRepo    *repository.TutorRepository
	docRepo      *repository.DocumentRepository
	defaultModel string
}

type TutorInput struct {
	Name                string
	SystemPrompt        string
	Model               string
	Temperature         *float32
	MaxTokens           *int
	UseRAG              *bool
	MaxContextChunks    *int
	SimilarityThreshold *float32
	Visibility          string
}

func NewTutorService(tutorRepo *repository.TutorRepository, docRepo *repository.DocumentRepository, defaultModel string) *TutorService {
	if defaultModel == "" {
		defaultModel = defaultTutorModel
	}
	return &TutorService{tutorRepo: tutorRepo, docRepo: docRepo, defaultModel: defaultModel}
}

func (s *TutorService) Create(ctx context.Context, ownerID string, input TutorInput) (*model.Tutor, error) {
	tutor := &model.Tutor{
		OwnerID:             ownerID,
		Model:               s.defaultModel,
		Temperature:         0.7,
		MaxTokens:           defaultMaxTokens,
		UseRAG:              true,
		MaxContextChunks:    defaultContextChunks,
		SimilarityThreshold: defaultThreshold,
		Visibility:          model.VisibilityPrivate,
	}
	if err := applyTutorInput(tutor, input); err != nil {
		return nil, err
	}
	if tutor.Name == "" || tutor.SystemPrompt == "" {
		return nil, ErrInvalidInput
	}
	if err := s.tutorRepo.Create(ctx, tutor); err != nil {
		return nil, err
	}
	return tutor, nil
}

func (s *TutorService) Update(ctx context.Context, id, ownerID string, input TutorInput) (*model.Tutor, error) {
	tutor, err := s.tutorRepo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if tutor == nil {
		return nil, ErrNotFound
	}
	if err := applyTutorInput(tutor, input); err != nil {
		return nil, err
	}
	if tutor.Name == "" || tutor.SystemPrompt == "" {
		return nil, ErrInvalidInput
	}
	if err := s.tutorRepo.Update(ctx, tutor); err != nil {
		return nil, err
	}
	return tutor, nil
}

// applyTutorInput overlays the provided fields, validating bounds.
// Pointer fields distinguish "not provided" from zero values.
func applyTutorInput(tutor *model.Tutor, input TutorInput) error {
	if name := strings.TrimSpace(input.Name); name != "" {
		tutor.Name = name
	}
	if prompt := strings.TrimSpace(input.SystemPrompt); prompt != "" {
		tutor.SystemPrompt = prompt
	}
	if m := strings.TrimSpace(input.Model); m != "" {
		tutor.Model = m
	}
	if input.Temperature != nil {
		if *input.Temperature < 0 || *input.Temperature > maxTutorTemperature {
			return ErrInvalidInput
		}
		tutor.Temperature = *input.Temperature
	}
	if input.MaxTokens != nil {
		if *input.MaxTokens <= 0 || *input.MaxTokens > maxTutorTokens {
			return ErrInvalidInput
		}
		tutor.MaxTokens = *input.MaxTokens
	}
	if input.UseRAG != nil {
		tutor.UseRAG = *input.UseRAG
	}
	if input.MaxContextChunks != nil {
		if *input.MaxContextChunks <= 0 || *input.MaxContextChunks > maxTutorChunks {
			return ErrInvalidInput
		}
		tutor.MaxContextChunks = *input.MaxContextChunks
	}
	if input.SimilarityThreshold != nil {
		if *input.SimilarityThreshold < 0 || *input.SimilarityThreshold > 1 {
			return ErrInvalidInput
		}
		tutor.SimilarityThreshold = *input.SimilarityThreshold
	}
	if v := input.Visibility; v != "" {
		if v != model.VisibilityPrivate && v != model.VisibilityPublic {
			return ErrInvalidInput
		}
		tutor.Visibility = v
	}
	return nil
}

// Get returns a tutor the user owns or any public tutor.
func (s *TutorService) Get(ctx context.Context, id, userID string) (*model.Tutor, error) {
	tutor, err := s.tutorRepo.GetVisible(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if tutor == nil {
		return nil, ErrNotFound
	}
	return tutor, nil
}

func (s *TutorService) ListOwned(ctx context.Context, ownerID string) ([]model.Tutor, error) {
	return s.tutorRepo.ListByOwner(ctx, ownerID)
}

// ListPublic is the marketplace listing of public tutors.
func (s *TutorService) ListPublic(ctx context.Context) ([]model.Tutor, error) {
	return s.tutorRepo.ListPublic(ctx)
}

func (s *TutorService) Delete(ctx context.Context, id, ownerID string) error {
	tutor, err := s.tutorRepo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if tutor == nil {
		return ErrNotFound
	}
	return s.tutorRepo.Delete(ctx, id, ownerID)
}

// LinkDocument attaches a document to a tutor's knowledge base. The
// caller must own the tutor and be able to see the document, which must
// have finished processing.
func (s *TutorService) LinkDocument(ctx context.Context, tutorID, documentID, userID string) error {
	tutor, err := s.tutorRepo.GetByIDAndOwner(ctx, tutorID, userID)
	if err != nil {
		return err
	}
	if tutor == nil {
		return ErrNotFound
	}

	doc, err := s.docRepo.GetVisible(ctx, documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	if doc.Status != model.DocumentStatusReady {
		return ErrInvalidInput
	}
	return s.tutorRepo.LinkDocument(ctx, tutorID, documentID)
}

func (s *TutorService) UnlinkDocument(ctx context.Context, tutorID, documentID, userID string) error {
	tutor, err := s.tutorRepo.GetByIDAndOwner(ctx, tutorID, userID)
	if err != nil {
		return err
	}
	if tutor == nil {
		return ErrNotFound
	}
	return s.tutorRepo.UnlinkDocument(ctx, tutorID, documentID)
}

// ListDocuments returns the documents linked to a tutor the user can see.
func (s *TutorService) ListDocuments(ctx context.Context, tutorID, userID string) ([]model.Document, error) {
	tutor, err := s.tutorRepo.GetVisible(ctx, tutorID, userID)
	if err != nil {
		return nil, err
	}
	if tutor == nil {
		return nil, ErrNotFound
	}
	return s.tutorRepo.ListLinkedDocuments(ctx, tutorID)
}
