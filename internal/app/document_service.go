package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tutorhub/internal/ai"
	"tutorhub/internal/chunker"
	"tutorhub/internal/model"
	"tutorhub/internal/repository"
)

// embedBatchSize bounds how many chunk texts go into one embedding call.
const embedBatchSize = 100

// BatchEmbedder mirrors the batch embedding side of the ai client.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, model string) ([]ai.Embedding, error)
}

// UsageRecorder accepts usage events for asynchronous persistence.
type UsageRecorder interface {
	Publish(ctx context.Context, event model.UsageEvent) error
}

// DocumentService owns the ingestion pipeline: extracted text is chunked,
// embedded in batches and stored, and the document moves through
// processing, ready or error. The extracted text is kept on the document
// so reprocessing never needs the original file.
type DocumentService struct {
	docRepo        *repository.DocumentRepository
	chunkRepo      *repository.ChunkRepository
	tutorRepo      *repository.TutorRepository
	embedder       BatchEmbedder
	usage          UsageRecorder
	chunkOpts      chunker.Options
	embeddingModel string
	log            *zap.Logger
}

type IngestInput struct {
	OwnerID    string
	Title      string
	Text       string
	MimeType   string
	Visibility string
	FileName   string
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	tutorRepo *repository.TutorRepository,
	embedder BatchEmbedder,
	usage UsageRecorder,
	chunkOpts chunker.Options,
	embeddingModel string,
	log *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:        docRepo,
		chunkRepo:      chunkRepo,
		tutorRepo:      tutorRepo,
		embedder:       embedder,
		usage:          usage,
		chunkOpts:      chunkOpts,
		embeddingModel: embeddingModel,
		log:            log,
	}
}

// Ingest creates the document and runs the pipeline synchronously. A
// pipeline failure is not returned as an error: it is recorded on the
// document, whose status tells the caller what happened.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*model.Document, error) {
	doc, err := newDocumentForIngest(input)
	if err != nil {
		return nil, err
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.process(ctx, doc)
	return doc, nil
}

// newDocumentForIngest validates the input and builds the document in
// processing state. FileName, when the text came from an upload, is kept
// as the storage path so the original name survives on the record.
func newDocumentForIngest(input IngestInput) (*model.Document, error) {
	title := strings.TrimSpace(input.Title)
	text := strings.TrimSpace(input.Text)
	if input.OwnerID == "" || title == "" {
		return nil, ErrInvalidInput
	}
	if text == "" {
		return nil, chunker.ErrEmptyInput
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	if visibility != model.VisibilityPrivate && visibility != model.VisibilityPublic {
		return nil, ErrInvalidInput
	}

	return &model.Document{
		OwnerID:     input.OwnerID,
		Title:       title,
		MimeType:    input.MimeType,
		StoragePath: strings.TrimSpace(input.FileName),
		Status:      model.DocumentStatusProcessing,
		Visibility:  visibility,
		Content:     text,
	}, nil
}

// Reprocess re-runs chunking and embedding from the stored text, first
// discarding all existing chunks. Only the owner may trigger it.
func (s *DocumentService) Reprocess(ctx context.Context, id, ownerID string) (*model.Document, error) {
	doc, err := s.docRepo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, chunker.ErrEmptyInput
	}

	if err := s.chunkRepo.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return nil, err
	}
	if err := s.docRepo.MarkProcessing(ctx, doc.ID); err != nil {
		return nil, err
	}
	doc.Status = model.DocumentStatusProcessing
	doc.ErrorMessage = ""

	s.process(ctx, doc)
	return doc, nil
}

// process chunks, embeds and stores. It mutates doc to reflect the final
// status so callers can return it without a re-read.
func (s *DocumentService) process(ctx context.Context, doc *model.Document) {
	chunks, err := chunker.Split(doc.Content, s.chunkOpts)
	if err != nil {
		s.fail(ctx, doc, err)
		return
	}

	records := make([]model.DocumentChunk, len(chunks))
	totalTokens := 0
	embeddingTokens := 0
	apiCalls := 0

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, texts, s.embeddingModel)
		if err != nil {
			s.fail(ctx, doc, err)
			return
		}
		apiCalls++

		for i, c := range batch {
			rec := model.DocumentChunk{
				DocumentID: doc.ID,
				ChunkIndex: c.Index,
				Text:       c.Text,
				Tokens:     c.Tokens,
			}
			rec.SetEmbedding(embeddings[i].Vector)
			embeddingTokens += embeddings[i].Tokens
			records[start+i] = rec
		}
	}
	for _, c := range chunks {
		totalTokens += c.Tokens
	}

	if err := s.chunkRepo.InsertChunks(ctx, doc.ID, records); err != nil {
		s.fail(ctx, doc, err)
		return
	}
	if err := s.docRepo.MarkReady(ctx, doc.ID, totalTokens); err != nil {
		s.fail(ctx, doc, err)
		return
	}
	doc.Status = model.DocumentStatusReady
	doc.TokenLength = totalTokens

	s.recordEmbeddingUsage(ctx, doc.OwnerID, apiCalls, embeddingTokens)
	s.log.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(records)),
		zap.Int("tokens", totalTokens),
	)
}

func (s *DocumentService) fail(ctx context.Context, doc *model.Document, cause error) {
	doc.Status = model.DocumentStatusError
	doc.ErrorMessage = cause.Error()
	if err := s.docRepo.MarkError(ctx, doc.ID, cause.Error()); err != nil {
		s.log.Error("mark document error failed",
			zap.String("document_id", doc.ID), zap.Error(err))
	}
	s.log.Warn("document processing failed",
		zap.String("document_id", doc.ID), zap.Error(cause))
}

// recordEmbeddingUsage publishes best-effort: a broker outage must not
// fail an otherwise successful ingestion.
func (s *DocumentService) recordEmbeddingUsage(ctx context.Context, userID string, apiCalls, tokens int) {
	if apiCalls == 0 {
		return
	}
	event := model.UsageEvent{
		UserID:       userID,
		Action:       model.UsageActionEmbedding,
		APICalls:     apiCalls,
		TokensUsed:   tokens,
		CostEstimate: ai.EstimateEmbeddingCost(tokens, s.embeddingModel),
	}
	if err := s.usage.Publish(ctx, event); err != nil {
		s.log.Warn("publish usage event failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}

// Get returns a document the user owns or any public document.
func (s *DocumentService) Get(ctx context.Context, id, userID string) (*model.Document, error) {
	doc, err := s.docRepo.GetVisible(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *DocumentService) ListOwned(ctx context.Context, ownerID string) ([]model.Document, error) {
	return s.docRepo.ListByOwner(ctx, ownerID)
}

// Delete removes the document, its chunks and every tutor link. Owner
// only.
func (s *DocumentService) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.docRepo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}

	if err := s.chunkRepo.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.tutorRepo.UnlinkDocumentEverywhere(ctx, doc.ID); err != nil {
		return err
	}
	return s.docRepo.Delete(ctx, doc.ID, ownerID)
}
