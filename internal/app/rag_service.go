package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tutorhub/internal/ai"
	"tutorhub/internal/model"
	"tutorhub/internal/repository"
)

// Orchestration stages, recorded on RAGError so callers know which step
// of the pipeline failed.
const (
	StageEmbed    = "embed"
	StageRetrieve = "retrieve"
	StageComplete = "complete"
)

// RAGError wraps the single failure of an orchestrated query with the
// stage it occurred in. No partial answer accompanies it.
type RAGError struct {
	Stage string
	Err   error
}

func (e *RAGError) Error() string {
	return fmt.Sprintf("rag %s stage failed: %v", e.Stage, e.Err)
}

func (e *RAGError) Unwrap() error {
	return e.Err
}

// Embedder mirrors the embedding side of the ai client.
type Embedder interface {
	EmbedOne(ctx context.Context, text, model string) (ai.Embedding, error)
}

// Completer mirrors the completion side of the ai client.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
	CompleteStream(ctx context.Context, req ai.CompletionRequest, onDelta func(string) error) (string, error)
}

// ChunkSearcher runs scoped similarity searches over stored chunks.
type ChunkSearcher interface {
	SimilaritySearch(ctx context.Context, queryEmbedding []float32, scope repository.SearchScope) ([]repository.RankedChunk, error)
}

// ReadyDocumentLister resolves a tutor to the IDs of its linked, ready
// documents.
type ReadyDocumentLister interface {
	ListReadyLinkedDocumentIDs(ctx context.Context, tutorID string) ([]string, error)
}

// Answer is the result of one orchestrated query. Sources preserve
// descending similarity order for citation display. TokensUsed and Cost
// cover the completion call; they are zero, never fabricated, on the
// streaming path where usage is not reported.
type Answer struct {
	Text       string                   `json:"answer"`
	Sources    []repository.RankedChunk `json:"sources"`
	TokensUsed int                      `json:"tokens_used"`
	Cost       float64                  `json:"cost"`
	Model      string                   `json:"model"`
}

// RAGService answers a user's question using a tutor's linked documents
// as grounding context: embed the question, retrieve chunks above the
// tutor's similarity threshold, assemble a prompt, complete. Fully
// synchronous, no state persisted between stages.
type RAGService struct {
	embedder       Embedder
	completer      Completer
	searcher       ChunkSearcher
	docLister      ReadyDocumentLister
	embeddingModel string
	log            *zap.Logger
}

func NewRAGService(
	embedder Embedder,
	completer Completer,
	searcher ChunkSearcher,
	docLister ReadyDocumentLister,
	embeddingModel string,
	log *zap.Logger,
) *RAGService {
	return &RAGService{
		embedder:       embedder,
		completer:      completer,
		searcher:       searcher,
		docLister:      docLister,
		embeddingModel: embeddingModel,
		log:            log,
	}
}

// Query runs the full pipeline for one question. History carries prior
// conversation turns, oldest first, inserted between the system prompt
// and the question. Zero retrieved chunks is not a failure: the
// completion still runs with an empty context so a tutor with no
// documents, or an off-topic question, produces an ungrounded answer
// with empty sources.
func (s *RAGService) Query(ctx context.Context, tutor *model.Tutor, userID, question string, history []ai.ChatMessage) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	sources, err := s.retrieve(ctx, tutor, userID, question)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []repository.RankedChunk{}
	}

	req := s.buildCompletionRequest(tutor, question, sources, history)
	resp, err := s.completer.Complete(ctx, req)
	if err != nil {
		return nil, &RAGError{Stage: StageComplete, Err: err}
	}

	s.log.Debug("rag query completed",
		zap.String("tutor_id", tutor.ID),
		zap.Int("sources", len(sources)),
		zap.Int("tokens_used", resp.TotalTokens),
	)

	return &Answer{
		Text:       strings.TrimSpace(resp.Content),
		Sources:    sources,
		TokensUsed: resp.TotalTokens,
		Cost:       ai.EstimateCompletionCost(resp.TotalTokens, tutor.Model),
		Model:      resp.Model,
	}, nil
}

// QueryStream is Query with the completion streamed through onDelta. The
// streaming API reports no usage, so TokensUsed and Cost stay zero.
func (s *RAGService) QueryStream(ctx context.Context, tutor *model.Tutor, userID, question string, history []ai.ChatMessage, onDelta func(string) error) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	sources, err := s.retrieve(ctx, tutor, userID, question)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []repository.RankedChunk{}
	}

	req := s.buildCompletionRequest(tutor, question, sources, history)
	full, err := s.completer.CompleteStream(ctx, req, onDelta)
	if err != nil {
		return nil, &RAGError{Stage: StageComplete, Err: err}
	}

	return &Answer{
		Text:    strings.TrimSpace(full),
		Sources: sources,
		Model:   tutor.Model,
	}, nil
}

// retrieve embeds the question and searches the tutor's linked ready
// documents, scoped to what the requesting user may see. Tutors with RAG
// disabled, or without ready documents, skip retrieval entirely.
func (s *RAGService) retrieve(ctx context.Context, tutor *model.Tutor, userID, question string) ([]repository.RankedChunk, error) {
	if !tutor.UseRAG {
		return nil, nil
	}

	docIDs, err := s.docLister.ListReadyLinkedDocumentIDs(ctx, tutor.ID)
	if err != nil {
		return nil, &RAGError{Stage: StageRetrieve, Err: err}
	}
	if len(docIDs) == 0 {
		return nil, nil
	}

	embedding, err := s.embedder.EmbedOne(ctx, question, s.embeddingModel)
	if err != nil {
		return nil, &RAGError{Stage: StageEmbed, Err: err}
	}

	sources, err := s.searcher.SimilaritySearch(ctx, embedding.Vector, repository.SearchScope{
		DocumentIDs: docIDs,
		OwnerID:     userID,
		Threshold:   tutor.SimilarityThreshold,
		Limit:       tutor.MaxContextChunks,
	})
	if err != nil {
		return nil, &RAGError{Stage: StageRetrieve, Err: err}
	}
	return sources, nil
}

func (s *RAGService) buildCompletionRequest(tutor *model.Tutor, question string, sources []repository.RankedChunk, history []ai.ChatMessage) ai.CompletionRequest {
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: buildSystemPrompt(tutor.SystemPrompt, sources)})
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{Role: "user", Content: question})
	return ai.CompletionRequest{
		Model:       tutor.Model,
		Temperature: tutor.Temperature,
		MaxTokens:   tutor.MaxTokens,
		Messages:    messages,
	}
}

// buildSystemPrompt prefixes the context block assembled from retrieved
// chunks, in descending similarity order, to the tutor's own prompt.
func buildSystemPrompt(tutorPrompt string, sources []repository.RankedChunk) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(tutorPrompt))
	if len(sources) == 0 {
		return b.String()
	}

	b.WriteString("\n\nAnswer using the information in the context below. ")
	b.WriteString("Cite sources with the [Source N] format. ")
	b.WriteString("If the context does not contain enough information, say so clearly.\n\nContext:\n")
	for i, src := range sources {
		fmt.Fprintf(&b, "[Source %d]: %s\n\n", i+1, src.Text)
	}
	return strings.TrimSpace(b.String())
}
