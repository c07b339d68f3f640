package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"tutorhub/internal/ai"
	"tutorhub/internal/model"
	"tutorhub/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageEmpty         = errors.New("message content is empty")
)

// maxHistoryMessages bounds how many prior turns travel with each
// completion prompt.
const maxHistoryMessages = 20

// AnswerProvider runs one grounded query against a tutor.
type AnswerProvider interface {
	Query(ctx context.Context, tutor *model.Tutor, userID, question string, history []ai.ChatMessage) (*Answer, error)
	QueryStream(ctx context.Context, tutor *model.Tutor, userID, question string, history []ai.ChatMessage, onDelta func(string) error) (*Answer, error)
}

// HistoryCache caches conversation history with a dirty marker that
// suppresses caching while writes are in flight.
type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, conversationID string) error
	MarkDirty(ctx context.Context, conversationID string) error
	IsDirty(ctx context.Context, conversationID string) (bool, error)
}

// ChatService runs tutor conversations: each turn is answered through the
// rag pipeline, both messages are persisted synchronously, and a usage
// event is published for the completion.
type ChatService struct {
	convRepo     *repository.ConversationRepository
	messageRepo  *repository.MessageRepository
	tutorRepo    *repository.TutorRepository
	rag          AnswerProvider
	historyCache HistoryCache
	usage        UsageRecorder
	log          *zap.Logger
}

type CreateConversationInput struct {
	UserID  string
	TutorID string
	Title   string
}

type SendMessageInput struct {
	UserID         string
	ConversationID string
	Content        string
}

type SendMessageResult struct {
	Messages []model.Message          `json:"messages"`
	Answer   *Answer                  `json:"answer"`
	Sources  []repository.RankedChunk `json:"sources"`
}

func NewChatService(
	convRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	tutorRepo *repository.TutorRepository,
	rag AnswerProvider,
	historyCache HistoryCache,
	usage UsageRecorder,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		tutorRepo:    tutorRepo,
		rag:          rag,
		historyCache: historyCache,
		usage:        usage,
		log:          log,
	}
}

// CreateConversation starts a conversation with a tutor the user can see.
func (s *ChatService) CreateConversation(ctx context.Context, input CreateConversationInput) (*model.Conversation, error) {
	if input.UserID == "" || input.TutorID == "" {
		return nil, ErrInvalidInput
	}

	tutor, err := s.tutorRepo.GetVisible(ctx, input.TutorID, input.UserID)
	if err != nil {
		return nil, err
	}
	if tutor == nil {
		return nil, ErrNotFound
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New conversation"
	}

	conv := &model.Conversation{
		UserID:  input.UserID,
		TutorID: input.TutorID,
		Title:   title,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.convRepo.ListByUser(ctx, userID)
}

func (s *ChatService) DeleteConversation(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return ErrInvalidInput
	}
	conv, err := s.convRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if err := s.messageRepo.DeleteByConversationID(ctx, id); err != nil {
		return err
	}
	if err := s.convRepo.Delete(ctx, id, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, id)
	}
	return nil
}

// SendMessage answers one user turn. The user message is stored before
// the provider call so a failed completion still leaves the question in
// the history.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	conv, tutor, content, err := s.prepareTurn(ctx, input)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	userMessage, err := s.storeUserMessage(ctx, conv, content)
	if err != nil {
		return nil, err
	}

	answer, err := s.rag.Query(ctx, tutor, conv.UserID, content, history)
	if err != nil {
		return nil, err
	}

	assistantMessage, err := s.storeAssistantMessage(ctx, conv, answer)
	if err != nil {
		return nil, err
	}

	s.recordCompletionUsage(ctx, conv.UserID, tutor, answer)
	return &SendMessageResult{
		Messages: []model.Message{*userMessage, *assistantMessage},
		Answer:   answer,
		Sources:  answer.Sources,
	}, nil
}

// StreamMessage is SendMessage with the answer streamed through onChunk.
// The returned answer carries the sources for the final SSE event.
func (s *ChatService) StreamMessage(ctx context.Context, input SendMessageInput, onChunk func(string) error) (*Answer, error) {
	conv, tutor, content, err := s.prepareTurn(ctx, input)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.storeUserMessage(ctx, conv, content); err != nil {
		return nil, err
	}

	answer, err := s.rag.QueryStream(ctx, tutor, conv.UserID, content, history, onChunk)
	if err != nil {
		return nil, err
	}

	if _, err := s.storeAssistantMessage(ctx, conv, answer); err != nil {
		return nil, err
	}

	s.recordCompletionUsage(ctx, conv.UserID, tutor, answer)
	return answer, nil
}

func (s *ChatService) prepareTurn(ctx context.Context, input SendMessageInput) (*model.Conversation, *model.Tutor, string, error) {
	if input.UserID == "" || input.ConversationID == "" {
		return nil, nil, "", ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, nil, "", ErrMessageEmpty
	}

	conv, err := s.convRepo.GetByIDAndUser(ctx, input.ConversationID, input.UserID)
	if err != nil {
		return nil, nil, "", err
	}
	if conv == nil {
		return nil, nil, "", ErrConversationNotFound
	}

	tutor, err := s.tutorRepo.GetVisible(ctx, conv.TutorID, input.UserID)
	if err != nil {
		return nil, nil, "", err
	}
	if tutor == nil {
		return nil, nil, "", ErrNotFound
	}
	return conv, tutor, content, nil
}

// loadHistory fetches the most recent turns of the conversation as chat
// messages, oldest first. It runs before the current question is stored
// so the question appears in the prompt exactly once.
func (s *ChatService) loadHistory(ctx context.Context, conversationID string) ([]ai.ChatMessage, error) {
	stored, err := s.messageRepo.ListRecentByConversationID(ctx, conversationID, maxHistoryMessages)
	if err != nil {
		return nil, err
	}
	history := make([]ai.ChatMessage, 0, len(stored))
	for _, msg := range stored {
		history = append(history, ai.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return history, nil
}

func (s *ChatService) storeUserMessage(ctx context.Context, conv *model.Conversation, content string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Role:           model.RoleUser,
		Content:        content,
	}
	s.invalidateHistory(ctx, conv.ID)
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) storeAssistantMessage(ctx context.Context, conv *model.Conversation, answer *Answer) (*model.Message, error) {
	content := strings.TrimSpace(answer.Text)
	if content == "" {
		content = "The model returned an empty response."
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Role:           model.RoleAssistant,
		Content:        content,
		Model:          answer.Model,
		TokensUsed:     answer.TokensUsed,
	}
	msg.SetSources(toMessageSources(answer.Sources))
	s.invalidateHistory(ctx, conv.ID)
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) invalidateHistory(ctx context.Context, conversationID string) {
	if s.historyCache == nil {
		return
	}
	_ = s.historyCache.MarkDirty(ctx, conversationID)
	_ = s.historyCache.DeleteHistory(ctx, conversationID)
}

func (s *ChatService) recordCompletionUsage(ctx context.Context, userID string, tutor *model.Tutor, answer *Answer) {
	if s.usage == nil || answer.TokensUsed == 0 {
		return
	}
	event := model.UsageEvent{
		UserID:       userID,
		TutorID:      &tutor.ID,
		Action:       model.UsageActionCompletion,
		APICalls:     1,
		TokensUsed:   answer.TokensUsed,
		CostEstimate: ai.EstimateCompletionCost(answer.TokensUsed, tutor.Model),
	}
	if err := s.usage.Publish(ctx, event); err != nil {
		s.log.Warn("publish usage event failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}

// GetHistory returns conversation messages in chronological order,
// serving from cache when it is present and clean.
func (s *ChatService) GetHistory(ctx context.Context, userID, conversationID string, limit int) ([]model.Message, error) {
	if userID == "" || conversationID == "" {
		return nil, ErrInvalidInput
	}

	conv, err := s.convRepo.GetByIDAndUser(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListByConversationID(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, conversationID, messages)
		}
	}
	return messages, nil
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}

func toMessageSources(sources []repository.RankedChunk) []model.MessageSource {
	if len(sources) == 0 {
		return nil
	}
	out := make([]model.MessageSource, len(sources))
	for i, src := range sources {
		out[i] = model.MessageSource{
			ChunkID:    src.ID,
			DocumentID: src.DocumentID,
			ChunkIndex: src.ChunkIndex,
			Text:       src.Text,
			Similarity: src.Similarity,
			Tokens:     src.Tokens,
		}
	}
	return out
}
