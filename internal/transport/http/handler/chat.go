package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorhub/internal/app"
	"tutorhub/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
	log         *zap.Logger
}

const upstreamFailedMessage = "upstream ai call failed"

type CreateConversationRequest struct {
	TutorID string `json:"tutor_id" binding:"required,uuid"`
	Title   string `json:"title" binding:"max=256"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required,uuid"`
	Content        string `json:"content" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	conv, err := h.chatService.CreateConversation(c.Request.Context(), app.CreateConversationInput{
		UserID:  userID,
		TutorID: req.TutorID,
		Title:   req.Title,
	})
	if err != nil {
		h.writeChatError(c, err, "create conversation failed")
		return
	}
	response.OK(c, conv)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conversations, err := h.chatService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversations failed")
		return
	}
	response.OK(c, conversations)
}

func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.chatService.DeleteConversation(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeChatError(c, err, "delete conversation failed")
		return
	}
	response.OK(c, gin.H{"deleted_conversation_id": c.Param("id")})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), app.SendMessageInput{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
	})
	if err != nil {
		h.writeChatError(c, err, "send message failed")
		return
	}
	response.OK(c, result)
}

// StreamMessage streams the answer as SSE data events, then a done event
// whose payload carries the sources and model of the full answer.
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	answer, err := h.chatService.StreamMessage(c.Request.Context(), app.SendMessageInput{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
	}, func(chunk string) error {
		if _, writeErr := c.Writer.Write([]byte("data: " + sanitizeSSE(chunk) + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if _, writeErr := c.Writer.Write([]byte("event: error\ndata: " + sanitizeSSE(h.streamErrorMessage(err)) + "\n\n")); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	payload, _ := json.Marshal(answer)
	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: " + sanitizeSSE(string(payload)) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conversationID := c.Query("conversation_id")
	if conversationID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing conversation_id")
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	history, err := h.chatService.GetHistory(c.Request.Context(), userID, conversationID, limit)
	if err != nil {
		h.writeChatError(c, err, "get history failed")
		return
	}
	response.OK(c, history)
}

func (h *ChatHandler) writeChatError(c *gin.Context, err error, fallback string) {
	var ragErr *app.RAGError
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.As(err, &ragErr):
		// Provider error text is logged only; the client gets a fixed
		// message so upstream internals never reach the response body.
		h.log.Warn("upstream ai call failed", zap.String("stage", ragErr.Stage), zap.Error(err))
		response.Error(c, http.StatusBadGateway, response.CodeUpstreamFailed, upstreamFailedMessage)
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

// streamErrorMessage picks the text for an SSE error event. Upstream
// provider failures collapse to a fixed message, same as writeChatError.
func (h *ChatHandler) streamErrorMessage(err error) string {
	var ragErr *app.RAGError
	if errors.As(err, &ragErr) {
		h.log.Warn("upstream ai call failed", zap.String("stage", ragErr.Stage), zap.Error(err))
		return upstreamFailedMessage
	}
	return err.Error()
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
