package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorhub/internal/app"
	"tutorhub/internal/transport/http/response"
)

type TutorHandler struct {
	tutorService *app.TutorService
}

type TutorRequest struct {
	Name                string   `json:"name" binding:"omitempty,max=128"`
	SystemPrompt        string   `json:"system_prompt"`
	Model               string   `json:"model" binding:"omitempty,max=64"`
	Temperature         *float32 `json:"temperature"`
	MaxTokens           *int     `json:"max_tokens"`
	UseRAG              *bool    `json:"use_rag"`
	MaxContextChunks    *int     `json:"max_context_chunks"`
	SimilarityThreshold *float32 `json:"similarity_threshold"`
	Visibility          string   `json:"visibility" binding:"omitempty,oneof=private public"`
}

func NewTutorHandler(tutorService *app.TutorService) *TutorHandler {
	return &TutorHandler{tutorService: tutorService}
}

func (r TutorRequest) toInput() app.TutorInput {
	return app.TutorInput{
		Name:                r.Name,
		SystemPrompt:        r.SystemPrompt,
		Model:               r.Model,
		Temperature:         r.Temperature,
		MaxTokens:           r.MaxTokens,
		UseRAG:              r.UseRAG,
		MaxContextChunks:    r.MaxContextChunks,
		SimilarityThreshold: r.SimilarityThreshold,
		Visibility:          r.Visibility,
	}
}

func (h *TutorHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req TutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	tutor, err := h.tutorService.Create(c.Request.Context(), userID, req.toInput())
	if err != nil {
		writeTutorError(c, err, "create tutor failed")
		return
	}
	response.OK(c, tutor)
}

func (h *TutorHandler) Update(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req TutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	tutor, err := h.tutorService.Update(c.Request.Context(), c.Param("id"), userID, req.toInput())
	if err != nil {
		writeTutorError(c, err, "update tutor failed")
		return
	}
	response.OK(c, tutor)
}

func (h *TutorHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	tutors, err := h.tutorService.ListOwned(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list tutors failed")
		return
	}
	response.OK(c, tutors)
}

// Marketplace lists every public tutor.
func (h *TutorHandler) Marketplace(c *gin.Context) {
	tutors, err := h.tutorService.ListPublic(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list marketplace failed")
		return
	}
	response.OK(c, tutors)
}

func (h *TutorHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	tutor, err := h.tutorService.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeTutorError(c, err, "get tutor failed")
		return
	}
	response.OK(c, tutor)
}

func (h *TutorHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.tutorService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeTutorError(c, err, "delete tutor failed")
		return
	}
	response.OK(c, gin.H{"deleted_tutor_id": c.Param("id")})
}

func (h *TutorHandler) LinkDocument(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.tutorService.LinkDocument(c.Request.Context(), c.Param("id"), c.Param("docId"), userID); err != nil {
		writeTutorError(c, err, "link document failed")
		return
	}
	response.OK(c, gin.H{"tutor_id": c.Param("id"), "document_id": c.Param("docId")})
}

func (h *TutorHandler) UnlinkDocument(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.tutorService.UnlinkDocument(c.Request.Context(), c.Param("id"), c.Param("docId"), userID); err != nil {
		writeTutorError(c, err, "unlink document failed")
		return
	}
	response.OK(c, gin.H{"tutor_id": c.Param("id"), "document_id": c.Param("docId")})
}

func (h *TutorHandler) ListDocuments(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	docs, err := h.tutorService.ListDocuments(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeTutorError(c, err, "list tutor documents failed")
		return
	}
	response.OK(c, docs)
}

func writeTutorError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
