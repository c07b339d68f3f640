package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"tutorhub/internal/app"
	"tutorhub/internal/chunker"
	"tutorhub/internal/pkg/pdfextract"
	"tutorhub/internal/transport/http/response"
)

type DocumentHandler struct {
	docService     *app.DocumentService
	maxUploadBytes int64
}

type CreateDocumentRequest struct {
	Title      string `json:"title" binding:"required,max=256"`
	Text       string `json:"text" binding:"required"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=private public"`
}

func NewDocumentHandler(docService *app.DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{docService: docService, maxUploadBytes: maxUploadBytes}
}

// Create ingests raw text supplied in the request body.
func (h *DocumentHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.docService.Ingest(c.Request.Context(), app.IngestInput{
		OwnerID:    userID,
		Title:      req.Title,
		Text:       req.Text,
		MimeType:   "text/plain",
		Visibility: req.Visibility,
	})
	if err != nil {
		writeDocumentError(c, err, "create document failed")
		return
	}

	response.OK(c, doc)
}

// Upload ingests a file. PDFs go through text extraction; anything else
// is treated as plain text.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
		return
	}
	defer file.Close()

	var (
		text     string
		mimeType string
	)
	if strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		mimeType = "application/pdf"
		text, err = pdfextract.Text(file)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "pdf text extraction failed")
			return
		}
	} else {
		mimeType = "text/plain"
		raw, readErr := io.ReadAll(file)
		if readErr != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
			return
		}
		text = string(raw)
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}

	doc, err := h.docService.Ingest(c.Request.Context(), app.IngestInput{
		OwnerID:    userID,
		Title:      title,
		Text:       text,
		MimeType:   mimeType,
		Visibility: c.PostForm("visibility"),
		FileName:   fileHeader.Filename,
	})
	if err != nil {
		writeDocumentError(c, err, "upload document failed")
		return
	}

	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	docs, err := h.docService.ListOwned(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	doc, err := h.docService.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeDocumentError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Reprocess(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	doc, err := h.docService.Reprocess(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeDocumentError(c, err, "reprocess document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.docService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeDocumentError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": c.Param("id")})
}

func writeDocumentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, chunker.ErrEmptyInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
