package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorhub/internal/app"
	"tutorhub/internal/transport/http/response"
)

type UsageHandler struct {
	usageService *app.UsageService
}

func NewUsageHandler(usageService *app.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

func (h *UsageHandler) Summary(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	summary, err := h.usageService.Summary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "usage summary failed")
		return
	}
	response.OK(c, summary)
}
