package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorhub/internal/app"
)

func TestWriteChatErrorHidesProviderDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	h := NewChatHandler(nil, zap.NewNop())
	upstream := &app.RAGError{
		Stage: app.StageComplete,
		Err:   errors.New("provider rejected key sk-abc123 for org acme"),
	}
	h.writeChatError(c, upstream, "send message failed")

	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadGateway)
	}
	body := recorder.Body.String()
	if strings.Contains(body, "sk-abc123") || strings.Contains(body, "acme") {
		t.Fatalf("response leaked upstream detail: %s", body)
	}
	if !strings.Contains(body, upstreamFailedMessage) {
		t.Fatalf("response missing fixed message: %s", body)
	}
}

func TestWriteChatErrorKeepsSentinelText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	h := NewChatHandler(nil, zap.NewNop())
	h.writeChatError(c, app.ErrConversationNotFound, "send message failed")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
}

func TestStreamErrorMessageHidesProviderDetail(t *testing.T) {
	h := NewChatHandler(nil, zap.NewNop())

	upstream := &app.RAGError{
		Stage: app.StageComplete,
		Err:   errors.New("provider internal trace 0xdeadbeef"),
	}
	if got := h.streamErrorMessage(upstream); got != upstreamFailedMessage {
		t.Fatalf("stream message = %q, want %q", got, upstreamFailedMessage)
	}

	if got := h.streamErrorMessage(app.ErrMessageEmpty); got != app.ErrMessageEmpty.Error() {
		t.Fatalf("sentinel message = %q, want %q", got, app.ErrMessageEmpty.Error())
	}
}
