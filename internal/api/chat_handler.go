package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"choreboard-backend-go/internal/core"
)

// ChatHandler serves the chat thread of the selected chore.
type ChatHandler struct {
	auth *core.AuthService
}

func NewChatHandler(auth *core.AuthService) *ChatHandler {
	return &ChatHandler{auth: auth}
}

// List handles GET /api/v1/chat. The thread is returned with the derived
// sequence and ownership flags already applied.
func (h *ChatHandler) List(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.auth.Session(uid).Messages.State().Get())
}

// Send handles POST /api/v1/chat.
func (h *ChatHandler) Send(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	images, err := decodeImages(req.Images)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid image payload", Details: err.Error()})
		return
	}
	if err := h.auth.Session(uid).Messages.Send(c.Request.Context(), req.Message, images); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Message sent"})
}

// Stream handles GET /api/v1/chat/stream as server-sent events.
func (h *ChatHandler) Stream(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	streamState(c, h.auth.Session(uid).Messages.State())
}
