package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"choreboard-backend-go/internal/core"
)

// ChoreHandler serves the chore lifecycle endpoints. List responses carry
// the derived per-viewer fields, not the raw documents.
type ChoreHandler struct {
	auth *core.AuthService
}

func NewChoreHandler(auth *core.AuthService) *ChoreHandler {
	return &ChoreHandler{auth: auth}
}

// List handles GET /api/v1/chores.
func (h *ChoreHandler) List(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.auth.Session(uid).Chores.Views())
}

// Create handles POST /api/v1/chores.
func (h *ChoreHandler) Create(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	images, err := decodeImages(req.Images)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid image payload", Details: err.Error()})
		return
	}
	id, err := h.auth.Session(uid).Chores.CreateChore(c.Request.Context(), req.Name, req.Description, req.RewardAmount, images)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Chore created", Data: gin.H{"id": id}})
}

// Select handles POST /api/v1/chores/:choreId/select.
func (h *ChoreHandler) Select(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.auth.Session(uid).Chores.Select(c.Param("choreId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Chore selected"})
}

// Deselect handles DELETE /api/v1/chores/selection.
func (h *ChoreHandler) Deselect(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	h.auth.Session(uid).Chores.Deselect()
	c.JSON(http.StatusOK, SuccessResponse{Message: "Selection cleared"})
}

// Accept handles POST /api/v1/chores/:choreId/accept.
func (h *ChoreHandler) Accept(c *gin.Context) {
	h.lifecycle(c, func(s *core.Session, id string) error {
		return s.Chores.Accept(c.Request.Context(), id)
	})
}

// MarkReady handles POST /api/v1/chores/:choreId/ready.
func (h *ChoreHandler) MarkReady(c *gin.Context) {
	h.lifecycle(c, func(s *core.Session, id string) error {
		return s.Chores.MarkReady(c.Request.Context(), id)
	})
}

// Approve handles POST /api/v1/chores/:choreId/approve.
func (h *ChoreHandler) Approve(c *gin.Context) {
	h.lifecycle(c, func(s *core.Session, id string) error {
		return s.Chores.Approve(c.Request.Context(), id)
	})
}

// Deny handles POST /api/v1/chores/:choreId/deny.
func (h *ChoreHandler) Deny(c *gin.Context) {
	h.lifecycle(c, func(s *core.Session, id string) error {
		return s.Chores.Deny(c.Request.Context(), id)
	})
}

// Withdraw handles DELETE /api/v1/chores/:choreId.
func (h *ChoreHandler) Withdraw(c *gin.Context) {
	h.lifecycle(c, func(s *core.Session, id string) error {
		return s.Chores.Withdraw(c.Request.Context(), id)
	})
}

func (h *ChoreHandler) lifecycle(c *gin.Context, op func(*core.Session, string) error) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := op(h.auth.Session(uid), c.Param("choreId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "OK"})
}

// Stream handles GET /api/v1/chores/stream as server-sent events.
func (h *ChoreHandler) Stream(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	streamState(c, h.auth.Session(uid).Chores.State())
}
