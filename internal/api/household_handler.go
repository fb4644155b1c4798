package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"choreboard-backend-go/internal/core"
)

// HouseholdHandler serves the household and invite endpoints.
type HouseholdHandler struct {
	auth *core.AuthService
}

func NewHouseholdHandler(auth *core.AuthService) *HouseholdHandler {
	return &HouseholdHandler{auth: auth}
}

// Create handles POST /api/v1/households.
func (h *HouseholdHandler) Create(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	id, err := h.auth.Session(uid).Households.CreateHousehold(c.Request.Context(), req.Tag)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Household created", Data: gin.H{"id": id}})
}

// Current handles GET /api/v1/households/current.
func (h *HouseholdHandler) Current(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	household := h.auth.Session(uid).Households.State().Get()
	if household == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not a member of any household"})
		return
	}
	c.JSON(http.StatusOK, household)
}

// Members handles GET /api/v1/households/members.
func (h *HouseholdHandler) Members(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.auth.Session(uid).Households.Members().Get())
}

// Join handles POST /api/v1/households/join with an invite code.
func (h *HouseholdHandler) Join(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req JoinHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.auth.Session(uid).Households.JoinWithCode(c.Request.Context(), req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Joined household"})
}

// ClaimInvitation handles POST /api/v1/households/claim-invitation, joining
// via an email-keyed invitation and consuming it.
func (h *HouseholdHandler) ClaimInvitation(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ClaimInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.auth.Session(uid).Households.JoinWithInvitation(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Joined household"})
}

// GenerateInvite handles POST /api/v1/households/invites.
func (h *HouseholdHandler) GenerateInvite(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	code, err := h.auth.Session(uid).Households.GenerateInviteCode(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Invite code created", Data: gin.H{"code": code}})
}

// InviteByEmail handles POST /api/v1/households/invitations.
func (h *HouseholdHandler) InviteByEmail(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req InviteByEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.auth.Session(uid).Households.InviteByEmail(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Invitation recorded"})
}

// RegisterPushToken handles PUT /api/v1/households/push-token.
func (h *HouseholdHandler) RegisterPushToken(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.auth.Session(uid).Households.RegisterPushToken(c.Request.Context(), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Push token registered"})
}

// Leave handles DELETE /api/v1/households/membership.
func (h *HouseholdHandler) Leave(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.auth.Session(uid).Households.Leave(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Left household"})
}

// Stream handles GET /api/v1/households/stream as server-sent events.
func (h *HouseholdHandler) Stream(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	streamState(c, h.auth.Session(uid).Households.State())
}

// StreamMembers handles GET /api/v1/households/members/stream.
func (h *HouseholdHandler) StreamMembers(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	streamState(c, h.auth.Session(uid).Households.Members())
}
