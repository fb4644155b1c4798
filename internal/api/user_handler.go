package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"choreboard-backend-go/internal/core"
	"choreboard-backend-go/internal/models"
)

// UserHandler serves the profile endpoints.
type UserHandler struct {
	auth *core.AuthService
}

func NewUserHandler(auth *core.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// InitializeProfile handles POST /api/v1/users/initialize. Called after
// client-side Firebase sign-in to ensure a backend profile exists; creating
// is idempotent, an existing profile is returned unchanged.
func (h *UserHandler) InitializeProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req InitializeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	role := models.Role(req.Role)
	if role != models.RoleChild {
		role = models.RoleParent
	}

	session := h.auth.Session(uid)
	created, err := session.Users.EnsureProfile(c.Request.Context(), req.Name, role, req.ProfileColor)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, session.Users.State().Get())
}

// GetProfile handles GET /api/v1/users/me.
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	u := h.auth.Session(uid).Users.State().Get()
	if u == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateProfile handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.auth.Session(uid).Users.UpdateProfile(c.Request.Context(), req.Name, req.ProfileColor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Profile updated"})
}

// StreamProfile handles GET /api/v1/users/me/stream as server-sent events.
func (h *UserHandler) StreamProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	streamState(c, h.auth.Session(uid).Users.State())
}

// SignOut handles POST /api/v1/users/signout. It tears the caller's session
// down; every live subscription the session owns is cancelled.
func (h *UserHandler) SignOut(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	h.auth.SignOut(uid)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}
