package api

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// InitializeProfileRequest seeds a profile after client-side sign-up.
type InitializeProfileRequest struct {
	Name         string `json:"name" binding:"required"`
	Role         string `json:"role"`
	ProfileColor string `json:"profileColor"`
}

// UpdateProfileRequest rewrites the mutable profile fields.
type UpdateProfileRequest struct {
	Name         string `json:"name" binding:"required"`
	ProfileColor string `json:"profileColor"`
}

// CreateHouseholdRequest creates a household with a unique tag.
type CreateHouseholdRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// JoinHouseholdRequest joins via an invite code.
type JoinHouseholdRequest struct {
	Code string `json:"code" binding:"required"`
}

// ClaimInvitationRequest joins via an email-keyed invitation.
type ClaimInvitationRequest struct {
	Email string `json:"email" binding:"required"`
}

// InviteByEmailRequest records an invitation for another user's email.
type InviteByEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// PushTokenRequest registers the caller's Expo push token.
type PushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// CreateChoreRequest creates a chore. Images are base64-encoded payloads
// uploaded to blob storage before the chore document is written.
type CreateChoreRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	RewardAmount float64  `json:"rewardAmount"`
	Images       []string `json:"images"`
}

// SendMessageRequest posts a chat message into the selected chore's thread.
type SendMessageRequest struct {
	Message string   `json:"message"`
	Images  []string `json:"images"`
}
