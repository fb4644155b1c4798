package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"choreboard-backend-go/internal/core"
)

// ContextUserID is the gin context key under which the authenticated user's
// id is stored for downstream handlers.
const ContextUserID = "userID"

// ErrorResponse mirrors the one in internal/api to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware verifies bearer tokens against the auth service and stores
// the resolved user id in the request context.
type AuthMiddleware struct {
	auth   *core.AuthService
	logger *zap.Logger
}

// NewAuthMiddleware panics on a nil auth service; nothing behind the
// authenticated routes can work without it.
func NewAuthMiddleware(auth *core.AuthService, logger *zap.Logger) *AuthMiddleware {
	if auth == nil {
		panic("AuthMiddleware requires a non-nil core.AuthService")
	}
	return &AuthMiddleware{auth: auth, logger: logger}
}

// VerifyToken extracts the "Bearer {token}" Authorization header, verifies
// it, and aborts with 401 on any failure. Verification errors are logged
// server-side; the client only sees a generic message.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		uid, err := m.auth.Verify(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warn("token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(ContextUserID, uid)
		c.Next()
	}
}
