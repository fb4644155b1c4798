package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"choreboard-backend-go/internal/core"
	"choreboard-backend-go/internal/middleware"
)

// SetupRoutes wires every endpoint. Global middleware (logging, recovery,
// CORS) is applied to the router in main before this runs.
func SetupRoutes(router *gin.Engine, auth *core.AuthService, logger *zap.Logger) {
	authMW := middleware.NewAuthMiddleware(auth, logger)

	userHandler := NewUserHandler(auth)
	householdHandler := NewHouseholdHandler(auth)
	choreHandler := NewChoreHandler(auth)
	chatHandler := NewChatHandler(auth)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")
	{
		users := apiV1.Group("/users", authMW.VerifyToken())
		{
			users.POST("/initialize", userHandler.InitializeProfile)
			users.GET("/me", userHandler.GetProfile)
			users.PUT("/me", userHandler.UpdateProfile)
			users.GET("/me/stream", userHandler.StreamProfile)
			users.POST("/signout", userHandler.SignOut)
		}

		households := apiV1.Group("/households", authMW.VerifyToken())
		{
			households.POST("", householdHandler.Create)
			households.GET("/current", householdHandler.Current)
			households.GET("/members", householdHandler.Members)
			households.POST("/join", householdHandler.Join)
			households.POST("/claim-invitation", householdHandler.ClaimInvitation)
			households.POST("/invites", householdHandler.GenerateInvite)
			households.POST("/invitations", householdHandler.InviteByEmail)
			households.PUT("/push-token", householdHandler.RegisterPushToken)
			households.DELETE("/membership", householdHandler.Leave)
			households.GET("/stream", householdHandler.Stream)
			households.GET("/members/stream", householdHandler.StreamMembers)
		}

		chores := apiV1.Group("/chores", authMW.VerifyToken())
		{
			chores.GET("", choreHandler.List)
			chores.POST("", choreHandler.Create)
			chores.GET("/stream", choreHandler.Stream)
			chores.DELETE("/selection", choreHandler.Deselect)
			chores.POST("/:choreId/select", choreHandler.Select)
			chores.POST("/:choreId/accept", choreHandler.Accept)
			chores.POST("/:choreId/ready", choreHandler.MarkReady)
			chores.POST("/:choreId/approve", choreHandler.Approve)
			chores.POST("/:choreId/deny", choreHandler.Deny)
			chores.DELETE("/:choreId", choreHandler.Withdraw)
		}

		chat := apiV1.Group("/chat", authMW.VerifyToken())
		{
			chat.GET("", chatHandler.List)
			chat.POST("", chatHandler.Send)
			chat.GET("/stream", chatHandler.Stream)
		}
	}
}
