package api

import (
	"net/http"

	"alcyxob/coach-orchestrator/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	conversationService service.ConversationService,
) {
	chatHandler := NewChatHandler(conversationService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		chatGroup := protected.Group("/plan-chat")
		{
			// POST /api/v1/plan-chat - one conversational turn
			chatGroup.POST("", chatHandler.PostMessage)
			// POST /api/v1/plan-chat/approve - approve or modify the preview
			chatGroup.POST("/approve", chatHandler.PostApprove)
			// GET /api/v1/plan-chat/:id - transcript and current state
			chatGroup.GET("/:id", chatHandler.GetSession)
			// DELETE /api/v1/plan-chat/:id - abandon the conversation
			chatGroup.DELETE("/:id", chatHandler.DeleteSession)
		}
	}
}
