package router

import (
	"github.com/labstack/echo/v4"

	"tradesafe/internal/adapter/api/handler"
	"tradesafe/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all conversation and messaging routes
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", chatHandler.StartConversation)
	conversations.GET("", chatHandler.ListConversations)
	conversations.GET("/:id/messages", chatHandler.ListMessages)
	conversations.POST("/:id/messages", chatHandler.SendMessage)
	conversations.POST("/:id/read", chatHandler.MarkRead)
}
