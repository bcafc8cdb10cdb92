package router

import (
	"github.com/labstack/echo/v4"

	"tradesafe/internal/adapter/api/handler"
	"tradesafe/internal/adapter/api/middleware"
)

// SetupTransactionRouter sets up all transaction-related routes
func SetupTransactionRouter(e *echo.Echo, transactionHandler *handler.TransactionHandler, authMiddleware *middleware.AuthMiddleware) {
	transactions := e.Group("/v1/transactions")
	transactions.Use(authMiddleware.Authenticate)

	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.GET("/:id/history", transactionHandler.GetStatusHistory)
	transactions.POST("/:id/transition", transactionHandler.Transition)
}
