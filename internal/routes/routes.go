package routes

import (
	"net/http"

	"chatsaas_backend/internal/handlers"
	"chatsaas_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// Guards - middleware, которые собираются в app и навешиваются на группы
type Guards struct {
	RequireAuth   gin.HandlerFunc
	Admin         gin.HandlerFunc
	ChatRateLimit gin.HandlerFunc
}

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers, guards Guards) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		SetupPublicRoutes(api, appHandlers, guards)
		SetupCommonRoutes(api, appHandlers, guards)
		SetupAdminRoutes(api, appHandlers, guards)
	}

	SetupWebSocketRoutes(ginRouter, appHandlers.WSHandler)
	logger.Info("Routes registered", "routes", len(ginRouter.Routes()))
}
