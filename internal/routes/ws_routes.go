package routes

import (
	"chatsaas_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes - /ws/chat, identity опциональна как и у POST /chat
func SetupWebSocketRoutes(r *gin.Engine, wsHandler *handlers.WSHandler) {
	wsGroup := r.Group("/ws")
	{
		wsGroup.GET("/chat", wsHandler.ServeWS)
	}
}
