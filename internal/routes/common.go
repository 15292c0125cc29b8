package routes

import (
	"chatsaas_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupCommonRoutes - маршруты для любого вошедшего пользователя
func SetupCommonRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, guards Guards) {
	api.POST("/auth/resend-verification", guards.RequireAuth, h.AuthHandler.ResendVerification)

	// 👤 Me
	me := api.Group("/me")
	me.Use(guards.RequireAuth)
	{
		me.GET("", h.AuthHandler.GetMe)
		me.PATCH("", h.AuthHandler.UpdateMe)
	}

	// 🤖 Chatbots
	chatbots := api.Group("/chatbots")
	chatbots.Use(guards.RequireAuth)
	{
		chatbots.GET("", h.ChatHandler.ListChatbots)
		chatbots.POST("", h.ChatHandler.CreateChatbot)
		chatbots.PATCH("/:id", h.ChatHandler.UpdateChatbot)
	}

	// 💬 Conversations
	conversations := api.Group("/conversations")
	conversations.Use(guards.RequireAuth)
	{
		conversations.GET("", h.ChatHandler.ListConversations)
		conversations.GET("/:id/messages", h.ChatHandler.ListMessages)
	}

	api.POST("/promotions/redeem", guards.RequireAuth, h.PromotionHandler.Redeem)
}
