package routes

import (
	"chatsaas_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPublicRoutes - маршруты, доступные без входа (identity опциональна)
func SetupPublicRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, guards Guards) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.AuthHandler.Register)
		auth.POST("/login", h.AuthHandler.Login)
		auth.POST("/logout", h.AuthHandler.Logout)
		auth.GET("/verify-email", h.AuthHandler.VerifyEmail)
		auth.GET("/google", h.AuthHandler.GoogleLogin)
		auth.GET("/google/callback", h.AuthHandler.GoogleCallback)
	}

	// 💬 Chat: аноним допускается, лимит по identity/IP
	api.POST("/chat", guards.ChatRateLimit, h.ChatHandler.SendMessage)

	// 📦 Downloads: доступ решает Entitlement Evaluator внутри сервиса
	api.GET("/downloads", h.DownloadHandler.List)
	api.GET("/downloads/:id", h.DownloadHandler.Download)

	api.POST("/promotions/validate", h.PromotionHandler.Validate)

	// 📄 Site
	api.GET("/site-config", h.SiteHandler.PublicConfig)
	api.GET("/pricing", h.SiteHandler.Pricing)
	api.GET("/pages/about", h.SiteHandler.About)
	api.GET("/blog", h.SiteHandler.ListPublishedPosts)
	api.GET("/blog/:slug", h.SiteHandler.GetPublishedPost)

	// 💳 подпись проверяется в хэндлере
	api.POST("/payments/webhook", h.PaymentHandler.Webhook)
}
