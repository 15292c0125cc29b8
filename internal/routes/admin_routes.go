package routes

import (
	"chatsaas_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

func SetupAdminRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, guards Guards) {
	admin := api.Group("/admin")
	admin.Use(guards.Admin)
	{
		// 📋 Users
		admin.GET("/users", h.AdminHandler.ListUsers)
		admin.GET("/users/:id", h.AdminHandler.GetUser)
		admin.PATCH("/users/:id", h.AdminHandler.UpdateUser)
		admin.DELETE("/users/:id", h.AdminHandler.DeleteUser)

		admin.GET("/stats", h.AdminHandler.GetStats)

		// 🔗 Webhooks
		admin.GET("/webhooks", h.AdminHandler.ListWebhooks)
		admin.PATCH("/webhooks/:id", h.AdminHandler.UpdateWebhook)
		admin.POST("/webhooks/:id/test", h.AdminHandler.TestWebhook)

		// 📦 Downloads
		admin.GET("/downloads", h.DownloadHandler.AdminList)
		admin.POST("/downloads", h.DownloadHandler.AdminUpload)
		admin.PATCH("/downloads/:id", h.DownloadHandler.AdminUpdate)
		admin.DELETE("/downloads/:id", h.DownloadHandler.AdminDelete)

		// 🏷 Promotions
		admin.GET("/promotions", h.PromotionHandler.List)
		admin.POST("/promotions", h.PromotionHandler.Create)
		admin.PATCH("/promotions/:id", h.PromotionHandler.Update)
		admin.DELETE("/promotions/:id", h.PromotionHandler.Delete)

		// ✉️ Email templates
		admin.GET("/email-templates", h.EmailTemplateHandler.List)
		admin.POST("/email-templates", h.EmailTemplateHandler.Create)
		admin.GET("/email-templates/:id", h.EmailTemplateHandler.Get)
		admin.PATCH("/email-templates/:id", h.EmailTemplateHandler.Update)
		admin.DELETE("/email-templates/:id", h.EmailTemplateHandler.Delete)
		admin.POST("/email-templates/:id/preview", h.EmailTemplateHandler.Preview)
		admin.POST("/email-templates/:id/send-test", h.EmailTemplateHandler.SendTest)

		// ⚙️ Site config
		admin.GET("/site-config", h.SiteHandler.ListConfig)
		admin.GET("/site-config/:key", h.SiteHandler.GetConfig)
		admin.PUT("/site-config/:key", h.SiteHandler.SetConfig)
		admin.DELETE("/site-config/:key", h.SiteHandler.DeleteConfig)

		// 📝 Blog
		admin.GET("/blog", h.SiteHandler.ListPosts)
		admin.POST("/blog", h.SiteHandler.CreatePost)
		admin.GET("/blog/:id", h.SiteHandler.GetPost)
		admin.PATCH("/blog/:id", h.SiteHandler.UpdatePost)
		admin.DELETE("/blog/:id", h.SiteHandler.DeletePost)
	}
}
