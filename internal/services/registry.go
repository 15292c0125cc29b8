package services

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService          AuthService
	OAuthService         OAuthService
	ChatbotService       ChatbotService
	ChatService          ChatService
	DownloadService      DownloadService
	PromotionService     PromotionService
	EmailTemplateService EmailTemplateService
	SiteService          SiteService
	AdminService         AdminService
	PaymentService       PaymentService
}
