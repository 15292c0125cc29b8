package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler          *AuthHandler
	ChatHandler          *ChatHandler
	WSHandler            *WSHandler
	DownloadHandler      *DownloadHandler
	PromotionHandler     *PromotionHandler
	EmailTemplateHandler *EmailTemplateHandler
	SiteHandler          *SiteHandler
	AdminHandler         *AdminHandler
	PaymentHandler       *PaymentHandler
}
