package dto

import "time"

type UserListQuery struct {
	Role         string `form:"role" validate:"omitempty,is-user-role"`
	Subscription string `form:"subscription" validate:"omitempty,is-subscription"`
	Search       string `form:"search" validate:"max=100"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type UserListResponse struct {
	Users    []*UserResponse `json:"users"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

type AdminUpdateUserRequest struct {
	Name               *string    `json:"name" validate:"omitempty,min=1,max=100"`
	Role               *string    `json:"role" validate:"omitempty,is-user-role"`
	Subscription       *string    `json:"subscription" validate:"omitempty,is-subscription"`
	SubscriptionEndsAt *time.Time `json:"subscriptionEndsAt"`
	// ClearSubscriptionEnd=true обнуляет дату окончания (бессрочная подписка)
	ClearSubscriptionEnd bool    `json:"clearSubscriptionEnd"`
	WhatsappNumber       *string `json:"whatsappNumber" validate:"omitempty,e164"`
}

type StatsResponse struct {
	Users          int64 `json:"users"`
	ProUsers       int64 `json:"proUsers"`
	Conversations  int64 `json:"conversations"`
	Messages       int64 `json:"messages"`
	Downloads      int64 `json:"downloads"`
	TotalDownloads int64 `json:"totalDownloads"`
}

type WebhookResponse struct {
	ChatbotID  string `json:"chatbotId"`
	Name       string `json:"name"`
	WebhookURL string `json:"webhookUrl"`
	IsActive   bool   `json:"isActive"`
	OwnerID    string `json:"ownerId"`
}

type UpdateWebhookRequest struct {
	WebhookURL *string `json:"webhookUrl" validate:"omitempty,http_url"`
	IsActive   *bool   `json:"isActive"`
}

type WebhookTestResponse struct {
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
}

type PaymentWebhookEvent struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required"`
	Data struct {
		Email     string     `json:"email" validate:"required,email"`
		Plan      string     `json:"plan"`
		PeriodEnd *time.Time `json:"periodEnd"`
	} `json:"data"`
}

type PaymentWebhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}
