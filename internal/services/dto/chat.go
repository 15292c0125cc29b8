package dto

import (
	"time"

	"chatsaas_backend/internal/models"
)

type ChatRequest struct {
	ChatbotID      string `json:"chatbotId" validate:"required"`
	Message        string `json:"message" validate:"required,notblank,max=10000"`
	ConversationID string `json:"conversationId" validate:"omitempty"`

	// ClientKey - ключ анонимного клиента, выставляется хэндлером из cookie
	ClientKey string `json:"-"`
}

type ChatResponse struct {
	Success        bool   `json:"success"`
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	Content        string `json:"content"`
}

type CreateChatbotRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
	WebhookURL  string `json:"webhookUrl" validate:"omitempty,http_url"`
	AccessLevel string `json:"accessLevel" validate:"omitempty,is-access-level"`
}

type UpdateChatbotRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	WebhookURL  *string `json:"webhookUrl" validate:"omitempty,http_url"`
	IsActive    *bool   `json:"isActive"`
	AccessLevel *string `json:"accessLevel" validate:"omitempty,is-access-level"`
}

type ConversationResponse struct {
	ID        string    `json:"id"`
	ChatbotID string    `json:"chatbotId"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewConversationResponse(c *models.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:        c.ID,
		ChatbotID: c.ChatbotID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type MessageResponse struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	IsFromUser bool      `json:"isFromUser"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewMessageResponse(m *models.Message) *MessageResponse {
	return &MessageResponse{
		ID:         m.ID,
		Content:    m.Content,
		IsFromUser: m.IsFromUser,
		CreatedAt:  m.CreatedAt,
	}
}
