package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Chatbot struct {
	BaseModel
	Name        string      `gorm:"not null" json:"name"`
	Description string      `json:"description"`
	WebhookURL  string      `json:"webhookUrl"`
	IsActive    bool        `gorm:"not null" json:"isActive"`
	AccessLevel AccessLevel `gorm:"type:varchar(20);not null;default:'PUBLIC'" json:"accessLevel"`
	UserID      string      `gorm:"type:uuid;not null;index" json:"userId"`
}

// Conversation принадлежит паре (user, chatbot) на все время жизни.
// UserID пустой для анонимных диалогов.
type Conversation struct {
	BaseModel
	ChatbotID string  `gorm:"type:uuid;not null;index" json:"chatbotId"`
	UserID    *string `gorm:"type:uuid;index" json:"userId"`
	Title     *string `json:"title"`
	// ClientKeyHash - sha256 ключа анонимного клиента (cookie chat-client); nil у диалогов пользователей
	ClientKeyHash *string   `gorm:"size:64;index" json:"-"`
	Messages      []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// Message - один ход диалога. Position задает полный порядок внутри диалога.
type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:uuid;not null;uniqueIndex:idx_message_position,priority:1" json:"conversationId"`
	Position       int       `gorm:"not null;uniqueIndex:idx_message_position,priority:2" json:"position"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsFromUser     bool      `gorm:"not null" json:"isFromUser"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
