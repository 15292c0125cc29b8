package models

import (
	"time"

	"gorm.io/datatypes"
)

type EmailTemplate struct {
	BaseModel
	Name      string                      `gorm:"uniqueIndex;not null" json:"name"`
	Subject   string                      `gorm:"not null" json:"subject"`
	Body      string                      `gorm:"type:text;not null" json:"body"`
	Variables datatypes.JSONSlice[string] `json:"variables"`
	IsActive  bool                        `gorm:"not null" json:"isActive"`
}

// SiteConfig - персистентная замена конфигурации, которая раньше жила в памяти процесса.
type SiteConfig struct {
	BaseModel
	Key      string         `gorm:"column:config_key;uniqueIndex;not null" json:"key"`
	Value    datatypes.JSON `json:"value"`
	IsPublic bool           `gorm:"not null" json:"isPublic"`
}

type BlogPost struct {
	BaseModel
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string     `gorm:"not null" json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `gorm:"type:text" json:"content"`
	Published   bool       `gorm:"not null;index" json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	AuthorID    *string    `gorm:"type:uuid" json:"authorId"`
}

type PaymentEvent struct {
	BaseModel
	EventID string         `gorm:"uniqueIndex;not null" json:"eventId"`
	Type    string         `gorm:"not null" json:"type"`
	Email   string         `json:"email"`
	Payload datatypes.JSON `json:"payload"`
}
