package models

import "time"

type User struct {
	BaseModel
	Email              string           `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       *string          `json:"-"`
	Name               string           `json:"name"`
	Image              string           `json:"image,omitempty"`
	Role               UserRole         `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	Subscription       SubscriptionTier `gorm:"type:varchar(20);not null;default:'FREE'" json:"subscription"`
	SubscriptionEndsAt *time.Time       `json:"subscriptionEndsAt"`
	WhatsappNumber     *string          `json:"whatsappNumber,omitempty"`
	EmailVerified      *time.Time       `json:"emailVerified"`
	VerificationToken  string           `gorm:"index" json:"-"`
	GoogleID           *string          `gorm:"uniqueIndex" json:"-"`
}

// Session - серверная сессия (выдается при OAuth входе).
type Session struct {
	BaseModel
	Token     string    `gorm:"uniqueIndex;not null"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
