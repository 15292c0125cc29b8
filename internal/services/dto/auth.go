package dto

import (
	"time"

	"chatsaas_backend/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateMeRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	WhatsappNumber *string `json:"whatsappNumber" validate:"omitempty,e164"`
}

// UserResponse - публичное представление пользователя
type UserResponse struct {
	ID                 string                  `json:"id"`
	Email              string                  `json:"email"`
	Name               string                  `json:"name"`
	Image              string                  `json:"image,omitempty"`
	Role               models.UserRole         `json:"role"`
	Subscription       models.SubscriptionTier `json:"subscription"`
	SubscriptionEndsAt *time.Time              `json:"subscriptionEndsAt"`
	HasActivePro       bool                    `json:"hasActivePro"`
	WhatsappNumber     *string                 `json:"whatsappNumber,omitempty"`
	EmailVerified      *time.Time              `json:"emailVerified"`
	CreatedAt          time.Time               `json:"createdAt"`
}

func NewUserResponse(u *models.User, now time.Time) *UserResponse {
	active := u.Subscription == models.SubscriptionPro &&
		(u.SubscriptionEndsAt == nil || u.SubscriptionEndsAt.After(now))
	return &UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Image:              u.Image,
		Role:               u.Role,
		Subscription:       u.Subscription,
		SubscriptionEndsAt: u.SubscriptionEndsAt,
		HasActivePro:       active,
		WhatsappNumber:     u.WhatsappNumber,
		EmailVerified:      u.EmailVerified,
		CreatedAt:          u.CreatedAt,
	}
}

// AuthResult - результат успешного входа: пользователь + токены для cookie
type AuthResult struct {
	User         *UserResponse
	Token        string
	SessionToken string
}
