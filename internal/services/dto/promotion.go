package dto

import (
	"time"

	"chatsaas_backend/internal/models"
)

type PromotionCodeRequest struct {
	Code string `json:"code" validate:"required,min=1,max=50"`
}

type PromotionValidationResponse struct {
	Valid         bool                `json:"valid"`
	Code          string              `json:"code"`
	DiscountType  models.DiscountType `json:"discountType,omitempty"`
	DiscountValue float64             `json:"discountValue,omitempty"`
	Reason        string              `json:"reason,omitempty"`
}

type CreatePromotionRequest struct {
	Code          string     `json:"code" validate:"required,min=2,max=50"`
	Description   string     `json:"description" validate:"max=500"`
	DiscountType  string     `json:"discountType" validate:"required,is-discount-type"`
	DiscountValue float64    `json:"discountValue" validate:"required,gt=0"`
	UsageLimit    *int       `json:"usageLimit" validate:"omitempty,min=1"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	IsActive      *bool      `json:"isActive"`
}

type UpdatePromotionRequest struct {
	Code          *string    `json:"code" validate:"omitempty,min=2,max=50"`
	Description   *string    `json:"description" validate:"omitempty,max=500"`
	DiscountType  *string    `json:"discountType" validate:"omitempty,is-discount-type"`
	DiscountValue *float64   `json:"discountValue" validate:"omitempty,gt=0"`
	UsageLimit    *int       `json:"usageLimit" validate:"omitempty,min=1"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	IsActive      *bool      `json:"isActive"`
}
