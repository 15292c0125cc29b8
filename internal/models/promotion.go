package models

import "time"

type Promotion struct {
	BaseModel
	Code          string       `gorm:"uniqueIndex;not null" json:"code"`
	Description   string       `json:"description"`
	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discountType"`
	DiscountValue float64      `gorm:"not null" json:"discountValue"`
	UsageLimit    *int         `json:"usageLimit"`
	UsedCount     int          `gorm:"not null;default:0" json:"usedCount"`
	ExpiresAt     *time.Time   `json:"expiresAt"`
	IsActive      bool         `gorm:"not null" json:"isActive"`
}
