package models

import "strings"

type UserRole string
type SubscriptionTier string
type AccessLevel string
type DiscountType string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"

	SubscriptionFree SubscriptionTier = "FREE"
	SubscriptionPro  SubscriptionTier = "PRO"

	AccessPublic     AccessLevel = "PUBLIC"
	AccessRegistered AccessLevel = "REGISTERED"
	AccessPremium    AccessLevel = "PREMIUM"

	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// ParseAccessLevel нормализует уровень доступа. "PRO" - синоним PREMIUM.
func ParseAccessLevel(s string) (AccessLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PUBLIC":
		return AccessPublic, true
	case "REGISTERED":
		return AccessRegistered, true
	case "PREMIUM", "PRO":
		return AccessPremium, true
	default:
		return "", false
	}
}

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

func (s SubscriptionTier) Valid() bool {
	return s == SubscriptionFree || s == SubscriptionPro
}

func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}
