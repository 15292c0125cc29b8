package access

import (
	"time"

	"chatsaas_backend/internal/models"
)

// Identity - аутентифицированный субъект запроса.
// nil *Identity означает анонимного пользователя.
type Identity struct {
	ID                 string                  `json:"id"`
	Email              string                  `json:"email"`
	Name               string                  `json:"name"`
	Role               models.UserRole         `json:"role"`
	Subscription       models.SubscriptionTier `json:"subscription"`
	SubscriptionEndsAt *time.Time              `json:"subscriptionEndsAt"`
}

// IdentityFromUser строит Identity из свежей записи пользователя
func IdentityFromUser(u *models.User) *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		Subscription:       u.Subscription,
		SubscriptionEndsAt: u.SubscriptionEndsAt,
	}
}

func (i *Identity) IsAuthenticated() bool {
	return i != nil && i.ID != ""
}

func (i *Identity) IsAdmin() bool {
	return i.IsAuthenticated() && i.Role == models.UserRoleAdmin
}

// HasActivePro - PRO и (нет даты окончания или она в будущем)
func (i *Identity) HasActivePro(now time.Time) bool {
	if !i.IsAuthenticated() || i.Subscription != models.SubscriptionPro {
		return false
	}
	return i.SubscriptionEndsAt == nil || i.SubscriptionEndsAt.After(now)
}
