package access

import (
	"testing"
	"time"

	"chatsaas_backend/internal/models"
	"chatsaas_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newPolicy(allowPublic bool) *Policy {
	return &Policy{AllowPublic: allowPublic, Now: func() time.Time { return fixedNow }}
}

func identity(role models.UserRole, tier models.SubscriptionTier, endsAt *time.Time) *Identity {
	return &Identity{ID: "u1", Email: "u@example.com", Role: role, Subscription: tier, SubscriptionEndsAt: endsAt}
}

func ptr(t time.Time) *time.Time { return &t }

func TestCanAccess_Premium(t *testing.T) {
	p := newPolicy(true)

	tests := []struct {
		name     string
		identity *Identity
		want     bool
	}{
		{"pro without expiry", identity(models.UserRoleUser, models.SubscriptionPro, nil), true},
		{"pro expiring tomorrow", identity(models.UserRoleUser, models.SubscriptionPro, ptr(fixedNow.Add(24*time.Hour))), true},
		{"pro expired yesterday", identity(models.UserRoleUser, models.SubscriptionPro, ptr(fixedNow.Add(-24*time.Hour))), false},
		{"pro expiring exactly now", identity(models.UserRoleUser, models.SubscriptionPro, ptr(fixedNow)), false},
		{"free user", identity(models.UserRoleUser, models.SubscriptionFree, nil), false},
		{"free admin", identity(models.UserRoleAdmin, models.SubscriptionFree, nil), false},
		{"free with future expiry", identity(models.UserRoleUser, models.SubscriptionFree, ptr(fixedNow.Add(time.Hour))), false},
		{"anonymous", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanAccess(models.AccessPremium, tt.identity))
		})
	}
}

func TestCanAccess_RegisteredAndPublic(t *testing.T) {
	p := newPolicy(true)
	user := identity(models.UserRoleUser, models.SubscriptionFree, nil)

	assert.False(t, p.CanAccess(models.AccessRegistered, nil))
	assert.True(t, p.CanAccess(models.AccessRegistered, user))
	assert.True(t, p.CanAccess(models.AccessPublic, nil))
	assert.True(t, p.CanAccess(models.AccessPublic, user))

	// пустой ID не считается аутентификацией
	assert.False(t, p.CanAccess(models.AccessRegistered, &Identity{}))
	assert.False(t, p.CanAccess(models.AccessLevel("SECRET"), user))
}

func TestCanAccess_PublicDisabled(t *testing.T) {
	p := newPolicy(false)

	assert.False(t, p.CanAccess(models.AccessPublic, nil))
	assert.True(t, p.CanAccess(models.AccessPublic, identity(models.UserRoleUser, models.SubscriptionFree, nil)))
}

func TestAuthorize_StatusCodes(t *testing.T) {
	p := newPolicy(true)

	err := p.Authorize(models.AccessPremium, nil)
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	err = p.Authorize(models.AccessPremium, identity(models.UserRoleUser, models.SubscriptionFree, nil))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientEntitlement)

	assert.NoError(t, p.Authorize(models.AccessPremium, identity(models.UserRoleUser, models.SubscriptionPro, nil)))
}

func TestRequireAdmin(t *testing.T) {
	p := newPolicy(true)

	assert.ErrorIs(t, p.RequireAdmin(nil), apperrors.ErrAuthenticationRequired)
	assert.ErrorIs(t, p.RequireAdmin(identity(models.UserRoleUser, models.SubscriptionPro, nil)), apperrors.ErrAdminRequired)
	assert.NoError(t, p.RequireAdmin(identity(models.UserRoleAdmin, models.SubscriptionFree, nil)))
}
