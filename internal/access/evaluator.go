package access

import (
	"time"

	"chatsaas_backend/internal/models"
	"chatsaas_backend/pkg/apperrors"
)

// Evaluator - единая точка принятия решений о доступе.
type Evaluator interface {
	// CanAccess решает, может ли identity получить ресурс уровня level
	CanAccess(level models.AccessLevel, identity *Identity) bool
	// Authorize - то же самое, но возвращает 401/403
	Authorize(level models.AccessLevel, identity *Identity) error
	// RequireAdmin возвращает 401 для анонима и 403 для не-админа
	RequireAdmin(identity *Identity) error
}

// Policy - реализация Evaluator.
// AllowPublic=false поднимает PUBLIC до REGISTERED (настройка деплоя).
type Policy struct {
	AllowPublic bool
	Now         func() time.Time
}

func NewPolicy(allowPublic bool) *Policy {
	return &Policy{AllowPublic: allowPublic, Now: time.Now}
}

func (p *Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Effective возвращает уровень с учетом настройки AllowPublic
func (p *Policy) Effective(level models.AccessLevel) models.AccessLevel {
	if level == models.AccessPublic && !p.AllowPublic {
		return models.AccessRegistered
	}
	return level
}

func (p *Policy) CanAccess(level models.AccessLevel, identity *Identity) bool {
	switch p.Effective(level) {
	case models.AccessPublic:
		return true
	case models.AccessRegistered:
		return identity.IsAuthenticated()
	case models.AccessPremium:
		return identity.HasActivePro(p.now())
	default:
		// неизвестный уровень - запрещаем
		return false
	}
}

func (p *Policy) Authorize(level models.AccessLevel, identity *Identity) error {
	if p.CanAccess(level, identity) {
		return nil
	}
	if !identity.IsAuthenticated() {
		return apperrors.ErrAuthenticationRequired
	}
	return apperrors.ErrInsufficientEntitlement
}

func (p *Policy) RequireAdmin(identity *Identity) error {
	if !identity.IsAuthenticated() {
		return apperrors.ErrAuthenticationRequired
	}
	if !identity.IsAdmin() {
		return apperrors.ErrAdminRequired
	}
	return nil
}
