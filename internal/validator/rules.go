package validator

import (
	"regexp"
	"strings"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Если правило не удалось зарегистрировать, приложение
			// не должно запускаться, так как это критическая ошибка.
			logger.Fatal("failed to register custom validation tag", "tag", tag, "error", err)
		}
	}

	// ➡️ Правила, основанные на 'statuses.go'
	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-subscription", validateSubscription)
	mustRegister("is-access-level", validateAccessLevel)
	mustRegister("is-discount-type", validateDiscountType)

	mustRegister("is-slug", validateSlug)
	mustRegister("notblank", validateNotBlank)
}

// --- Функции валидации ---
// Пустые значения пропускаются, для этого есть 'required'.

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.UserRole(value).Valid()
}

func validateSubscription(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.SubscriptionTier(value).Valid()
}

func validateAccessLevel(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.ParseAccessLevel(value)
	return ok
}

func validateDiscountType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.DiscountType(value).Valid()
}

func validateSlug(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || slugRe.MatchString(value)
}

// validateNotBlank отсекает строки из одних пробелов
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
