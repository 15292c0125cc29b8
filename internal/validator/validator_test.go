package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Role         *string `json:"role" validate:"omitempty,is-user-role"`
	Subscription string  `json:"subscription" validate:"omitempty,is-subscription"`
	AccessLevel  string  `json:"accessLevel" validate:"omitempty,is-access-level"`
	DiscountType string  `json:"discountType" validate:"omitempty,is-discount-type"`
	Slug         string  `json:"slug" validate:"omitempty,is-slug"`
}

func strPtr(s string) *string { return &s }

func TestValidate_OK(t *testing.T) {
	v := New()
	req := sampleRequest{
		Email:        "a@example.com",
		Role:         strPtr("ADMIN"),
		Subscription: "PRO",
		AccessLevel:  "PRO", // синоним PREMIUM
		DiscountType: "FIXED",
		Slug:         "hello-world-2",
	}
	assert.NoError(t, v.Validate(req))
}

func TestValidate_UsesJSONNames(t *testing.T) {
	v := New()
	req := sampleRequest{
		Email:        "not-an-email",
		Role:         strPtr("ROOT"),
		Subscription: "GOLD",
		AccessLevel:  "SECRET",
		DiscountType: "BOGO",
		Slug:         "Bad Slug",
	}

	err := v.Validate(req)
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	for _, field := range []string{"email", "role", "subscription", "accessLevel", "discountType", "slug"} {
		assert.Contains(t, vErr.Errors, field)
	}
	assert.Equal(t, "Must be one of: USER, ADMIN", vErr.Errors["role"])
}

func TestValidate_NotBlank(t *testing.T) {
	v := New()
	type chatRequest struct {
		Message string `json:"message" validate:"required,notblank"`
	}

	assert.NoError(t, v.Validate(chatRequest{Message: " hi "}))

	err := v.Validate(chatRequest{Message: " \t\n "})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Must not be blank", vErr.Errors["message"])
}
