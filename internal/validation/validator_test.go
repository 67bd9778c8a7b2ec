package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/validation"
)

type TestRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,max=1024"`
	Name     string   `json:"name" validate:"notblank"`
	Type     string   `json:"type" validate:"oneof=loan exchange sale"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

func validRequest() TestRequest {
	return TestRequest{
		Email:    "test@example.com",
		Password: "password123",
		Name:     "Test User",
		Type:     "loan",
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(validRequest()))
}

func TestNew_RegistersNotBlank(t *testing.T) {
	var v *validation.Validator
	require.NotPanics(t, func() { v = validation.New() })

	req := validRequest()
	req.Name = "\t \n"
	assert.Error(t, v.Validate(req))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()
	negative := -1.0

	tests := []struct {
		name      string
		mutate    func(r *TestRequest)
		wantField string
		wantMsg   string
	}{
		{"missing name", func(r *TestRequest) { r.Name = "" }, "name", "is required"},
		{"blank name", func(r *TestRequest) { r.Name = "   " }, "name", "is required"},
		{"invalid email", func(r *TestRequest) { r.Email = "not-an-email" }, "email", "must be a valid email address"},
		{"password too short", func(r *TestRequest) { r.Password = "short" }, "password", "must be at least 8 characters"},
		{"password too long", func(r *TestRequest) { r.Password = strings.Repeat("x", 1025) }, "password", "must not exceed 1024 characters"},
		{"unknown type", func(r *TestRequest) { r.Type = "gift" }, "type", "must be one of: loan exchange sale"},
		{"negative price", func(r *TestRequest) { r.Type = "sale"; r.Price = &negative }, "price", "must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

			var domainErr *domainerrors.Error
			require.True(t, domainerrors.As(err, &domainErr))
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
			assert.Contains(t, domainErr.Message, tt.wantField)
		})
	}
}

func TestValidator_MessageListsFieldsInOrder(t *testing.T) {
	v := validation.New()

	req := validRequest()
	req.Email = ""
	req.Name = ""

	err := v.Validate(req)
	require.Error(t, err)
	assert.Equal(t, "validation failed: email is required; name is required", err.Error())
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := validRequest()
	req.Email = ""

	err := v.Validate(req)
	assert.Error(t, err)

	// Should use JSON tag name "email", not struct field name "Email"
	assert.Contains(t, err.Error(), "email")
	assert.NotContains(t, err.Error(), "Email")
}
