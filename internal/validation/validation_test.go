package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grillhouse/internal/apperr"
)

type loginPayload struct {
	Phone string  `json:"phone" validate:"required,phone"`
	Code  string  `json:"code" validate:"required,otpcode"`
	Name  *string `json:"name" validate:"omitnil,min=2"`
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	short := "A"
	err := Struct(loginPayload{Phone: "0501234567", Code: "ABC0EF", Name: &short})

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidation, appErr.Code)

	details := appErr.Details.(map[string][]string)
	assert.Equal(t, []string{"phone must be in +380XXXXXXXXX format"}, details["phone"])
	assert.Equal(t, []string{"code must be a 6 character code"}, details["code"])
	assert.Equal(t, []string{"name must be at least 2 characters"}, details["name"])
}

func TestStructAcceptsValidPayload(t *testing.T) {
	assert.NoError(t, Struct(loginPayload{Phone: "+380501234567", Code: "ABC2EF"}))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("email", "olena@example.com", "email"))

	appErr, ok := apperr.As(Var("email", "nope", "required,email"))
	require.True(t, ok)
	assert.Equal(t, map[string][]string{"email": {"email must be a valid email address"}}, appErr.Details)
}
