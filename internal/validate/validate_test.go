package validate

import (
	"testing"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title    string             `json:"title" validate:"required"`
	Summary  string             `json:"summary" validate:"required,max=5"`
	Phone    string             `json:"phone" validate:"omitempty,numeric,len=11"`
	Email    string             `json:"email" validate:"omitempty,email"`
	Category types.NewsCategory `json:"category" validate:"omitempty,enum"`
}

func TestStructPasses(t *testing.T) {
	err := Struct(sample{
		Title:    "ok",
		Summary:  "short",
		Phone:    "03001234567",
		Email:    "a@b.co",
		Category: types.CategoryEvents,
	})
	assert.NoError(t, err)
}

func TestStructCollectsEveryFieldMessage(t *testing.T) {
	err := Struct(sample{Summary: "too long", Phone: "123", Category: "Gossip"})
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, []string{
		"title is required!",
		"summary cannot exceed 5 characters!",
		"phone must contain exactly 11 characters!",
		`category has an unsupported value "Gossip"!`,
	}, appErr.Details)
}

func TestStructRejectsBadEmail(t *testing.T) {
	err := Struct(sample{Title: "t", Summary: "s", Email: "not-an-email"})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Provide a valid email!"}, appErr.Details)
}
