package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/tradeware/securecore/internal/errors"
)

func TestNotBlank(t *testing.T) {
	t.Run("Success_NonBlankString", func(t *testing.T) {
		assert.NoError(t, validation.Validate("user-1", NotBlank))
	})

	t.Run("Error_WhitespaceOnly", func(t *testing.T) {
		assert.Error(t, validation.Validate("   ", NotBlank))
	})
}

func TestWrapValidationError(t *testing.T) {
	t.Run("Success_NilPassesThrough", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("Success_WrapsAsInvalidInput", func(t *testing.T) {
		err := WrapValidationError(validation.Validate("", validation.Required))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}
