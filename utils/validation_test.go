package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Topic string `validate:"required"`
	Style string `validate:"omitempty,oneof=professional casual academic"`
	Limit int    `validate:"omitempty,gt=0"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{Topic: "go", Style: "casual", Limit: 5})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{Style: "casual"})
		require.Error(t, err)
		require.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Topic")
		assert.Equal(t, "Topic is required", fields["Topic"])
	})

	t.Run("oneof violation", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{Topic: "go", Style: "breathless"})
		require.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "Style must be one of: professional casual academic", fields["Style"])
	})

	t.Run("range violation", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{Topic: "go", Limit: -1})
		require.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "Limit must be greater than 0", fields["Limit"])
	})

	t.Run("multiple violations collected", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{Style: "breathless", Limit: -1})
		require.True(t, IsValidationError(err))
		assert.Len(t, GetValidationFields(err), 3)
	})
}

func TestIsValidationErrorRejectsOtherErrors(t *testing.T) {
	assert.False(t, IsValidationError(errors.New("boom")))
	assert.Nil(t, GetValidationFields(errors.New("boom")))
}
