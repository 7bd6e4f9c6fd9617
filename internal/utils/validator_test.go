// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type offerPayload struct {
	Title   string `validate:"required"`
	Message string `validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(&offerPayload{Title: "swap", Message: "hi"}))

	err := ValidateStruct(&offerPayload{Title: "swap", Message: "too long"})
	assert.Error(t, err)

	errs := GetValidationErrors(err)
	assert.Len(t, errs, 1)
	assert.Equal(t, "max", errs[0].Tag)
	assert.Equal(t, "Message must be at most 5", errs[0].Message)
}

func TestGetValidationErrorsMessages(t *testing.T) {
	err := ValidateStruct(&offerPayload{})
	errs := GetValidationErrors(err)
	assert.Len(t, errs, 1)
	assert.Equal(t, "title", errs[0].Field)
	assert.Equal(t, "Title is required", errs[0].Message)

	assert.Empty(t, GetValidationErrors(nil))
}
