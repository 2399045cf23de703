package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
)

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("service: create: %w", apperror.Invalid("email", "is required"))

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "email: is required", apperror.Message(err, "fallback"))
}

func TestDomainError(t *testing.T) {
	errOrderNotFound := apperror.New(apperror.ErrNotFound, "order not found")
	err := fmt.Errorf("service: get order: %w", errOrderNotFound)

	assert.ErrorIs(t, err, errOrderNotFound)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "order not found", apperror.Message(err, "fallback"))
	assert.Equal(t, "fallback", apperror.Message(errors.New("db down"), "fallback"))
}
