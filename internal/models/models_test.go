package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag_BeforeSave(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		want      string
		wantError bool
	}{
		{"lowercases", "Python", "python", false},
		{"trims whitespace", "  Django ", "django", false},
		{"already normalized", "go", "go", false},
		{"empty", "   ", "", true},
		{"too long", "abcdefghijklmnopqrstu", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := &Tag{Title: tt.title}
			err := tag.BeforeSave(nil)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, IsCode(err, CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag.Title)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("post", "missing"), fiber.StatusNotFound},
		{NewAmbiguousError("post", "dup", 2), fiber.StatusConflict},
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewUnauthorizedError("nope"), fiber.StatusUnauthorized},
		{NewForbiddenError("staff only"), fiber.StatusForbidden},
		{fmt.Errorf("load post: %w", NewNotFoundError("post", "x")), fiber.StatusNotFound},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: connection reset", err.Error())
}

func TestPost_HasImage(t *testing.T) {
	assert.False(t, (&Post{}).HasImage())
	assert.True(t, (&Post{Image: "cats.jpg"}).HasImage())
}
