package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailShape(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"billing@acme.in", true},
		{"a@b.c", true},
		{"bad", false},
		{"no-domain@", false},
		{"user@nodot", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmailShape(tt.email))
		})
	}
}

func TestIsTenDigitPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"987654321", false},
		{"98765432100", false},
		{"98765-43210", false},
		{"+919876543210", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTenDigitPhone(tt.phone))
		})
	}
}

func TestValidatePercentage(t *testing.T) {
	assert.NoError(t, ValidatePercentage(0))
	assert.NoError(t, ValidatePercentage(18))
	assert.NoError(t, ValidatePercentage(100))
	assert.Error(t, ValidatePercentage(-1))
	assert.Error(t, ValidatePercentage(100.5))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Acme Ltd", SanitizeString("Acme\x00 Ltd\x7f"))
	assert.Equal(t, "plain", SanitizeString("plain"))
	assert.Equal(t, "12 Main St\nPune", SanitizeString("12 Main St\r\nPune"))
	assert.Equal(t, "a\tb", SanitizeString("a\tb\x1b"))
}
