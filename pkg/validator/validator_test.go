package validator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOriginalURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"absolute https", "https://example.com/path?q=1", nil},
		{"absolute http", "http://example.com", nil},
		{"schemeless", "example.com", nil},
		{"schemeless with path", "example.com/a/b", nil},
		{"empty", "", ErrEmptyURL},
		{"whitespace", "   ", ErrEmptyURL},
		{"schemeless with scheme in query", "example.com/?next=http://x", nil},
		{"schemeless with port and nested url", "example.com:8080/go?u=https://y.org", nil},
		{"ftp scheme", "ftp://example.com", ErrInvalidScheme},
		{"custom scheme", "git+ssh://example.com/repo", ErrInvalidScheme},
		{"missing host", "http://", ErrInvalidHost},
		{"too long", "https://example.com/" + strings.Repeat("a", 2100), ErrURLTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOriginalURL(tt.url)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateTags(t *testing.T) {
	assert.NoError(t, ValidateTags(nil))
	assert.NoError(t, ValidateTags([]string{"go", "news"}))
	assert.ErrorIs(t, ValidateTags([]string{"go", " "}), ErrEmptyTag)
	assert.ErrorIs(t, ValidateTags([]string{strings.Repeat("x", 65)}), ErrTagTooLong)
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(fmt.Errorf("create: %w", ErrInvalidScheme)))
	assert.False(t, IsValidationError(assert.AnError))
}
