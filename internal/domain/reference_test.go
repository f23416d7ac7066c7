package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReference(t *testing.T) {
	tests := []struct {
		ref   string
		valid bool
	}{
		{"https://www.youtube.com/playlist?list=PL123", true},
		{"http://youtu.be/abc", true},
		{"  https://example.com/x  ", true},
		{"not a url", false},
		{"  ", false},
		{"", false},
		{"ftp://example.com/file", false},
		{"https://", false},
		{"www.youtube.com/watch?v=abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			_, err := ValidateReference(tt.ref)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateReference_Trims(t *testing.T) {
	ref, err := ValidateReference("  https://example.com/x \n")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", ref)
}

func TestValidateReferences(t *testing.T) {
	valid, rejected, err := ValidateReferences([]string{
		"https://example.com/a",
		"not a url",
		" https://example.com/b",
		"  ",
	})

	require.Error(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, valid)
	assert.Equal(t, []string{"not a url", "  "}, rejected)
	assert.Contains(t, err.Error(), "2 errors occurred")
}

func TestValidateReferences_AllValid(t *testing.T) {
	valid, rejected, err := ValidateReferences([]string{"https://example.com/a"})

	assert.NoError(t, err)
	assert.Len(t, valid, 1)
	assert.Empty(t, rejected)
}
