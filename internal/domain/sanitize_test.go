package domain

import (
	"regexp"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"My List!!", "MyList"},
		{"A", "A"},
		{"B (2024)", "B2024"},
		{"", ""},
		{"!!! ...", ""},
		{"../../etc/passwd", "etcpasswd"},
		{"Café Señor", "CafSeor"},
		{"a  b  c", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	alnum := regexp.MustCompile(`^[A-Za-z0-9]*$`)

	onlyAlnum := func(s string) bool {
		return alnum.MatchString(Sanitize(s))
	}
	idempotent := func(s string) bool {
		once := Sanitize(s)
		return Sanitize(once) == once
	}

	require.NoError(t, quick.Check(onlyAlnum, nil))
	require.NoError(t, quick.Check(idempotent, nil))
}
