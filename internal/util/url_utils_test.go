package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host gets https", "example.com", "https://example.com"},
		{"keeps http", "http://example.com/a", "http://example.com/a"},
		{"trims whitespace", "  https://test.com  ", "https://test.com"},
		{"lowercases host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"drops fragment", "https://example.com/page#section", "https://example.com/page"},
		{"keeps query", "example.com/search?q=go", "https://example.com/search?q=go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "ftp://example.com", "https://"} {
		_, err := NormalizeURL(in)
		assert.ErrorIs(t, err, ErrInvalidURL, "input %q", in)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("example.com\n\n  https://test.com \n# comment\n")
	assert.Equal(t, []string{"example.com", "https://test.com"}, got)
}
