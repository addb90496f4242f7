package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRuleName(t *testing.T) {
	tests := map[string]string{
		"x-xss-protection":          "X-XSS-Protection",
		"x-frame-options":           "X-Frame-Options",
		"x-content-type-options":    "X-Content-Type-Options",
		"subresource-integrity":     "Subresource integrity",
		"content-security-policy":   "Content security policy",
		"strict-transport-security": "Strict transport security",
		"redirection":               "Redirection",
		"max-age":                   "Max age",
		"referrer-policy-x-test":    "Referrer policy x test",
		"":                          "",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, FormatRuleName(input), "FormatRuleName(%q)", input)
		// pure: same input, same output
		assert.Equal(t, FormatRuleName(input), FormatRuleName(input))
	}
}

func TestHostOf(t *testing.T) {
	tests := map[string]string{
		"https://example.com/path":      "example.com",
		"http://example.com:8080/a?b=c": "example.com",
		"https://sub.example.co.uk":     "sub.example.co.uk",
		"example.com/path":              "example.com",
		"http://localhost:3030":         "localhost",
	}
	for input, expected := range tests {
		got, err := HostOf(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	_, err := HostOf("https://")
	assert.Error(t, err)
}

func TestScalarString(t *testing.T) {
	s, err := scalarString(90)
	require.NoError(t, err)
	assert.Equal(t, "90", s)

	s, err = scalarString(float64(88))
	require.NoError(t, err)
	assert.Equal(t, "88", s)

	s, err = scalarString(0.5)
	require.NoError(t, err)
	assert.Equal(t, "0.5", s)

	_, err = scalarString(nil)
	assert.Error(t, err)

	_, err = scalarString(map[string]any{})
	assert.Error(t, err)
}
