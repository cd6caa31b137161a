package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"adds trailing slash", "http://127.0.0.1:8080", "http://127.0.0.1:8080/"},
		{"keeps trailing slash", "http://127.0.0.1:8080/", "http://127.0.0.1:8080/"},
		{"strips whitespace", "  http://host:8080  ", "http://host:8080/"},
		{"strips hash comment", "http://host:8080 # cloud server", "http://host:8080/"},
		{"strips arrow comment", "http://host:8080 <-- use this one", "http://host:8080/"},
		{"empty stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBaseURL(tt.input))
		})
	}
}

func TestLoadDerivesUpstreamParts(t *testing.T) {
	t.Setenv("API_EXTERNA_URL", "http://10.0.0.5:8080 # inline note")
	t.Setenv("API_TIMEOUT", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8080/", cfg.Upstream.BaseURL)
	assert.Equal(t, "http", cfg.Upstream.Protocol)
	assert.Equal(t, "10.0.0.5", cfg.Upstream.Host)
	assert.Equal(t, 8080, cfg.Upstream.Port)
	assert.Equal(t, float64(12), cfg.Upstream.Timeout.Seconds())
}

func TestLoadDefaultPorts(t *testing.T) {
	t.Setenv("API_EXTERNA_URL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 443, cfg.Upstream.Port)
	assert.Equal(t, "https", cfg.Upstream.Protocol)
	assert.False(t, cfg.Upstream.IsLoopback())
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestIsLoopback(t *testing.T) {
	t.Setenv("API_EXTERNA_URL", "http://localhost:8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Upstream.IsLoopback())
}
