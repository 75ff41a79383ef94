package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_NilConfig(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

func TestNewHandler_MissingBaseURL(t *testing.T) {
	_, err := NewHandler(&Config{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL")
}

func TestNewHandler_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "no client ID",
			config: Config{
				BaseURL:            "http://localhost:8080",
				GoogleClientSecret: "client-secret",
			},
		},
		{
			name: "no client secret",
			config: Config{
				BaseURL:        "http://localhost:8080",
				GoogleClientID: "client-id",
			},
		},
		{
			name: "neither",
			config: Config{
				BaseURL: "http://localhost:8080",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHandler(&tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
		})
	}
}
