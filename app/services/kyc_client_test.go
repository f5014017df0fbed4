package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPKYCClientInitiate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sessions", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var body kycInitiateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "account-42", body.Reference)
			assert.Equal(t, KYCLevelStandard, body.Level)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]any{
					"session_id":   "sess-1",
					"requirements": []string{"selfie"},
					"expires_at":   time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
				},
			})
		}))
		defer server.Close()

		client := NewHTTPKYCClient(server.URL+"/", "secret", time.Second)
		session, err := client.Initiate(context.Background(), 42, KYCLevelStandard)
		require.NoError(t, err)
		assert.Equal(t, "sess-1", session.SessionID)
		assert.Equal(t, []string{"selfie"}, session.Requirements)
	})

	t.Run("provider error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewHTTPKYCClient(server.URL, "secret", time.Second)
		_, err := client.Initiate(context.Background(), 42, KYCLevelBasic)
		assert.ErrorIs(t, err, ErrKYCUnavailable)
	})

	t.Run("unreachable", func(t *testing.T) {
		client := NewHTTPKYCClient("http://127.0.0.1:1", "secret", 200*time.Millisecond)
		_, err := client.Initiate(context.Background(), 42, KYCLevelBasic)
		assert.ErrorIs(t, err, ErrKYCUnavailable)
	})
}

func TestMockKYCProvider(t *testing.T) {
	session, err := NewMockKYCProvider().Initiate(context.Background(), 1, KYCLevelEnhanced)
	require.NoError(t, err)
	assert.Len(t, session.Requirements, 3)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}
