package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEmail struct {
	to, subject, body string
}

type captureEmailProvider struct {
	sent []capturedEmail
}

func (p *captureEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	p.sent = append(p.sent, capturedEmail{to: email, subject: subject, body: message})
	return nil
}

func TestNotificationService(t *testing.T) {
	provider := &captureEmailProvider{}
	service := NewNotificationService(provider, "https://ejare.app/verify-email?src=mail")

	require.NoError(t, service.SendVerificationEmail(context.Background(), "ana@example.com", "Ana", "abc123"))
	require.Len(t, provider.sent, 1)
	assert.Equal(t, "ana@example.com", provider.sent[0].to)
	assert.Contains(t, provider.sent[0].body, "https://ejare.app/verify-email?src=mail&token=abc123")

	require.NoError(t, service.SendWelcomeEmail(context.Background(), "ana@example.com", "Ana"))
	assert.Len(t, provider.sent, 2)

	t.Run("rejects malformed address", func(t *testing.T) {
		err := service.SendWelcomeEmail(context.Background(), "not-an-email", "Ana")
		assert.Error(t, err)
		assert.Len(t, provider.sent, 2)
	})

	t.Run("missing provider", func(t *testing.T) {
		err := NewNotificationService(nil, "").SendWelcomeEmail(context.Background(), "ana@example.com", "Ana")
		assert.Error(t, err)
	})
}
