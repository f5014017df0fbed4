package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	testingutil "github.com/amirphl/Ejare/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingKYCProvider struct{}

func (failingKYCProvider) Name() string { return "failing" }

func (failingKYCProvider) Initiate(context.Context, uint, string) (*services.KYCSession, error) {
	return nil, errors.New("connection reset")
}

func TestKYCInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("MockProvider", func(t *testing.T) {
		env := newFlowEnv(t)
		account, err := env.fixtures.CreateTestAccount(testingutil.AccountOptions{Active: true})
		require.NoError(t, err)

		flow := NewKYCFlow(env.accountRepo, services.NewMockKYCProvider(), env.audit, zap.NewNop())
		result, err := flow.Initiate(ctx, account.ID, &dto.InitiateKYCRequest{}, testMetadata())
		require.NoError(t, err)
		assert.NotEmpty(t, result.SessionID)
		assert.NotEmpty(t, result.Requirements)
		assert.NotEmpty(t, result.ExpiresAt)

		event := env.audit.last()
		assert.Equal(t, models.AuditActionKYCInitiated, event.Action)
		assert.Equal(t, services.KYCLevelStandard, event.Details["level"])
		assert.Equal(t, result.SessionID, event.Details["session_id"])
	})

	t.Run("ProviderDownIsDependencyUnavailable", func(t *testing.T) {
		env := newFlowEnv(t)
		account, err := env.fixtures.CreateTestAccount(testingutil.AccountOptions{Active: true})
		require.NoError(t, err)

		flow := NewKYCFlow(env.accountRepo, failingKYCProvider{}, env.audit, zap.NewNop())
		_, err = flow.Initiate(ctx, account.ID, &dto.InitiateKYCRequest{Level: services.KYCLevelBasic}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsDependencyUnavailable(err))
		assert.Empty(t, env.audit.actions())
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		env := newFlowEnv(t)
		flow := NewKYCFlow(env.accountRepo, services.NewMockKYCProvider(), env.audit, zap.NewNop())

		_, err := flow.Initiate(ctx, 1, &dto.InitiateKYCRequest{Level: "ultra"}, testMetadata())
		assert.True(t, IsValidationError(err))
		assert.Contains(t, ValidationFields(err), "level")
	})

	t.Run("InactiveOrMissingAccount", func(t *testing.T) {
		env := newFlowEnv(t)
		inactive, err := env.fixtures.CreateTestAccount(testingutil.AccountOptions{Active: false})
		require.NoError(t, err)
		flow := NewKYCFlow(env.accountRepo, services.NewMockKYCProvider(), env.audit, zap.NewNop())

		_, err = flow.Initiate(ctx, inactive.ID, &dto.InitiateKYCRequest{}, testMetadata())
		assert.True(t, IsAccountInactive(err))

		_, err = flow.Initiate(ctx, 424242, &dto.InitiateKYCRequest{}, testMetadata())
		assert.True(t, IsAccountNotFound(err))
	})
}
