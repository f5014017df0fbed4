package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/repository"
	"github.com/amirphl/Ejare/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// KYCFlow opens identity verification sessions for authenticated accounts
type KYCFlow interface {
	Initiate(ctx context.Context, accountID uint, req *dto.InitiateKYCRequest, metadata *ClientMetadata) (*dto.InitiateKYCResponse, error)
}

type KYCFlowImpl struct {
	accountRepo  repository.AccountRepository
	provider     services.KYCProvider
	auditEmitter services.AuditEmitter
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewKYCFlow(accountRepo repository.AccountRepository, provider services.KYCProvider, auditEmitter services.AuditEmitter, logger *zap.Logger) KYCFlow {
	if auditEmitter == nil {
		auditEmitter = services.NoopAuditEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KYCFlowImpl{
		accountRepo:  accountRepo,
		provider:     provider,
		auditEmitter: auditEmitter,
		validate:     newValidator(),
		logger:       logger,
	}
}

// Initiate asks the provider for a session. The provider is the critical path here,
// so its failure surfaces as DependencyUnavailable.
func (f *KYCFlowImpl) Initiate(ctx context.Context, accountID uint, req *dto.InitiateKYCRequest, metadata *ClientMetadata) (*dto.InitiateKYCResponse, error) {
	if err := validateRequest(f.validate, req); err != nil {
		return nil, NewBusinessError("KYC_VALIDATION_FAILED", "KYC request validation failed", err)
	}

	level := req.Level
	if level == "" {
		level = services.KYCLevelStandard
	}

	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("KYC_FAILED", "Failed to load account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}
	if !utils.IsTrue(account.IsActive) {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is not active", ErrAccountInactive)
	}

	if f.provider == nil {
		return nil, NewBusinessError("KYC_UNAVAILABLE", "Identity verification is temporarily unavailable", ErrDependencyUnavailable)
	}

	session, err := f.provider.Initiate(ctx, account.ID, level)
	if err != nil {
		f.logger.Warn("KYC provider failed",
			zap.String("provider", f.provider.Name()),
			zap.Uint("account_id", account.ID),
			zap.Error(err))
		return nil, NewBusinessError("KYC_UNAVAILABLE", "Identity verification is temporarily unavailable",
			fmt.Errorf("%w: %w", ErrDependencyUnavailable, err))
	}

	f.auditEmitter.Record(ctx, auditEvent(models.AuditActionKYCInitiated, &account.ID, models.AuditTargetAccount,
		account.UUID.String(), map[string]any{
			"provider":   f.provider.Name(),
			"level":      level,
			"session_id": session.SessionID,
		}, metadata))

	requirements := session.Requirements
	if requirements == nil {
		requirements = []string{}
	}
	return &dto.InitiateKYCResponse{
		SessionID:    session.SessionID,
		Requirements: requirements,
		ExpiresAt:    session.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}
