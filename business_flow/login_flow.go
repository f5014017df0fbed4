// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/repository"
	"github.com/amirphl/Ejare/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// LoginFlow handles the authentication business logic
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string, metadata *ClientMetadata) (*dto.AuthResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	accountRepo     repository.AccountRepository
	profileRepo     repository.ProfessionalProfileRepository
	policyResolver  PolicyResolver
	hasher          services.PasswordHasher
	tokenService    services.TokenService
	rateLimiter     *services.RateLimiter
	notificationSvc services.NotificationService
	auditEmitter    services.AuditEmitter
	validate        *validator.Validate
	logger          *zap.Logger
}

// NewLoginFlow creates a new login flow instance. A nil rate limiter disables throttling.
func NewLoginFlow(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfessionalProfileRepository,
	policyResolver PolicyResolver,
	hasher services.PasswordHasher,
	tokenService services.TokenService,
	rateLimiter *services.RateLimiter,
	notificationSvc services.NotificationService,
	auditEmitter services.AuditEmitter,
	logger *zap.Logger,
) LoginFlow {
	if auditEmitter == nil {
		auditEmitter = services.NoopAuditEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginFlowImpl{
		accountRepo:     accountRepo,
		profileRepo:     profileRepo,
		policyResolver:  policyResolver,
		hasher:          hasher,
		tokenService:    tokenService,
		rateLimiter:     rateLimiter,
		notificationSvc: notificationSvc,
		auditEmitter:    auditEmitter,
		validate:        newValidator(),
		logger:          logger,
	}
}

// Login authenticates an email and password pair.
// Every branch after validation records exactly one audit event.
func (lf *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	if err := validateRequest(lf.validate, req); err != nil {
		loginOutcomes.WithLabelValues(outcomeInvalidRequest).Inc()
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", err)
	}

	email := utils.NormalizeEmail(req.Email)
	clientIP := ""
	if metadata != nil {
		clientIP = metadata.IPAddress
	}
	keys := lf.rateLimiter.Keys(email, clientIP)

	decision, err := lf.rateLimiter.CheckAll(ctx, keys)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if !decision.Allowed {
		lf.audit(ctx, models.AuditActionLoginRateLimited, nil, "", map[string]any{"email": email}, metadata)
		loginOutcomes.WithLabelValues(outcomeRateLimited).Inc()
		return nil, NewBusinessError("RATE_LIMITED", "Too many failed login attempts", &RateLimitedError{RetryAfter: decision.RetryAfter})
	}

	account, err := lf.accountRepo.ByEmail(ctx, email)
	if err != nil {
		lf.logger.Error("Failed to look up account for login", zap.Error(err))
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	if account == nil {
		lf.hasher.CompareDummy(req.Password)
		lf.rateLimiter.RecordFailure(ctx, keys...)
		lf.audit(ctx, models.AuditActionLoginFailedNotFound, nil, "", map[string]any{"email": email}, metadata)
		loginOutcomes.WithLabelValues(outcomeInvalidCredentials).Inc()
		return nil, invalidCredentials()
	}

	secretMatches := lf.hasher.Compare(account.PasswordHash, req.Password)

	if !utils.IsTrue(account.IsActive) {
		lf.rateLimiter.RecordFailure(ctx, keys...)
		lf.audit(ctx, models.AuditActionLoginFailedInactive, &account.ID, account.UUID.String(), nil, metadata)
		loginOutcomes.WithLabelValues(outcomeInactive).Inc()
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is not active", ErrAccountInactive)
	}

	if !secretMatches {
		lf.rateLimiter.RecordFailure(ctx, keys...)
		lf.audit(ctx, models.AuditActionLoginFailedBadSecret, &account.ID, account.UUID.String(), nil, metadata)
		loginOutcomes.WithLabelValues(outcomeInvalidCredentials).Inc()
		return nil, invalidCredentials()
	}

	if !utils.IsTrue(account.IsEmailVerified) && lf.policyResolver.Resolve(ctx).EmailVerificationRequired {
		lf.audit(ctx, models.AuditActionLoginFailedUnverified, &account.ID, account.UUID.String(), nil, metadata)
		loginOutcomes.WithLabelValues(outcomeUnverified).Inc()
		return nil, NewBusinessError("ACCOUNT_UNVERIFIED", "Email address is not verified", ErrAccountUnverified)
	}

	lf.rateLimiter.RecordSuccess(ctx, keys...)

	account.Role = models.NormalizeRole(string(account.Role))
	pair, err := lf.tokenService.GenerateTokens(tokenSubject(*account))
	if err != nil {
		lf.logger.Error("Failed to issue tokens on login",
			zap.Uint("account_id", account.ID), zap.Error(err))
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session tokens", err)
	}

	now := utils.UTCNow()
	if err := lf.accountRepo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		lf.logger.Warn("Failed to record last login",
			zap.Uint("account_id", account.ID), zap.Error(err))
	} else {
		account.LastLoginAt = &now
	}

	lf.attachProfile(ctx, account)

	lf.audit(ctx, models.AuditActionLoginSuccess, &account.ID, account.UUID.String(), nil, metadata)
	loginOutcomes.WithLabelValues(outcomeSuccess).Inc()

	lf.sendWelcomeEmail(ctx, account)

	return toAuthResponse(*account, pair), nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (lf *LoginFlowImpl) Refresh(ctx context.Context, refreshToken string, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	if refreshToken == "" {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Refresh token is required", ErrInvalidCredentials)
	}

	claims, err := lf.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token",
			fmt.Errorf("%w: %w", ErrInvalidCredentials, err))
	}

	account, err := lf.accountRepo.ByID(ctx, claims.AccountID)
	if err != nil {
		lf.logger.Error("Failed to load account for refresh",
			zap.Uint("account_id", claims.AccountID), zap.Error(err))
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}
	if account == nil || account.UUID.String() != claims.Subject {
		return nil, invalidCredentials()
	}
	if !utils.IsTrue(account.IsActive) {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is not active", ErrAccountInactive)
	}

	account.Role = models.NormalizeRole(string(account.Role))
	pair, err := lf.tokenService.GenerateTokens(tokenSubject(*account))
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session tokens", err)
	}

	lf.attachProfile(ctx, account)
	lf.audit(ctx, models.AuditActionTokenRefreshed, &account.ID, account.UUID.String(), nil, metadata)

	return toAuthResponse(*account, pair), nil
}

func (lf *LoginFlowImpl) attachProfile(ctx context.Context, account *models.Account) {
	if !account.Role.IsProfessional() {
		return
	}
	profile, err := lf.profileRepo.ByAccountID(ctx, account.ID)
	if err != nil {
		lf.logger.Warn("Failed to load professional profile",
			zap.Uint("account_id", account.ID), zap.Error(err))
		return
	}
	account.Profile = profile
}

func (lf *LoginFlowImpl) audit(ctx context.Context, action string, actorID *uint, targetID string, details map[string]any, metadata *ClientMetadata) {
	lf.auditEmitter.Record(ctx, auditEvent(action, actorID, models.AuditTargetAccount, targetID, details, metadata))
}

func (lf *LoginFlowImpl) sendWelcomeEmail(ctx context.Context, account *models.Account) {
	if lf.notificationSvc == nil {
		return
	}
	bg := detached(ctx)
	email, name, accountID := account.Email, account.Name, account.ID
	go func() {
		if err := lf.notificationSvc.SendWelcomeEmail(bg, email, name); err != nil {
			lf.logger.Warn("Failed to send welcome email",
				zap.Uint("account_id", accountID), zap.Error(err))
		}
	}()
}
