// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/repository"
	"github.com/amirphl/Ejare/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultProfileCategory is stored when a professional registers without a category
const DefaultProfileCategory = "general"

// SignupFlow handles account registration and email verification
type SignupFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest, metadata *ClientMetadata) (*dto.VerifyEmailResponse, error)
}

// SignupFlowImpl implements the signup business flow
type SignupFlowImpl struct {
	accountRepo     repository.AccountRepository
	profileRepo     repository.ProfessionalProfileRepository
	policyResolver  PolicyResolver
	hasher          services.PasswordHasher
	tokenService    services.TokenService
	notificationSvc services.NotificationService
	auditEmitter    services.AuditEmitter
	validate        *validator.Validate
	logger          *zap.Logger
	db              *gorm.DB
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfessionalProfileRepository,
	policyResolver PolicyResolver,
	hasher services.PasswordHasher,
	tokenService services.TokenService,
	notificationSvc services.NotificationService,
	auditEmitter services.AuditEmitter,
	logger *zap.Logger,
	db *gorm.DB,
) SignupFlow {
	if auditEmitter == nil {
		auditEmitter = services.NoopAuditEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignupFlowImpl{
		accountRepo:     accountRepo,
		profileRepo:     profileRepo,
		policyResolver:  policyResolver,
		hasher:          hasher,
		tokenService:    tokenService,
		notificationSvc: notificationSvc,
		auditEmitter:    auditEmitter,
		validate:        newValidator(),
		logger:          logger,
		db:              db,
	}
}

// Register creates an account, and a professional profile for provider roles, in one transaction
func (s *SignupFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, NewBusinessError("REGISTRATION_VALIDATION_FAILED", "Registration validation failed", err)
	}

	role := models.NormalizeRole(req.Role)
	if !role.IsPubliclyRegistrable() {
		return nil, NewBusinessErrorf("ROLE_NOT_ALLOWED", "Role %s cannot be chosen at registration", ErrRoleNotAllowed, req.Role)
	}

	email := utils.NormalizeEmail(req.Email)
	nationalID := strings.TrimSpace(req.NationalID)

	if err := s.checkUniqueness(ctx, email, nationalID); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	verificationToken, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	// Resolved before the transaction so the settings read never waits on the write lock
	policy := s.policyResolver.Resolve(ctx)
	decision := DecideActivation(policy, role)

	var account *models.Account
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		account = &models.Account{
			Email:                      email,
			NationalID:                 nationalID,
			PasswordHash:               passwordHash,
			Name:                       strings.TrimSpace(req.Name),
			Role:                       role,
			Phone:                      req.Phone,
			Address:                    req.Address,
			City:                       req.City,
			IsActive:                   utils.ToPtr(decision.InitiallyActive),
			IsEmailVerified:            utils.ToPtr(false),
			EmailVerificationTokenHash: utils.ToPtr(utils.HashToken(verificationToken)),
			EmailVerificationExpiresAt: utils.ToPtr(utils.UTCNowAdd(utils.EmailVerificationTTL)),
		}
		if err := s.accountRepo.Save(txCtx, account); err != nil {
			return err
		}

		if decision.CreateProfile {
			profile := &models.ProfessionalProfile{
				AccountID:    account.ID,
				Kind:         decision.ProfileKind,
				BusinessName: profileBusinessName(req),
				Category:     profileCategory(req),
				Status:       decision.ProfileStatus(),
				IsVerified:   utils.ToPtr(decision.AutoApproved),
			}
			if err := s.profileRepo.Save(txCtx, profile); err != nil {
				return err
			}
			account.Profile = profile
		}

		if decision.AutoApproved {
			if err := s.accountRepo.UpdateActiveFlag(txCtx, account.ID, true); err != nil {
				return err
			}
			account.IsActive = utils.ToPtr(true)
		}

		return nil
	})
	if err != nil {
		return nil, s.registrationFailure(ctx, err, email, nationalID)
	}

	pair, err := s.tokenService.GenerateTokens(tokenSubject(*account))
	if err != nil {
		s.logger.Error("Failed to issue tokens after registration",
			zap.Uint("account_id", account.ID), zap.Error(err))
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session tokens", err)
	}

	details := map[string]any{
		"role":   string(role),
		"active": decision.Active(),
	}
	if account.Profile != nil {
		details["profile_status"] = string(account.Profile.Status)
	}
	s.auditEmitter.Record(ctx, auditEvent(models.AuditActionUserRegistered, &account.ID,
		models.AuditTargetAccount, account.UUID.String(), details, metadata))

	s.sendVerificationEmail(ctx, account, verificationToken)

	return toAuthResponse(*account, pair), nil
}

func (s *SignupFlowImpl) checkUniqueness(ctx context.Context, email, nationalID string) error {
	existing, err := s.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}
	if existing != nil {
		return emailConflict()
	}

	existing, err = s.accountRepo.ByNationalID(ctx, nationalID)
	if err != nil {
		return NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}
	if existing != nil {
		return nationalIDConflict()
	}
	return nil
}

// registrationFailure classifies a failed registration transaction
func (s *SignupFlowImpl) registrationFailure(ctx context.Context, err error, email, nationalID string) error {
	if repository.IsDuplicateKey(err) {
		// A concurrent registration won the race. Find out which field collided.
		if existing, lookupErr := s.accountRepo.ByEmail(ctx, email); lookupErr == nil && existing != nil {
			return emailConflict()
		}
		if existing, lookupErr := s.accountRepo.ByNationalID(ctx, nationalID); lookupErr == nil && existing != nil {
			return nationalIDConflict()
		}
		return emailConflict()
	}

	s.logger.Error("Registration transaction failed",
		zap.String("email", email), zap.Error(err))
	return NewBusinessError("REGISTRATION_FAILED", "Registration failed", fmt.Errorf("%w: %w", ErrTransactionFailed, err))
}

func emailConflict() *BusinessError {
	return NewBusinessError("EMAIL_ALREADY_EXISTS", "email already registered", ErrEmailAlreadyExists)
}

func nationalIDConflict() *BusinessError {
	return NewBusinessError("NATIONAL_ID_ALREADY_EXISTS", "national ID already registered", ErrNationalIDAlreadyExists)
}

func profileBusinessName(req *dto.RegisterRequest) string {
	if req.BusinessName != nil && strings.TrimSpace(*req.BusinessName) != "" {
		return strings.TrimSpace(*req.BusinessName)
	}
	return strings.TrimSpace(req.Name)
}

func profileCategory(req *dto.RegisterRequest) string {
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		return strings.ToLower(strings.TrimSpace(*req.Category))
	}
	return DefaultProfileCategory
}

// sendVerificationEmail is best-effort. A mail failure never fails the registration.
func (s *SignupFlowImpl) sendVerificationEmail(ctx context.Context, account *models.Account, token string) {
	if s.notificationSvc == nil {
		return
	}
	bg := detached(ctx)
	email, name, accountID := account.Email, account.Name, account.ID
	go func() {
		if err := s.notificationSvc.SendVerificationEmail(bg, email, name, token); err != nil {
			s.logger.Warn("Failed to send verification email",
				zap.Uint("account_id", accountID), zap.Error(err))
		}
	}()
}

// VerifyEmail consumes an emailed verification token
func (s *SignupFlowImpl) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest, metadata *ClientMetadata) (*dto.VerifyEmailResponse, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, NewBusinessError("VERIFY_EMAIL_VALIDATION_FAILED", "Email verification validation failed", err)
	}

	account, err := s.accountRepo.ByVerificationTokenHash(ctx, utils.HashToken(strings.ToLower(req.Token)))
	if err != nil {
		return nil, NewBusinessError("VERIFY_EMAIL_FAILED", "Email verification failed", err)
	}
	if account == nil {
		return nil, NewBusinessError("VERIFICATION_TOKEN_INVALID", "Verification token is invalid", ErrVerificationTokenInvalid)
	}
	if account.VerificationExpired() {
		return nil, NewBusinessError("VERIFICATION_TOKEN_EXPIRED", "Verification token has expired", ErrVerificationTokenExpired)
	}

	now := utils.UTCNow()
	if err := s.accountRepo.MarkEmailVerified(ctx, account.ID, now); err != nil {
		return nil, NewBusinessError("VERIFY_EMAIL_FAILED", "Email verification failed", err)
	}
	account.IsEmailVerified = utils.ToPtr(true)
	account.EmailVerifiedAt = &now
	account.EmailVerificationTokenHash = nil
	account.EmailVerificationExpiresAt = nil

	if models.NormalizeRole(string(account.Role)).IsProfessional() {
		profile, err := s.profileRepo.ByAccountID(ctx, account.ID)
		if err != nil {
			s.logger.Warn("Failed to load profile after email verification",
				zap.Uint("account_id", account.ID), zap.Error(err))
		}
		account.Profile = profile
	}

	s.auditEmitter.Record(ctx, auditEvent(models.AuditActionEmailVerified, &account.ID,
		models.AuditTargetAccount, account.UUID.String(), nil, metadata))

	return &dto.VerifyEmailResponse{Account: ToAccountDTO(*account)}, nil
}
