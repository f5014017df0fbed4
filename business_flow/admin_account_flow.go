package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/repository"
	"github.com/amirphl/Ejare/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminAccountFlow applies operator decisions: account activation and system settings
type AdminAccountFlow interface {
	SetActivation(ctx context.Context, accountUUID string, active bool, actorID uint, metadata *ClientMetadata) (*dto.AccountDTO, error)
	UpsertSetting(ctx context.Context, category, key string, req *dto.UpsertSettingRequest, actorID uint, metadata *ClientMetadata) (*dto.SystemSettingDTO, error)
}

// AdminAccountFlowImpl implements AdminAccountFlow
type AdminAccountFlowImpl struct {
	accountRepo  repository.AccountRepository
	profileRepo  repository.ProfessionalProfileRepository
	settingRepo  repository.SystemSettingRepository
	auditEmitter services.AuditEmitter
	validate     *validator.Validate
	logger       *zap.Logger
	db           *gorm.DB
}

func NewAdminAccountFlow(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfessionalProfileRepository,
	settingRepo repository.SystemSettingRepository,
	auditEmitter services.AuditEmitter,
	logger *zap.Logger,
	db *gorm.DB,
) AdminAccountFlow {
	if auditEmitter == nil {
		auditEmitter = services.NoopAuditEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminAccountFlowImpl{
		accountRepo:  accountRepo,
		profileRepo:  profileRepo,
		settingRepo:  settingRepo,
		auditEmitter: auditEmitter,
		validate:     newValidator(),
		logger:       logger,
		db:           db,
	}
}

// SetActivation flips is_active and aligns the professional profile in one transaction
func (f *AdminAccountFlowImpl) SetActivation(ctx context.Context, accountUUID string, active bool, actorID uint, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	if _, err := uuid.Parse(strings.TrimSpace(accountUUID)); err != nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	account, err := f.accountRepo.ByUUID(ctx, strings.TrimSpace(accountUUID))
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to load account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	role := models.NormalizeRole(string(account.Role))
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.UpdateActiveFlag(txCtx, account.ID, active); err != nil {
			return err
		}
		if !role.IsProfessional() {
			return nil
		}

		status := models.ProfileStatusPendingVerification
		if active {
			status = models.ProfileStatusActive
		}
		if err := f.profileRepo.UpdateStatus(txCtx, account.ID, status, active); err != nil {
			return err
		}
		profile, err := f.profileRepo.ByAccountID(txCtx, account.ID)
		if err != nil {
			return err
		}
		account.Profile = profile
		return nil
	})
	if err != nil {
		f.logger.Error("Failed to change account activation",
			zap.String("account_uuid", accountUUID), zap.Bool("active", active), zap.Error(err))
		return nil, NewBusinessError("ACTIVATION_FAILED", "Failed to change account activation",
			fmt.Errorf("%w: %w", ErrTransactionFailed, err))
	}
	account.IsActive = utils.ToPtr(active)

	action := models.AuditActionAccountDeactivated
	if active {
		action = models.AuditActionAccountActivated
	}
	f.auditEmitter.Record(ctx, auditEvent(action, &actorID, models.AuditTargetAccount, account.UUID.String(),
		map[string]any{"role": string(role)}, metadata))

	out := ToAccountDTO(*account)
	return &out, nil
}

var onboardingKeys = map[string]bool{
	models.SettingUserApprovalRequired:            true,
	models.SettingAutoApproveServiceProviders:     true,
	models.SettingAutoApproveMaintenanceProviders: true,
	models.SettingRequireEmailVerification:        true,
}

// UpsertSetting creates or replaces a setting. Onboarding settings must be known boolean flags.
func (f *AdminAccountFlowImpl) UpsertSetting(ctx context.Context, category, key string, req *dto.UpsertSettingRequest, actorID uint, metadata *ClientMetadata) (*dto.SystemSettingDTO, error) {
	if err := validateRequest(f.validate, req); err != nil {
		return nil, NewBusinessError("SETTING_VALIDATION_FAILED", "Setting validation failed", err)
	}

	category = strings.TrimSpace(category)
	key = strings.TrimSpace(key)
	if category == "" || len(category) > 64 || key == "" || len(key) > 128 {
		return nil, NewBusinessError("INVALID_SETTING", "Setting category and key are required", ErrInvalidSetting)
	}

	value := strings.TrimSpace(req.Value)
	if category == models.SettingCategoryOnboarding {
		if !onboardingKeys[key] {
			return nil, NewBusinessErrorf("INVALID_SETTING", "Unknown onboarding setting %s", ErrInvalidSetting, key)
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, NewBusinessErrorf("INVALID_SETTING", "Onboarding setting %s must be true or false", ErrInvalidSetting, key)
		}
		value = strconv.FormatBool(parsed)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	setting := &models.SystemSetting{
		Category:    category,
		Key:         key,
		Value:       value,
		IsActive:    utils.ToPtr(isActive),
		Description: req.Description,
	}
	if err := f.settingRepo.Upsert(ctx, setting); err != nil {
		f.logger.Error("Failed to upsert setting",
			zap.String("category", category), zap.String("key", key), zap.Error(err))
		return nil, NewBusinessError("SETTING_UPDATE_FAILED", "Failed to update setting", err)
	}

	f.auditEmitter.Record(ctx, auditEvent(models.AuditActionSettingUpdated, &actorID, models.AuditTargetSetting,
		category+"/"+key, map[string]any{"value": value, "is_active": isActive}, metadata))

	return &dto.SystemSettingDTO{
		Category:    setting.Category,
		Key:         setting.Key,
		Value:       setting.Value,
		IsActive:    isActive,
		Description: setting.Description,
		UpdatedAt:   setting.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}
