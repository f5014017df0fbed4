// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Ejare/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountRepository is the credential store gateway for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByNationalID(ctx context.Context, nationalID string) (*models.Account, error)
	ByUUID(ctx context.Context, uuid string) (*models.Account, error)
	ByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.Account, error)
	UpdateActiveFlag(ctx context.Context, accountID uint, active bool) error
	MarkEmailVerified(ctx context.Context, accountID uint, verifiedAt time.Time) error
	UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error
}

// ProfessionalProfileRepository defines operations for professional profiles
type ProfessionalProfileRepository interface {
	Repository[models.ProfessionalProfile, models.ProfessionalProfileFilter]
	ByAccountID(ctx context.Context, accountID uint) (*models.ProfessionalProfile, error)
	UpdateStatus(ctx context.Context, accountID uint, status models.ProfileStatus, verified bool) error
}

// SystemSettingRepository defines operations for key/value system settings
type SystemSettingRepository interface {
	Repository[models.SystemSetting, models.SystemSettingFilter]
	ByCategoryAndKey(ctx context.Context, category, key string) (*models.SystemSetting, error)
	ActiveByCategory(ctx context.Context, category string) ([]*models.SystemSetting, error)
	Upsert(ctx context.Context, setting *models.SystemSetting) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
