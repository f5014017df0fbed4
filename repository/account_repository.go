// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByEmail retrieves an account by email address. Lookups are case-insensitive.
func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	normalized := utils.NormalizeEmail(email)
	return r.first(ctx, models.AccountFilter{Email: &normalized}, "by email")
}

// ByNationalID retrieves an account by national ID
func (r *AccountRepositoryImpl) ByNationalID(ctx context.Context, nationalID string) (*models.Account, error) {
	return r.first(ctx, models.AccountFilter{NationalID: &nationalID}, "by national ID")
}

// ByUUID retrieves an account by UUID
func (r *AccountRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Account, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid account UUID %q: %w", uuidStr, err)
	}
	return r.first(ctx, models.AccountFilter{UUID: &parsed}, "by UUID")
}

// ByVerificationTokenHash retrieves the account holding a pending verification token
func (r *AccountRepositoryImpl) ByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.Account, error) {
	return r.first(ctx, models.AccountFilter{EmailVerificationTokenHash: &tokenHash}, "by verification token")
}

func (r *AccountRepositoryImpl) first(ctx context.Context, filter models.AccountFilter, what string) (*models.Account, error) {
	accounts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", what, err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// UpdateActiveFlag sets the active flag of an account
func (r *AccountRepositoryImpl) UpdateActiveFlag(ctx context.Context, accountID uint, active bool) error {
	return r.update(ctx, accountID, map[string]any{"is_active": active})
}

// MarkEmailVerified marks the email as verified and clears the pending token
func (r *AccountRepositoryImpl) MarkEmailVerified(ctx context.Context, accountID uint, verifiedAt time.Time) error {
	return r.update(ctx, accountID, map[string]any{
		"is_email_verified":             true,
		"email_verified_at":             verifiedAt,
		"email_verification_token_hash": nil,
		"email_verification_expires_at": nil,
	})
}

// UpdateLastLogin records the time of the latest successful login
func (r *AccountRepositoryImpl) UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error {
	return r.update(ctx, accountID, map[string]any{"last_login_at": at})
}

func (r *AccountRepositoryImpl) update(ctx context.Context, accountID uint, fields map[string]any) error {
	db := r.getDB(ctx)
	fields["updated_at"] = utils.UTCNow()

	if err := db.Model(&models.Account{}).Where("id = ?", accountID).Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update account %d: %w", accountID, err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query.
func (r *AccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.NationalID != nil {
		query = query.Where("national_id = ?", *filter.NationalID)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsEmailVerified != nil {
		query = query.Where("is_email_verified = ?", *filter.IsEmailVerified)
	}
	if filter.EmailVerificationTokenHash != nil {
		query = query.Where("email_verification_token_hash = ?", *filter.EmailVerificationTokenHash)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves accounts based on filter criteria, with the professional profile preloaded.
func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Account{}), filter).Preload("Profile")

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Account
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of accounts matching filter.
func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Account{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any account matches the filter.
func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
