package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
	"gorm.io/gorm"
)

// ProfessionalProfileRepositoryImpl implements ProfessionalProfileRepository interface.
type ProfessionalProfileRepositoryImpl struct {
	*BaseRepository[models.ProfessionalProfile, models.ProfessionalProfileFilter]
}

// NewProfessionalProfileRepository creates a new professional profile repository.
func NewProfessionalProfileRepository(db *gorm.DB) ProfessionalProfileRepository {
	return &ProfessionalProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProfessionalProfile, models.ProfessionalProfileFilter](db),
	}
}

// ByAccountID retrieves the profile owned by an account.
func (r *ProfessionalProfileRepositoryImpl) ByAccountID(ctx context.Context, accountID uint) (*models.ProfessionalProfile, error) {
	rows, err := r.ByFilter(ctx, models.ProfessionalProfileFilter{AccountID: &accountID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// UpdateStatus sets the verification status of the profile owned by an account.
func (r *ProfessionalProfileRepositoryImpl) UpdateStatus(ctx context.Context, accountID uint, status models.ProfileStatus, verified bool) error {
	db := r.getDB(ctx)
	err := db.Model(&models.ProfessionalProfile{}).
		Where("account_id = ?", accountID).
		Updates(map[string]any{
			"status":      status,
			"is_verified": verified,
			"updated_at":  utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update profile status for account %d: %w", accountID, err)
	}
	return nil
}

func (r *ProfessionalProfileRepositoryImpl) applyFilter(query *gorm.DB, filter models.ProfessionalProfileFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// ByFilter retrieves profiles based on filter criteria.
func (r *ProfessionalProfileRepositoryImpl) ByFilter(ctx context.Context, filter models.ProfessionalProfileFilter, orderBy string, limit, offset int) ([]*models.ProfessionalProfile, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ProfessionalProfile{}), filter)

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

	var rows []*models.ProfessionalProfile
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProfessionalProfileRepositoryImpl) Count(ctx context.Context, filter models.ProfessionalProfileFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.ProfessionalProfile{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ProfessionalProfileRepositoryImpl) Exists(ctx context.Context, filter models.ProfessionalProfileFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
