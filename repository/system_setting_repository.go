package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SystemSettingRepositoryImpl implements SystemSettingRepository interface.
type SystemSettingRepositoryImpl struct {
	*BaseRepository[models.SystemSetting, models.SystemSettingFilter]
}

// NewSystemSettingRepository creates a new system setting repository.
func NewSystemSettingRepository(db *gorm.DB) SystemSettingRepository {
	return &SystemSettingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SystemSetting, models.SystemSettingFilter](db),
	}
}

// ByCategoryAndKey retrieves a setting regardless of its active flag.
func (r *SystemSettingRepositoryImpl) ByCategoryAndKey(ctx context.Context, category, key string) (*models.SystemSetting, error) {
	rows, err := r.ByFilter(ctx, models.SystemSettingFilter{Category: &category, Key: &key}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ActiveByCategory lists the active settings of a category.
func (r *SystemSettingRepositoryImpl) ActiveByCategory(ctx context.Context, category string) ([]*models.SystemSetting, error) {
	return r.ByFilter(ctx, models.SystemSettingFilter{
		Category: &category,
		IsActive: utils.ToPtr(true),
	}, "setting_key ASC", 0, 0)
}

// Upsert inserts the setting or updates value, active flag and description of an existing one.
func (r *SystemSettingRepositoryImpl) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	db := r.getDB(ctx)
	setting.UpdatedAt = utils.UTCNow()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}, {Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "is_active", "description", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s/%s: %w", setting.Category, setting.Key, err)
	}
	return nil
}

func (r *SystemSettingRepositoryImpl) applyFilter(query *gorm.DB, filter models.SystemSettingFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Key != nil {
		query = query.Where("setting_key = ?", *filter.Key)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves settings based on filter criteria.
func (r *SystemSettingRepositoryImpl) ByFilter(ctx context.Context, filter models.SystemSettingFilter, orderBy string, limit, offset int) ([]*models.SystemSetting, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SystemSetting{}), filter)

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

	var rows []*models.SystemSetting
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SystemSettingRepositoryImpl) Count(ctx context.Context, filter models.SystemSettingFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.SystemSetting{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SystemSettingRepositoryImpl) Exists(ctx context.Context, filter models.SystemSettingFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
