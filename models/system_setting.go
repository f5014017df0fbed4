package models

import (
	"time"

	"github.com/amirphl/Ejare/utils"
	"gorm.io/gorm"
)

// Setting categories and keys read by the identity core
const (
	SettingCategoryOnboarding = "onboarding"

	SettingUserApprovalRequired            = "userApprovalRequired"
	SettingAutoApproveServiceProviders     = "autoApproveServiceProviders"
	SettingAutoApproveMaintenanceProviders = "autoApproveMaintenanceProviders"
	SettingRequireEmailVerification        = "requireEmailVerification"
)

// SystemSetting is a key/value configuration entry scoped by category.
type SystemSetting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Category    string    `gorm:"size:64;not null;uniqueIndex:uk_system_settings_category_key" json:"category"`
	Key         string    `gorm:"column:setting_key;size:128;not null;uniqueIndex:uk_system_settings_category_key" json:"key"`
	Value       string    `gorm:"type:text;not null" json:"value"`
	IsActive    *bool     `gorm:"not null" json:"is_active"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

func (s *SystemSetting) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	return nil
}

// SystemSettingFilter represents filter criteria for system setting queries
type SystemSettingFilter struct {
	ID       *uint
	Category *string
	Key      *string
	IsActive *bool
}
