package models

import (
	"time"

	"github.com/amirphl/Ejare/utils"
	"gorm.io/gorm"
)

// ProfileKind distinguishes the two professional profile variants.
type ProfileKind string

const (
	ProfileKindServiceProvider     ProfileKind = "SERVICE_PROVIDER"
	ProfileKindMaintenanceProvider ProfileKind = "MAINTENANCE_PROVIDER"
)

// ProfileStatus is the verification status of a professional profile.
type ProfileStatus string

const (
	ProfileStatusPendingVerification ProfileStatus = "PENDING_VERIFICATION"
	ProfileStatusActive              ProfileStatus = "ACTIVE"
)

// ProfileKindForRole maps a professional role to its profile kind.
func ProfileKindForRole(role Role) (ProfileKind, bool) {
	switch role {
	case RoleProvider:
		return ProfileKindServiceProvider, true
	case RoleMaintenance:
		return ProfileKindMaintenanceProvider, true
	default:
		return "", false
	}
}

// ProfessionalProfile extends an Account whose role is PROVIDER or MAINTENANCE.
type ProfessionalProfile struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	AccountID    uint          `gorm:"not null;uniqueIndex:uk_professional_profiles_account_id" json:"account_id"`
	Kind         ProfileKind   `gorm:"size:32;not null" json:"kind"`
	BusinessName string        `gorm:"size:255;not null" json:"business_name"`
	Category     string        `gorm:"size:100;not null" json:"category"`
	Status       ProfileStatus `gorm:"size:32;not null;index:idx_professional_profiles_status" json:"status"`
	IsVerified   *bool         `gorm:"not null" json:"is_verified"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (ProfessionalProfile) TableName() string {
	return "professional_profiles"
}

func (p *ProfessionalProfile) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return nil
}

// ProfessionalProfileFilter represents filter criteria for profile queries
type ProfessionalProfileFilter struct {
	ID        *uint
	AccountID *uint
	Kind      *ProfileKind
	Status    *ProfileStatus
}
