// Package models contains domain entities of the identity core
package models

import (
	"time"

	"github.com/amirphl/Ejare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`
	Email      string    `gorm:"size:255;not null;uniqueIndex:uk_accounts_email" json:"email"`
	NationalID string    `gorm:"size:20;not null;uniqueIndex:uk_accounts_national_id" json:"national_id"`

	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	Name    string  `gorm:"size:100;not null" json:"name"`
	Role    Role    `gorm:"size:20;not null;index:idx_accounts_role" json:"role"`
	Phone   *string `gorm:"size:20" json:"phone,omitempty"`
	Address *string `gorm:"size:255" json:"address,omitempty"`
	City    *string `gorm:"size:100" json:"city,omitempty"`

	// Status and verification
	IsActive                   *bool      `gorm:"not null;index:idx_accounts_is_active" json:"is_active"`
	IsEmailVerified            *bool      `gorm:"not null" json:"is_email_verified"`
	EmailVerificationTokenHash *string    `gorm:"size:64;index:idx_accounts_email_verification_token_hash" json:"-"`
	EmailVerificationExpiresAt *time.Time `json:"-"`
	EmailVerifiedAt            *time.Time `json:"email_verified_at,omitempty"`

	// Timestamps
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Profile *ProfessionalProfile `gorm:"foreignKey:AccountID;references:ID" json:"profile,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate ensures UUID, canonical role and email, and timestamps are set.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	a.Email = utils.NormalizeEmail(a.Email)
	a.Role = NormalizeRole(string(a.Role))
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	return nil
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID                         *uint
	UUID                       *uuid.UUID
	Email                      *string
	NationalID                 *string
	Role                       *Role
	IsActive                   *bool
	IsEmailVerified            *bool
	EmailVerificationTokenHash *string
	CreatedAfter               *time.Time
	CreatedBefore              *time.Time
}

// VerificationExpired reports whether the pending email verification token has expired.
func (a *Account) VerificationExpired() bool {
	return a.EmailVerificationExpiresAt == nil || utils.IsExpired(*a.EmailVerificationExpiresAt)
}
