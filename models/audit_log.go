package models

import (
	"time"
)

// AuditLog is an append-only record of a security relevant transition.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    *uint     `gorm:"index:idx_audit_actor_id" json:"actor_id,omitempty"`
	Action     string    `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	TargetType *string   `gorm:"size:64" json:"target_type,omitempty"`
	TargetID   *string   `gorm:"size:64" json:"target_id,omitempty"`
	Details    *string   `gorm:"type:text" json:"details,omitempty"`
	IPAddress  *string   `gorm:"size:64;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent  *string   `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID  *string   `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	CreatedAt  time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionUserRegistered        = "USER_REGISTERED"
	AuditActionLoginSuccess          = "LOGIN_SUCCESS"
	AuditActionLoginFailedNotFound   = "LOGIN_FAILED_NOT_FOUND"
	AuditActionLoginFailedBadSecret  = "LOGIN_FAILED_BAD_SECRET"
	AuditActionLoginFailedInactive   = "LOGIN_FAILED_INACTIVE"
	AuditActionLoginFailedUnverified = "LOGIN_FAILED_UNVERIFIED"
	AuditActionLoginRateLimited      = "LOGIN_RATE_LIMITED"
	AuditActionEmailVerified         = "EMAIL_VERIFIED"
	AuditActionTokenRefreshed        = "TOKEN_REFRESHED"
	AuditActionAccountActivated      = "ACCOUNT_ACTIVATED"
	AuditActionAccountDeactivated    = "ACCOUNT_DEACTIVATED"
	AuditActionSettingUpdated        = "SETTING_UPDATED"
	AuditActionKYCInitiated          = "KYC_INITIATED"
)

// Audit target types
const (
	AuditTargetAccount = "account"
	AuditTargetSetting = "system_setting"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	ActorID       *uint
	Action        *string
	TargetType    *string
	TargetID      *string
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// IsLoginFailure reports whether the entry records a rejected login.
func (a *AuditLog) IsLoginFailure() bool {
	switch a.Action {
	case AuditActionLoginFailedNotFound,
		AuditActionLoginFailedBadSecret,
		AuditActionLoginFailedInactive,
		AuditActionLoginFailedUnverified,
		AuditActionLoginRateLimited:
		return true
	default:
		return false
	}
}
