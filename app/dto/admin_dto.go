package dto

// SetActivationRequest toggles an account's active flag
type SetActivationRequest struct {
	Active *bool `json:"active" validate:"required" example:"true"`
}

// UpsertSettingRequest creates or replaces a system setting
type UpsertSettingRequest struct {
	Value       string  `json:"value" validate:"required,max=1000" example:"false"`
	IsActive    *bool   `json:"isActive,omitempty" example:"true"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// SystemSettingDTO is the public view of a system setting
type SystemSettingDTO struct {
	Category    string  `json:"category" example:"onboarding"`
	Key         string  `json:"key" example:"userApprovalRequired"`
	Value       string  `json:"value" example:"false"`
	IsActive    bool    `json:"isActive" example:"true"`
	Description *string `json:"description,omitempty"`
	UpdatedAt   string  `json:"updatedAt" example:"2026-01-15T10:30:00Z"`
}
