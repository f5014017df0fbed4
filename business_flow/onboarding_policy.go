package businessflow

import (
	"context"
	"strconv"
	"strings"

	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/repository"
	"go.uber.org/zap"
)

// OnboardingPolicy is the resolved set of approval rules applied at registration
type OnboardingPolicy struct {
	ApprovalRequired          bool
	AutoApproveService        bool
	AutoApproveMaintenance    bool
	EmailVerificationRequired bool
}

// DefaultOnboardingPolicy is used for absent, inactive or unparseable settings
func DefaultOnboardingPolicy() OnboardingPolicy {
	return OnboardingPolicy{
		ApprovalRequired:          true,
		AutoApproveService:        false,
		AutoApproveMaintenance:    false,
		EmailVerificationRequired: false,
	}
}

// ResolveOnboardingPolicy applies active onboarding settings, keyed by setting key, over the defaults
func ResolveOnboardingPolicy(settings map[string]string) OnboardingPolicy {
	policy := DefaultOnboardingPolicy()
	policy.ApprovalRequired = boolSetting(settings, models.SettingUserApprovalRequired, policy.ApprovalRequired)
	policy.AutoApproveService = boolSetting(settings, models.SettingAutoApproveServiceProviders, policy.AutoApproveService)
	policy.AutoApproveMaintenance = boolSetting(settings, models.SettingAutoApproveMaintenanceProviders, policy.AutoApproveMaintenance)
	policy.EmailVerificationRequired = boolSetting(settings, models.SettingRequireEmailVerification, policy.EmailVerificationRequired)
	return policy
}

func boolSetting(settings map[string]string, key string, fallback bool) bool {
	raw, ok := settings[key]
	if !ok {
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

// ActivationDecision is what registration writes for a given role under a policy
type ActivationDecision struct {
	// InitiallyActive is the is_active value of the inserted account
	InitiallyActive bool
	// AutoApproved means the role specific flag promotes the account to active
	AutoApproved bool
	// CreateProfile is set for PROVIDER and MAINTENANCE
	CreateProfile bool
	ProfileKind   models.ProfileKind
}

// Active is the is_active value after the registration transaction commits
func (d ActivationDecision) Active() bool {
	return d.InitiallyActive || d.AutoApproved
}

// ProfileStatus is the status written to the professional profile, if any
func (d ActivationDecision) ProfileStatus() models.ProfileStatus {
	if d.AutoApproved {
		return models.ProfileStatusActive
	}
	return models.ProfileStatusPendingVerification
}

// DecideActivation computes the activation outcome without touching storage
func DecideActivation(policy OnboardingPolicy, role models.Role) ActivationDecision {
	decision := ActivationDecision{InitiallyActive: !policy.ApprovalRequired}

	switch models.NormalizeRole(string(role)) {
	case models.RoleProvider:
		decision.AutoApproved = policy.AutoApproveService
	case models.RoleMaintenance:
		decision.AutoApproved = policy.AutoApproveMaintenance
	}

	if kind, ok := models.ProfileKindForRole(models.NormalizeRole(string(role))); ok {
		decision.CreateProfile = true
		decision.ProfileKind = kind
	}
	return decision
}

// PolicyResolver loads the onboarding policy in effect
type PolicyResolver interface {
	Resolve(ctx context.Context) OnboardingPolicy
}

// SettingsPolicyResolver reads the onboarding category of the system settings table
type SettingsPolicyResolver struct {
	settingRepo repository.SystemSettingRepository
	logger      *zap.Logger
}

func NewSettingsPolicyResolver(settingRepo repository.SystemSettingRepository, logger *zap.Logger) *SettingsPolicyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsPolicyResolver{settingRepo: settingRepo, logger: logger}
}

// Resolve never fails. A store error yields the safe defaults.
func (r *SettingsPolicyResolver) Resolve(ctx context.Context) OnboardingPolicy {
	rows, err := r.settingRepo.ActiveByCategory(ctx, models.SettingCategoryOnboarding)
	if err != nil {
		r.logger.Warn("Failed to load onboarding settings, using defaults", zap.Error(err))
		return DefaultOnboardingPolicy()
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return ResolveOnboardingPolicy(settings)
}
