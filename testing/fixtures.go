// Package testing provides test utilities and database setup for testing the identity core
package testing

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTestPassword satisfies the registration password rules
const DefaultTestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// AccountOptions tweaks a fixture account. Zero values pick sensible defaults.
type AccountOptions struct {
	Email         string
	Password      string
	Role          models.Role
	Active        bool
	EmailVerified bool
}

// CreateTestAccount inserts an account directly, bypassing the registration flow
func (tf *TestFixtures) CreateTestAccount(opts AccountOptions) (*models.Account, error) {
	password := opts.Password
	if password == "" {
		password = DefaultTestPassword
	}
	role := opts.Role
	if role == "" {
		role = models.RoleTenant
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := strconv.Itoa(rand.Intn(900000000) + 100000000)
	email := opts.Email
	if email == "" {
		email = fmt.Sprintf("user.%s@example.com", suffix)
	}

	account := &models.Account{
		Email:           email,
		NationalID:      "NID" + suffix,
		PasswordHash:    string(hashedPassword),
		Name:            "Test User",
		Role:            role,
		IsActive:        utils.ToPtr(opts.Active),
		IsEmailVerified: utils.ToPtr(opts.EmailVerified),
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// SetSetting stores an active system setting
func (tf *TestFixtures) SetSetting(category, key, value string) error {
	return tf.DB.DB.WithContext(context.Background()).Create(&models.SystemSetting{
		Category: category,
		Key:      key,
		Value:    value,
		IsActive: utils.ToPtr(true),
	}).Error
}

// SetOnboardingPolicy stores the three onboarding flags at once
func (tf *TestFixtures) SetOnboardingPolicy(approvalRequired, autoApproveService, autoApproveMaintenance bool) error {
	settings := map[string]bool{
		models.SettingUserApprovalRequired:            approvalRequired,
		models.SettingAutoApproveServiceProviders:     autoApproveService,
		models.SettingAutoApproveMaintenanceProviders: autoApproveMaintenance,
	}
	for key, value := range settings {
		if err := tf.SetSetting(models.SettingCategoryOnboarding, key, strconv.FormatBool(value)); err != nil {
			return err
		}
	}
	return nil
}

// CountAccountsByEmail returns how many account rows hold the email
func (tf *TestFixtures) CountAccountsByEmail(email string) (int64, error) {
	var count int64
	err := tf.DB.DB.Model(&models.Account{}).Where("email = ?", utils.NormalizeEmail(email)).Count(&count).Error
	return count, err
}
