package models_test

import (
	"testing"

	"github.com/amirphl/Ejare/models"
	testingutil "github.com/amirphl/Ejare/testing"
	"github.com/amirphl/Ejare/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole(t *testing.T) {
	t.Run("Normalize", func(t *testing.T) {
		assert.Equal(t, models.RoleProvider, models.NormalizeRole("  provider "))
		assert.Equal(t, models.RoleSuperAdmin, models.NormalizeRole("super_admin"))
	})

	t.Run("PublicRoles", func(t *testing.T) {
		for _, role := range []models.Role{models.RoleTenant, models.RoleOwner, models.RoleBroker, models.RoleRunner, models.RoleProvider, models.RoleMaintenance} {
			assert.True(t, role.IsPubliclyRegistrable(), role)
			assert.False(t, role.IsPrivileged(), role)
		}
		for _, role := range []models.Role{models.RoleAdmin, models.RoleSuperAdmin, "ROOT"} {
			assert.False(t, role.IsPubliclyRegistrable(), role)
		}
	})

	t.Run("Professional", func(t *testing.T) {
		kind, ok := models.ProfileKindForRole(models.RoleProvider)
		assert.True(t, ok)
		assert.Equal(t, models.ProfileKindServiceProvider, kind)

		kind, ok = models.ProfileKindForRole(models.RoleMaintenance)
		assert.True(t, ok)
		assert.Equal(t, models.ProfileKindMaintenanceProvider, kind)

		_, ok = models.ProfileKindForRole(models.RoleTenant)
		assert.False(t, ok)
	})

	t.Run("ScanAndValue", func(t *testing.T) {
		var r models.Role
		require.NoError(t, r.Scan([]byte("tenant")))
		assert.Equal(t, models.RoleTenant, r)

		require.NoError(t, r.Scan(nil))
		assert.Equal(t, models.Role(""), r)
		assert.Error(t, r.Scan(42))

		v, err := models.Role("owner").Value()
		require.NoError(t, err)
		assert.Equal(t, "OWNER", v)

		_, err = models.Role("ROOT").Value()
		assert.Error(t, err)
	})
}

func TestAccountBeforeCreate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		account := &models.Account{
			Email:           "  Mixed.Case@Example.COM ",
			NationalID:      "NID00001",
			PasswordHash:    "hash",
			Name:            "Mixed",
			Role:            "tenant",
			IsActive:        utils.ToPtr(true),
			IsEmailVerified: utils.ToPtr(false),
		}
		require.NoError(t, testDB.DB.Create(account).Error)

		assert.NotEqual(t, uuid.Nil, account.UUID)
		assert.Equal(t, "mixed.case@example.com", account.Email)
		assert.Equal(t, models.RoleTenant, account.Role)
		assert.False(t, account.CreatedAt.IsZero())
		assert.Equal(t, "accounts", account.TableName())
		assert.True(t, account.VerificationExpired())
		return nil
	})
	require.NoError(t, err)
}

func TestAuditLog_IsLoginFailure(t *testing.T) {
	assert.True(t, (&models.AuditLog{Action: models.AuditActionLoginFailedBadSecret}).IsLoginFailure())
	assert.True(t, (&models.AuditLog{Action: models.AuditActionLoginRateLimited}).IsLoginFailure())
	assert.False(t, (&models.AuditLog{Action: models.AuditActionLoginSuccess}).IsLoginFailure())
	assert.False(t, (&models.AuditLog{Action: models.AuditActionUserRegistered}).IsLoginFailure())
}
