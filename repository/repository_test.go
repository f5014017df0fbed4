package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/repository"
	testingutil "github.com/amirphl/Ejare/testing"
	"github.com/amirphl/Ejare/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAccountRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		account, err := fixtures.CreateTestAccount(testingutil.AccountOptions{Email: "Ana@Example.com", Active: true})
		require.NoError(t, err)

		t.Run("ByEmailIsCaseInsensitive", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, "  ANA@example.COM ")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, account.ID, found.ID)
			assert.Equal(t, "ana@example.com", found.Email)
		})

		t.Run("ByEmailNotFound", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, "nobody@example.com")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByNationalID", func(t *testing.T) {
			found, err := repo.ByNationalID(ctx, account.NationalID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, account.ID, found.ID)
		})

		t.Run("ByUUID", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, account.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, account.ID, found.ID)

			found, err = repo.ByUUID(ctx, "not-a-uuid")
			assert.Error(t, err)
			assert.Nil(t, found)
		})

		t.Run("UpdateActiveFlag", func(t *testing.T) {
			require.NoError(t, repo.UpdateActiveFlag(ctx, account.ID, false))
			found, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.False(t, utils.IsTrue(found.IsActive))
		})

		t.Run("MarkEmailVerifiedClearsToken", func(t *testing.T) {
			hash := utils.HashToken("abc")
			require.NoError(t, testDB.DB.Model(&models.Account{}).Where("id = ?", account.ID).
				Updates(map[string]any{
					"email_verification_token_hash": hash,
					"email_verification_expires_at": utils.UTCNow().Add(time.Hour),
				}).Error)

			found, err := repo.ByVerificationTokenHash(ctx, hash)
			require.NoError(t, err)
			require.NotNil(t, found)

			require.NoError(t, repo.MarkEmailVerified(ctx, account.ID, utils.UTCNow()))

			found, err = repo.ByVerificationTokenHash(ctx, hash)
			require.NoError(t, err)
			assert.Nil(t, found)

			verified, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(verified.IsEmailVerified))
			assert.NotNil(t, verified.EmailVerifiedAt)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			at := utils.UTCNow().Truncate(time.Second)
			require.NoError(t, repo.UpdateLastLogin(ctx, account.ID, at))
			found, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			require.NotNil(t, found.LastLoginAt)
			assert.True(t, found.LastLoginAt.Equal(at))
		})

		t.Run("DuplicateEmailIsTranslated", func(t *testing.T) {
			dup := &models.Account{
				Email:           "ana@example.com",
				NationalID:      "NIDDUPLICATE1",
				PasswordHash:    "x",
				Name:            "Dup",
				Role:            models.RoleTenant,
				IsActive:        utils.ToPtr(true),
				IsEmailVerified: utils.ToPtr(false),
			}
			err := repo.Save(ctx, dup)
			require.Error(t, err)
			assert.True(t, repository.IsDuplicateKey(err))
		})

		t.Run("CountAndExists", func(t *testing.T) {
			role := models.RoleTenant
			count, err := repo.Count(ctx, models.AccountFilter{Role: &role})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, count, int64(1))

			email := "nobody@example.com"
			exists, err := repo.Exists(ctx, models.AccountFilter{Email: &email})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestProfessionalProfileRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewProfessionalProfileRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		account, err := fixtures.CreateTestAccount(testingutil.AccountOptions{Role: models.RoleProvider})
		require.NoError(t, err)

		profile := &models.ProfessionalProfile{
			AccountID:    account.ID,
			Kind:         models.ProfileKindServiceProvider,
			BusinessName: "Ana Repairs",
			Category:     "plumbing",
			Status:       models.ProfileStatusPendingVerification,
			IsVerified:   utils.ToPtr(false),
		}
		require.NoError(t, repo.Save(ctx, profile))

		t.Run("ByAccountID", func(t *testing.T) {
			found, err := repo.ByAccountID(ctx, account.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, models.ProfileStatusPendingVerification, found.Status)

			found, err = repo.ByAccountID(ctx, account.ID+1000)
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("UpdateStatus", func(t *testing.T) {
			require.NoError(t, repo.UpdateStatus(ctx, account.ID, models.ProfileStatusActive, true))
			found, err := repo.ByAccountID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ProfileStatusActive, found.Status)
			assert.True(t, utils.IsTrue(found.IsVerified))
		})

		t.Run("OneProfilePerAccount", func(t *testing.T) {
			err := repo.Save(ctx, &models.ProfessionalProfile{
				AccountID:    account.ID,
				Kind:         models.ProfileKindServiceProvider,
				BusinessName: "Second",
				Category:     "general",
				Status:       models.ProfileStatusPendingVerification,
				IsVerified:   utils.ToPtr(false),
			})
			assert.True(t, repository.IsDuplicateKey(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSystemSettingRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSystemSettingRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("UpsertInsertsThenUpdates", func(t *testing.T) {
			require.NoError(t, repo.Upsert(ctx, &models.SystemSetting{
				Category: models.SettingCategoryOnboarding,
				Key:      models.SettingUserApprovalRequired,
				Value:    "true",
				IsActive: utils.ToPtr(true),
			}))
			require.NoError(t, repo.Upsert(ctx, &models.SystemSetting{
				Category: models.SettingCategoryOnboarding,
				Key:      models.SettingUserApprovalRequired,
				Value:    "false",
				IsActive: utils.ToPtr(true),
			}))

			found, err := repo.ByCategoryAndKey(ctx, models.SettingCategoryOnboarding, models.SettingUserApprovalRequired)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "false", found.Value)

			count, err := repo.Count(ctx, models.SystemSettingFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("ActiveByCategorySkipsInactive", func(t *testing.T) {
			require.NoError(t, repo.Upsert(ctx, &models.SystemSetting{
				Category: models.SettingCategoryOnboarding,
				Key:      models.SettingAutoApproveServiceProviders,
				Value:    "true",
				IsActive: utils.ToPtr(false),
			}))

			rows, err := repo.ActiveByCategory(ctx, models.SettingCategoryOnboarding)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, models.SettingUserApprovalRequired, rows[0].Key)
		})

		t.Run("MissingKey", func(t *testing.T) {
			found, err := repo.ByCategoryAndKey(ctx, "nope", "nope")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAuditLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAuditLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		actor := uint(42)
		for _, action := range []string{models.AuditActionLoginSuccess, models.AuditActionLoginFailedBadSecret, models.AuditActionLoginSuccess} {
			require.NoError(t, repo.Save(ctx, &models.AuditLog{ActorID: &actor, Action: action}))
		}

		byActor, err := repo.ListByActor(ctx, actor, 10, 0)
		require.NoError(t, err)
		assert.Len(t, byActor, 3)

		byAction, err := repo.ListByAction(ctx, models.AuditActionLoginSuccess, 10, 0)
		require.NoError(t, err)
		assert.Len(t, byAction, 2)

		return nil
	})
	require.NoError(t, err)
}

func TestWithTransaction(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAccountRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		account, err := fixtures.CreateTestAccount(testingutil.AccountOptions{Active: true})
		require.NoError(t, err)

		t.Run("RollbackOnError", func(t *testing.T) {
			boom := errors.New("boom")
			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := repo.UpdateActiveFlag(txCtx, account.ID, false); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			found, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(found.IsActive))
		})

		t.Run("Commit", func(t *testing.T) {
			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				return repo.UpdateActiveFlag(txCtx, account.ID, false)
			})
			require.NoError(t, err)

			found, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.False(t, utils.IsTrue(found.IsActive))
		})

		return nil
	})
	require.NoError(t, err)
}
