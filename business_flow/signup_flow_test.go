package businessflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/models"
	testingutil "github.com/amirphl/Ejare/testing"
	"github.com/amirphl/Ejare/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRequest(email, role, nationalID string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Name:       "Ana Silva",
		Email:      email,
		Password:   "Str0ngP@ss!",
		Role:       role,
		NationalID: nationalID,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("TenantWithoutApprovalIsActive", func(t *testing.T) {
		env := newFlowEnv(t)
		require.NoError(t, env.fixtures.SetOnboardingPolicy(false, false, false))

		result, err := env.signup.Register(ctx, registerRequest("a@x.com", "TENANT", "A1000001"), testMetadata())
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, TokenTypeBearer, result.TokenType)
		assert.Equal(t, 900, result.ExpiresIn)
		assert.True(t, result.Account.IsActive)
		assert.Equal(t, "TENANT", result.Account.Role)
		assert.Nil(t, result.Account.Profile)

		account, err := env.accountRepo.ByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.True(t, utils.IsTrue(account.IsActive))
		assert.False(t, utils.IsTrue(account.IsEmailVerified))
		assert.NotEqual(t, "Str0ngP@ss!", account.PasswordHash)
		assert.True(t, env.hasher.Compare(account.PasswordHash, "Str0ngP@ss!"))

		profile, err := env.profileRepo.ByAccountID(ctx, account.ID)
		require.NoError(t, err)
		assert.Nil(t, profile)

		assert.Equal(t, []string{models.AuditActionUserRegistered}, env.audit.actions())
		event := env.audit.last()
		require.NotNil(t, event.ActorID)
		assert.Equal(t, account.ID, *event.ActorID)
		assert.Equal(t, "203.0.113.7", event.IPAddress)
		assert.Equal(t, "req-test", event.RequestID)
	})

	t.Run("DefaultPolicyRequiresApproval", func(t *testing.T) {
		env := newFlowEnv(t)

		result, err := env.signup.Register(ctx, registerRequest("owner@x.com", "owner", "A1000002"), testMetadata())
		require.NoError(t, err)
		assert.False(t, result.Account.IsActive)
		assert.Equal(t, "OWNER", result.Account.Role)
	})

	t.Run("ProviderPendingWithoutAutoApprove", func(t *testing.T) {
		env := newFlowEnv(t)
		require.NoError(t, env.fixtures.SetOnboardingPolicy(true, false, false))

		result, err := env.signup.Register(ctx, registerRequest("b@x.com", "PROVIDER", "B1000001"), testMetadata())
		require.NoError(t, err)
		assert.False(t, result.Account.IsActive)
		require.NotNil(t, result.Account.Profile)
		assert.Equal(t, "PENDING_VERIFICATION", result.Account.Profile.Status)
		assert.False(t, result.Account.Profile.IsVerified)

		account, err := env.accountRepo.ByEmail(ctx, "b@x.com")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.False(t, utils.IsTrue(account.IsActive))

		profile, err := env.profileRepo.ByAccountID(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, models.ProfileKindServiceProvider, profile.Kind)
		assert.Equal(t, models.ProfileStatusPendingVerification, profile.Status)
		assert.False(t, utils.IsTrue(profile.IsVerified))
		assert.Equal(t, "Ana Silva", profile.BusinessName)
		assert.Equal(t, DefaultProfileCategory, profile.Category)
	})

	t.Run("MaintenanceAutoApproved", func(t *testing.T) {
		env := newFlowEnv(t)
		require.NoError(t, env.fixtures.SetOnboardingPolicy(true, false, true))

		req := registerRequest("m@x.com", "maintenance", "M1000001")
		req.BusinessName = utils.ToPtr("Fix It Fast")
		req.Category = utils.ToPtr(" Plumbing ")

		result, err := env.signup.Register(ctx, req, testMetadata())
		require.NoError(t, err)
		assert.True(t, result.Account.IsActive)

		account, err := env.accountRepo.ByEmail(ctx, "m@x.com")
		require.NoError(t, err)
		assert.True(t, utils.IsTrue(account.IsActive))

		profile, err := env.profileRepo.ByAccountID(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, models.ProfileKindMaintenanceProvider, profile.Kind)
		assert.Equal(t, models.ProfileStatusActive, profile.Status)
		assert.Equal(t, utils.IsTrue(account.IsActive), utils.IsTrue(profile.IsVerified))
		assert.Equal(t, "Fix It Fast", profile.BusinessName)
		assert.Equal(t, "plumbing", profile.Category)
	})

	t.Run("DuplicateEmailConflict", func(t *testing.T) {
		env := newFlowEnv(t)

		_, err := env.signup.Register(ctx, registerRequest("a@x.com", "TENANT", "D1000001"), testMetadata())
		require.NoError(t, err)

		_, err = env.signup.Register(ctx, registerRequest("A@X.com", "TENANT", "D1000002"), testMetadata())
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		assert.True(t, IsEmailAlreadyExists(err))

		count, err := env.fixtures.CountAccountsByEmail("a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("DuplicateNationalIDConflict", func(t *testing.T) {
		env := newFlowEnv(t)

		_, err := env.signup.Register(ctx, registerRequest("first@x.com", "TENANT", "N1000001"), testMetadata())
		require.NoError(t, err)

		_, err = env.signup.Register(ctx, registerRequest("second@x.com", "TENANT", "N1000001"), testMetadata())
		require.Error(t, err)
		assert.True(t, IsNationalIDAlreadyExists(err))
		assert.False(t, IsEmailAlreadyExists(err))
	})

	t.Run("PrivilegedRoleForbidden", func(t *testing.T) {
		env := newFlowEnv(t)

		for _, role := range []string{"ADMIN", "super_admin", "ROOT"} {
			_, err := env.signup.Register(ctx, registerRequest("x@x.com", role, "R1000001"), testMetadata())
			require.Error(t, err, role)
			assert.True(t, IsForbiddenRole(err), role)
		}

		count, err := env.fixtures.CountAccountsByEmail("x@x.com")
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, env.audit.actions())
	})

	t.Run("ForbiddenRoleCheckedBeforeUniqueness", func(t *testing.T) {
		env := newFlowEnv(t)
		_, err := env.fixtures.CreateTestAccount(testingAccount("taken@x.com"))
		require.NoError(t, err)

		_, err = env.signup.Register(ctx, registerRequest("taken@x.com", "ADMIN", "R1000002"), testMetadata())
		assert.True(t, IsForbiddenRole(err))
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		env := newFlowEnv(t)

		req := &dto.RegisterRequest{
			Name:       "A",
			Email:      "not-an-email",
			Password:   "weak",
			NationalID: "12",
		}
		_, err := env.signup.Register(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := ValidationFields(err)
		for _, field := range []string{"name", "email", "password", "role", "nationalId"} {
			assert.Contains(t, fields, field)
		}
		assert.Equal(t, "Role is required", fields["role"])
	})

	t.Run("PasswordStrength", func(t *testing.T) {
		env := newFlowEnv(t)

		req := registerRequest("weak@x.com", "TENANT", "W1000001")
		req.Password = "alllowercase1"
		_, err := env.signup.Register(ctx, req, testMetadata())
		require.Error(t, err)
		assert.Contains(t, ValidationFields(err)["password"], "upper case")
	})

	t.Run("SendsVerificationEmail", func(t *testing.T) {
		env := newFlowEnv(t)

		_, err := env.signup.Register(ctx, registerRequest("mail@x.com", "TENANT", "V1000001"), testMetadata())
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			_, ok := env.notifier.find("verification", "mail@x.com")
			return ok
		}, 2*time.Second, 10*time.Millisecond)

		mail, _ := env.notifier.find("verification", "mail@x.com")
		assert.Len(t, mail.token, 64)

		account, err := env.accountRepo.ByEmail(ctx, "mail@x.com")
		require.NoError(t, err)
		require.NotNil(t, account.EmailVerificationTokenHash)
		assert.Equal(t, utils.HashToken(mail.token), *account.EmailVerificationTokenHash)
	})

	t.Run("NotificationFailureDoesNotFailRegistration", func(t *testing.T) {
		env := newFlowEnv(t)
		env.notifier.err = fmt.Errorf("smtp down")

		result, err := env.signup.Register(ctx, registerRequest("down@x.com", "TENANT", "V1000002"), testMetadata())
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
	})
}

func testingAccount(email string) testingutil.AccountOptions {
	return testingutil.AccountOptions{Email: email, Active: true}
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	env := newFlowEnv(t)
	require.NoError(t, env.fixtures.SetOnboardingPolicy(false, false, false))

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.signup.Register(context.Background(),
				registerRequest("race@x.com", "TENANT", fmt.Sprintf("RACE%04d", i)), testMetadata())

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case IsConflict(err):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	count, err := env.fixtures.CountAccountsByEmail("race@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()

	registerAndCaptureToken := func(t *testing.T, env *flowEnv, email, role, nationalID string) string {
		t.Helper()
		_, err := env.signup.Register(ctx, registerRequest(email, role, nationalID), testMetadata())
		require.NoError(t, err)

		var token string
		require.Eventually(t, func() bool {
			mail, ok := env.notifier.find("verification", email)
			token = mail.token
			return ok
		}, 2*time.Second, 10*time.Millisecond)
		return token
	}

	t.Run("Success", func(t *testing.T) {
		env := newFlowEnv(t)
		token := registerAndCaptureToken(t, env, "verify@x.com", "PROVIDER", "E1000001")
		env.audit.reset()

		result, err := env.signup.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: strings.ToUpper(token)}, testMetadata())
		require.NoError(t, err)
		assert.True(t, result.Account.IsEmailVerified)
		require.NotNil(t, result.Account.Profile)

		account, err := env.accountRepo.ByEmail(ctx, "verify@x.com")
		require.NoError(t, err)
		assert.True(t, utils.IsTrue(account.IsEmailVerified))
		assert.NotNil(t, account.EmailVerifiedAt)
		assert.Nil(t, account.EmailVerificationTokenHash)

		assert.Equal(t, []string{models.AuditActionEmailVerified}, env.audit.actions())

		// the token is single use
		_, err = env.signup.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: token}, testMetadata())
		assert.True(t, IsVerificationTokenInvalid(err))
	})

	t.Run("UnknownToken", func(t *testing.T) {
		env := newFlowEnv(t)

		_, err := env.signup.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: strings.Repeat("ab", 32)}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsVerificationTokenInvalid(err))
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		env := newFlowEnv(t)
		token := registerAndCaptureToken(t, env, "late@x.com", "TENANT", "E1000002")

		require.NoError(t, env.db.DB.Model(&models.Account{}).
			Where("email = ?", "late@x.com").
			Update("email_verification_expires_at", time.Now().UTC().Add(-time.Minute)).Error)

		_, err := env.signup.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: token}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsVerificationTokenExpired(err))
	})

	t.Run("MalformedToken", func(t *testing.T) {
		env := newFlowEnv(t)

		_, err := env.signup.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: "short"}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, ValidationFields(err), "token")
	})
}
