package businessflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/repository"
	testingutil "github.com/amirphl/Ejare/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-at-least-32-bytes-long"

type recordingEmitter struct {
	mu     sync.Mutex
	events []services.AuditEvent
}

func (e *recordingEmitter) Record(_ context.Context, event services.AuditEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) Close() {}

func (e *recordingEmitter) actions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Action)
	}
	return out
}

func (e *recordingEmitter) last() services.AuditEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.events) == 0 {
		return services.AuditEvent{}
	}
	return e.events[len(e.events)-1]
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

type sentMail struct {
	kind  string
	email string
	token string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) SendVerificationEmail(_ context.Context, email, _, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "verification", email: email, token: token})
	return n.err
}

func (n *recordingNotifier) SendWelcomeEmail(_ context.Context, email, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "welcome", email: email})
	return n.err
}

func (n *recordingNotifier) find(kind, email string) (sentMail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.sent {
		if m.kind == kind && m.email == email {
			return m, true
		}
	}
	return sentMail{}, false
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type flowEnv struct {
	db          *testingutil.TestDB
	fixtures    *testingutil.TestFixtures
	accountRepo repository.AccountRepository
	profileRepo repository.ProfessionalProfileRepository
	settingRepo repository.SystemSettingRepository
	resolver    *SettingsPolicyResolver
	hasher      services.PasswordHasher
	tokens      services.TokenService
	clock       *fakeClock
	limiter     *services.RateLimiter
	audit       *recordingEmitter
	notifier    *recordingNotifier
	signup      SignupFlow
	login       LoginFlow
	admin       AdminAccountFlow
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = testDB.TeardownTestDB() })

	hasher, err := services.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	tokens, err := services.NewTokenService(15*time.Minute, 7*24*time.Hour, "ejare-test", "ejare-test-api", false, "", "", testSecret)
	require.NoError(t, err)

	env := &flowEnv{
		db:          testDB,
		fixtures:    testingutil.NewTestFixtures(testDB),
		accountRepo: repository.NewAccountRepository(testDB.DB),
		profileRepo: repository.NewProfessionalProfileRepository(testDB.DB),
		settingRepo: repository.NewSystemSettingRepository(testDB.DB),
		hasher:      hasher,
		tokens:      tokens,
		clock:       &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)},
		audit:       &recordingEmitter{},
		notifier:    &recordingNotifier{},
	}
	env.resolver = NewSettingsPolicyResolver(env.settingRepo, zap.NewNop())
	env.limiter = services.NewRateLimiter(
		services.NewMemoryCounterStore(env.clock.Now),
		services.RateLimitPolicy{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			Lockout:     15 * time.Minute,
			KeyPolicy:   services.KeyPolicyAccount,
		},
		zap.NewNop(),
	)

	env.signup = NewSignupFlow(env.accountRepo, env.profileRepo, env.resolver, hasher, tokens,
		env.notifier, env.audit, zap.NewNop(), testDB.DB)
	env.login = NewLoginFlow(env.accountRepo, env.profileRepo, env.resolver, hasher, tokens,
		env.limiter, env.notifier, env.audit, zap.NewNop())
	env.admin = NewAdminAccountFlow(env.accountRepo, env.profileRepo, env.settingRepo,
		env.audit, zap.NewNop(), testDB.DB)

	return env
}

func testMetadata() *ClientMetadata {
	meta := NewClientMetadata("203.0.113.7", "flow-test/1.0")
	meta.SetRequestID("req-test")
	return meta
}
