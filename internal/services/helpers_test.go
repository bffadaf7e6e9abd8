package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/infrastructure/auth"
	"github.com/gemstone-market/identity/internal/infrastructure/database"
	"github.com/gemstone-market/identity/internal/infrastructure/repositories"
	"github.com/gemstone-market/identity/internal/metrics"
	"github.com/gemstone-market/identity/internal/mocks"
)

const (
	testPassword  = "Sapphire2024"
	testSealerKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

// testClock is a settable clock shared by every service in a harness
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness wires the real services over SQLite and miniredis
type harness struct {
	store        domain.Store
	pending      domain.PendingStateStore
	redis        *miniredis.Miniredis
	clock        *testClock
	dispatcher   *mocks.MockDispatcher
	audit        *mocks.MockAuditLogger
	verification domain.VerificationService
	rbac         domain.RBACResolver
	roles        domain.RoleAdminService
	auth         domain.AuthService
	mfa          domain.MFAService
	tokens       domain.TokenCodec
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(database.Options{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(context.Background(), db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// miniredis TTLs run on the wall clock, so start from now
	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	log := zerolog.Nop()
	m := metrics.New()

	store := repositories.NewStore(db)
	require.NoError(t, SeedDefaultRoles(context.Background(), store))

	sealer, err := auth.NewSecretSealer(testSealerKey)
	require.NoError(t, err)

	h := &harness{
		store:      store,
		pending:    repositories.NewPendingStateRepository(client, clock.Now),
		redis:      mr,
		clock:      clock,
		dispatcher: mocks.NewMockDispatcher(),
		audit:      mocks.NewMockAuditLogger(),
		tokens: auth.NewJWTService(auth.JWTOptions{
			AccessSecret:  "access-secret-access-secret-0123",
			RefreshSecret: "refresh-secret-refresh-secret-01",
			Issuer:        "gemstone-identity-test",
			AccessTTL:     "15m",
			RefreshTTL:    "7d",
			Now:           clock.Now,
		}, log),
	}
	h.verification = NewVerificationService(store, clock.Now)
	h.rbac = NewRBACService(store)
	h.roles = NewRoleAdminService(store, h.audit, log)
	h.auth = NewAuthService(AuthDependencies{
		Store:        store,
		Pending:      h.pending,
		Passwords:    auth.NewPasswordService(bcrypt.MinCost, 5*time.Second),
		Tokens:       h.tokens,
		Verification: h.verification,
		RBAC:         h.rbac,
		Dispatcher:   h.dispatcher,
		Audit:        h.audit,
		Metrics:      m,
		Log:          log,
	}, AuthSettings{
		DefaultRole:     "customer",
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		ResendWindow:    30 * time.Minute,
		ResendMax:       3,
		ResetWindow:     30 * time.Minute,
		ResetMax:        3,
		ChallengeTTL:    5 * time.Minute,
		Now:             clock.Now,
	})
	h.mfa = NewMFAService(MFADependencies{
		Store:        store,
		Pending:      h.pending,
		TOTP:         auth.NewTOTPService("Gemstone Test"),
		Sealer:       sealer,
		Verification: h.verification,
		Auth:         h.auth,
		Dispatcher:   h.dispatcher,
		Audit:        h.audit,
		Metrics:      m,
		Log:          log,
	}, MFASettings{
		EnrollmentTTL: 10 * time.Minute,
		MaxAttempts:   3,
		Now:           clock.Now,
	})
	return h
}

// register creates a pending account with the default password
func (h *harness) register(t *testing.T, email string) *domain.Account {
	t.Helper()

	account, err := h.auth.Register(context.Background(), domain.RegisterInput{
		Email:    email,
		Password: testPassword,
		Phone:    "+15550100",
	})
	require.NoError(t, err)
	return account
}

// registerVerified creates an account and completes email verification
func (h *harness) registerVerified(t *testing.T, email string) *domain.Account {
	t.Helper()

	account := h.register(t, email)
	require.NoError(t, h.auth.VerifyEmail(context.Background(), h.dispatcher.LastToken("verify")))
	return account
}

// enableMFA enrolls the account and returns the plain TOTP secret
func (h *harness) enableMFA(t *testing.T, accountID uint) string {
	t.Helper()
	ctx := context.Background()

	enrollment, err := h.mfa.BeginEnroll(ctx, accountID)
	require.NoError(t, err)
	require.NoError(t, h.mfa.ConfirmEnroll(ctx, accountID, h.code(t, enrollment.Secret)))
	return enrollment.Secret
}

// code returns the current TOTP code for secret at the harness clock
func (h *harness) code(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, h.clock.Now())
	require.NoError(t, err)
	return code
}

func (h *harness) account(t *testing.T, id uint) *domain.Account {
	t.Helper()

	account, err := h.store.Accounts().FindByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func (h *harness) tokenCount(t *testing.T, accountID uint, purpose domain.TokenPurpose) int64 {
	t.Helper()

	n, err := h.store.VerificationTokens().CountCreatedSince(context.Background(), accountID, purpose, time.Time{})
	require.NoError(t, err)
	return n
}
