package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/aussiebroadwan/fintrack/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "fintrack-test"
	testPassword = "Passw0rd!"
)

var (
	accessSecret  = []byte("access-secret-access-secret-0123456789")
	refreshSecret = []byte("refresh-secret-refresh-secret-012345678")
	captchaSecret = []byte("captcha-secret-captcha-secret-01234567")
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// testClock is a settable clock shared by every component of a testEnv.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	ctx     context.Context
	store   *sqlite.Store
	clock   *testClock
	tokens  *TokenService
	auth    *AuthService
	users   *UserService
	limiter *RateLimiter
	captcha *CaptchaService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	clock := newTestClock()

	access, err := jwtx.NewHS256(accessSecret, testIssuer, jwtx.WithClock(clock.Now))
	require.NoError(t, err)
	refresh, err := jwtx.NewHS256(refreshSecret, testIssuer, jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	tokens := &TokenService{
		Store:   st,
		Access:  access,
		Refresh: refresh,
		Issuer:  testIssuer,
		Now:     clock.Now,
	}

	return &testEnv{
		ctx:     context.Background(),
		store:   st,
		clock:   clock,
		tokens:  tokens,
		auth:    &AuthService{Store: st, Tokens: tokens, Now: clock.Now},
		users:   &UserService{Store: st, Tokens: tokens, Now: clock.Now},
		limiter: &RateLimiter{Store: st, Now: clock.Now},
		captcha: &CaptchaService{Store: st, Secret: captchaSecret, Now: clock.Now},
	}
}

func (e *testEnv) register(t *testing.T, username, email string, role domain.Role) domain.User {
	t.Helper()

	u, err := e.auth.Register(e.ctx, RegisterInput{
		Username: username,
		Email:    email,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}
