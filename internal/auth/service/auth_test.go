package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAliceScenario(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	u, err := env.auth.Register(env.ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, u.Role)
	require.Equal(t, domain.DefaultCurrency, u.Currency)

	_, _, err = env.auth.Login(env.ctx, "alice", "Passw0rd!", domain.RoleAdmin)
	require.ErrorIs(t, err, ErrRoleDenied)

	_, pair, err := env.auth.Login(env.ctx, "alice", "Passw0rd!", domain.RoleUser)
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, time.Hour, pair.ExpiresIn)

	claims, err := env.tokens.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, u.ID, claims.UserID)
}

func TestRegisterLoginRoles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role      domain.Role
		userLogin bool
		admLogin  bool
	}{
		{domain.RoleUser, true, false},
		{domain.RoleAdmin, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			t.Parallel()
			env := newEnv(t)
			env.register(t, "carol", "carol@x.com", tt.role)

			for expected, ok := range map[domain.Role]bool{domain.RoleUser: tt.userLogin, domain.RoleAdmin: tt.admLogin} {
				_, pair, err := env.auth.Login(env.ctx, "carol@x.com", testPassword, expected)
				if !ok {
					require.ErrorIs(t, err, ErrRoleDenied)
					continue
				}
				require.NoError(t, err)
				claims, err := env.tokens.VerifyAccessToken(pair.AccessToken)
				require.NoError(t, err)
				require.Equal(t, tt.role.String(), claims.Role)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	_, err := env.auth.Register(env.ctx, RegisterInput{Username: "a", Email: "nope", Password: "short"})
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	// username, email, length, upper, digit, special
	require.Len(t, ve.Problems, 6)

	_, err = env.auth.Register(env.ctx, RegisterInput{Username: "dave", Email: "dave@x.com", Password: testPassword, Role: "root"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRegisterConflict(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.register(t, "erin", "erin@x.com", domain.RoleUser)

	var ce *ConflictError

	_, err := env.auth.Register(env.ctx, RegisterInput{Username: "erin", Email: "other@x.com", Password: testPassword})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "username", ce.Field)

	_, err = env.auth.Register(env.ctx, RegisterInput{Username: "erin2", Email: "ERIN@x.com", Password: testPassword})
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "email", ce.Field)
}

func TestLoginEnumerationResistance(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.register(t, "realuser", "realuser@x.com", domain.RoleUser)

	_, _, errUnknown := env.auth.Login(env.ctx, "nonexistent@x.com", "anything", domain.RoleUser)
	_, _, errWrong := env.auth.Login(env.ctx, "realuser@x.com", "wrongpassword", domain.RoleUser)

	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLoginValidation(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	_, _, err := env.auth.Login(env.ctx, " ", "", domain.RoleUser)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Problems, 2)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	u := env.register(t, "frank", "frank@x.com", domain.RoleUser)

	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.store.Users().UpdatePasswordHash(env.ctx, u.ID, string(legacy), env.clock.Now()))

	_, _, err = env.auth.Login(env.ctx, "frank", testPassword, domain.RoleUser)
	require.NoError(t, err)

	stored, err := env.store.Users().GetUserByID(env.ctx, u.ID)
	require.NoError(t, err)
	require.False(t, cryptox.NeedsRehash(stored.PasswordHash))
	require.NoError(t, cryptox.VerifyPassword(testPassword, stored.PasswordHash))
}

func TestTokenChecks(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	user := env.register(t, "gina", "gina@x.com", domain.RoleUser)
	admin := env.register(t, "root", "root@x.com", domain.RoleAdmin)

	userTok, _, err := env.tokens.IssueAccessToken(user)
	require.NoError(t, err)
	adminTok, _, err := env.tokens.IssueAccessToken(admin)
	require.NoError(t, err)

	require.True(t, env.auth.IsUser(userTok))
	require.False(t, env.auth.IsAdmin(userTok))
	require.True(t, env.auth.IsUser(adminTok))
	require.True(t, env.auth.IsAdmin(adminTok))
	require.False(t, env.auth.IsUser("garbage"))
	require.False(t, env.auth.IsAdmin(""))

	id, err := env.auth.GetUserID(env.ctx, userTok)
	require.NoError(t, err)
	require.Equal(t, user.ID, id)

	t.Run("deleted user no longer authorizes", func(t *testing.T) {
		require.NoError(t, env.store.Users().DeleteUser(env.ctx, user.ID))
		_, err := env.auth.GetUserID(env.ctx, userTok)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestRefreshAndLogout(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.register(t, "hank", "hank@x.com", domain.RoleUser)

	_, pair, err := env.auth.Login(env.ctx, "hank", testPassword, domain.RoleUser)
	require.NoError(t, err)

	access, _, err := env.auth.Refresh(env.ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, env.auth.IsUser(access))

	require.NoError(t, env.auth.Logout(env.ctx, pair.RefreshToken))
	_, _, err = env.auth.Refresh(env.ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = env.auth.Refresh(env.ctx, "")
	require.ErrorIs(t, err, ErrValidation)
}
