package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/aussiebroadwan/fintrack/pkg/idx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

// AuthService is the entry point the rest of the application uses for
// accounts and sessions.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	Policy *PasswordPolicy

	// Now defaults to time.Now.
	Now func() time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role // empty means user
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash is verified against when the account does not exist so
// unknown and known identifiers take about the same time.
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		h, err := cryptox.HashPassword(cryptox.MustGenerateToken(cryptox.TokenSize128))
		if err == nil {
			dummyHash = h
		}
	})
	return dummyHash
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) policy() PasswordPolicy {
	if s.Policy != nil {
		return *s.Policy
	}
	return DefaultPasswordPolicy
}

// Register validates and creates an account. All input problems are
// reported together in one ValidationError.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	// 1. Validate input
	username := strings.TrimSpace(in.Username)
	email := normaliseEmail(in.Email)
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	var bad problems
	checkUsername(&bad, username)
	checkEmail(&bad, email)
	if in.Password == "" {
		bad.add("password is required")
	} else {
		bad = append(bad, s.policy().Check(in.Password)...)
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		bad.add("role must be user or admin")
	}
	if err := bad.err(); err != nil {
		return domain.User{}, err
	}

	// 2. Uniqueness
	if err := checkUnique(ctx, s.Store.Users(), "", username, email); err != nil {
		return domain.User{}, err
	}

	// 3. Hash and insert
	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Currency:     domain.DefaultCurrency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, &ConflictError{Field: "username or email"}
		}
		return domain.User{}, storageErr("register: create user", err)
	}

	l.Info("user registered", slog.String("user_id", u.ID), slog.String("role", role.String()))
	return u, nil
}

// checkUnique reports a Conflict when username or email belongs to an
// account other than selfID.
func checkUnique(ctx context.Context, users store.Users, selfID, username, email string) error {
	existing, err := users.GetUserByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != selfID:
		return &ConflictError{Field: "username"}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return storageErr("lookup username", err)
	}

	existing, err = users.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return &ConflictError{Field: "email"}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return storageErr("lookup email", err)
	}
	return nil
}

// Login authenticates identifier (username or email) and issues a token
// pair. Unknown accounts and wrong passwords return the same error.
func (s *AuthService) Login(ctx context.Context, identifier, password string, expected domain.Role) (domain.User, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	if expected == "" {
		expected = domain.RoleUser
	}

	identifier = strings.TrimSpace(identifier)
	var bad problems
	if identifier == "" {
		bad.add("username or email is required")
	}
	if password == "" {
		bad.add("password is required")
	}
	if err := bad.err(); err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	// 1. Find the account
	u, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, dummyPasswordHash())
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.TokenPair{}, storageErr("login: lookup user", err)
	}

	// 2. Check the password
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			l.Error("unreadable password hash", slog.String("user_id", u.ID), slogx.Err(err))
		}
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	// 3. Role compatibility
	if !u.Role.Satisfies(expected) {
		l.Info("login role denied", slog.String("user_id", u.ID), slog.String("expected", expected.String()))
		return domain.User{}, domain.TokenPair{}, ErrRoleDenied
	}

	// 4. Upgrade legacy hashes while the plaintext is at hand
	if cryptox.NeedsRehash(u.PasswordHash) {
		if hash, err := cryptox.HashPassword(password); err == nil {
			if err := s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash, s.now()); err != nil {
				l.Warn("failed to upgrade password hash", slog.String("user_id", u.ID), slogx.Err(err))
			} else {
				u.PasswordHash = hash
			}
		}
	}

	// 5. Issue tokens
	pair, err := s.Tokens.IssuePair(ctx, u)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	l.Info("user logged in", slog.String("user_id", u.ID), slog.String("role", u.Role.String()))
	return u, pair, nil
}

// IsUser reports whether token is a valid access token for any account.
// It never fails; a bad token is simply false.
func (s *AuthService) IsUser(token string) bool {
	claims, err := s.Tokens.VerifyAccessToken(token)
	if err != nil {
		return false
	}
	return domain.Role(claims.Role).Satisfies(domain.RoleUser)
}

// IsAdmin reports whether token is a valid access token carrying the admin
// role.
func (s *AuthService) IsAdmin(token string) bool {
	claims, err := s.Tokens.VerifyAccessToken(token)
	if err != nil {
		return false
	}
	return domain.Role(claims.Role).Satisfies(domain.RoleAdmin)
}

// GetUserID verifies token and confirms its account still exists.
func (s *AuthService) GetUserID(ctx context.Context, token string) (string, error) {
	claims, err := s.Tokens.VerifyAccessToken(token)
	if err != nil {
		return "", err
	}
	if _, err := idx.Parse(claims.UserID); err != nil {
		return "", tokenInvalid(err)
	}
	if _, err := s.Store.Users().GetUserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", tokenInvalid(store.ErrNotFound)
		}
		return "", storageErr("get user id", err)
	}
	return claims.UserID, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", time.Time{}, &ValidationError{Problems: []string{"refresh_token is required"}}
	}
	return s.Tokens.RotateAccessToken(ctx, refreshToken)
}

// Logout revokes a refresh token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return &ValidationError{Problems: []string{"refresh_token is required"}}
	}
	return s.Tokens.Revoke(ctx, refreshToken)
}
