package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

var ErrBootstrapIncomplete = errors.New("admin bootstrap needs username, email and password")

// EnsureAdmin creates the first admin account when none exists yet. It is
// safe to call on every start; once an admin exists it does nothing.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	l := slogx.FromContext(ctx)

	// 1. Check if an admin already exists
	n, err := s.Store.Users().CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, storageErr("bootstrap: count admins", err)
	}
	if n > 0 {
		l.Debug("admin already present, skipping bootstrap", slog.Int("admins", n))
		return false, nil
	}

	// 2. Credentials must be configured
	if username == "" || email == "" || password == "" {
		return false, ErrBootstrapIncomplete
	}

	// 3. Register through the normal path so the password policy applies
	u, err := s.Register(ctx, RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return false, err
	}

	l.Info("bootstrap admin created", slog.String("user_id", u.ID), slog.String("username", u.Username))
	return true, nil
}
