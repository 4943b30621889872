package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

// UserService covers what a signed-in user can do to their own account.
type UserService struct {
	Store  store.Store
	Tokens *TokenService
	Policy *PasswordPolicy

	// Now defaults to time.Now.
	Now func() time.Time
}

type ProfileUpdate struct {
	Username string
	Email    string
	Currency string
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *UserService) getUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, storageErr("load user", err)
	}
	return u, nil
}

// Profile fetches a user by id.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.getUser(ctx, userID)
}

// UpdateProfile changes username, email and display currency. Empty fields
// keep their current value.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (domain.User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	var bad problems
	if v := strings.TrimSpace(in.Username); v != "" {
		checkUsername(&bad, v)
		u.Username = v
	}
	if v := normaliseEmail(in.Email); v != "" {
		checkEmail(&bad, v)
		u.Email = v
	}
	if in.Currency != "" {
		c, ok := domain.ParseCurrency(in.Currency)
		if !ok {
			bad.add("currency must be one of USD, EUR, PLN, CZK")
		}
		u.Currency = c
	}
	if err := bad.err(); err != nil {
		return domain.User{}, err
	}

	if err := checkUnique(ctx, s.Store.Users(), u.ID, u.Username, u.Email); err != nil {
		return domain.User{}, err
	}

	u.UpdatedAt = s.now()
	if err := s.Store.Users().UpdateProfile(ctx, u); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return domain.User{}, &ConflictError{Field: "username or email"}
		case errors.Is(err, store.ErrNotFound):
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, storageErr("update profile", err)
	}
	return u, nil
}

// ChangePassword replaces the password and signs the user out everywhere
// by revoking all refresh tokens.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next, confirm string) error {
	l := slogx.FromContext(ctx)

	// 1. Validate input
	var bad problems
	if current == "" {
		bad.add("current password is required")
	}
	if next == "" {
		bad.add("new password is required")
	} else {
		policy := DefaultPasswordPolicy
		if s.Policy != nil {
			policy = *s.Policy
		}
		bad = append(bad, policy.Check(next)...)
	}
	if next != confirm {
		bad.add("password confirmation does not match")
	}
	if err := bad.err(); err != nil {
		return err
	}

	// 2. Check the current password
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifyPassword(current, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	// 3. Store the new hash and drop every session in one transaction
	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return err
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash, s.now()); err != nil {
			return storageErr("change password", err)
		}
		return s.Tokens.revokeAllIn(ctx, tx, userID)
	})
	if err != nil {
		var se *StorageError
		if errors.As(err, &se) {
			return err
		}
		return storageErr("change password", err)
	}

	l.Info("password changed", slog.String("user_id", userID))
	return nil
}

// DeleteAccount removes the user. Refresh tokens go with it.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("delete account", err)
	}
	return nil
}
