package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/fintrack/internal/auth/store"
)

// txStore exposes the repositories over one *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: t.tx} }
func (t *txStore) RateLimits() store.RateLimits       { return &rateLimitsRepo{db: t.tx} }
func (t *txStore) Captchas() store.Captchas           { return &captchasRepo{db: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Tx refuses to nest; sqlite has one writer and savepoints are not needed.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, store.ErrNestedTx }

// WithTx joins the running transaction.
func (t *txStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error { return fn(t) }

func (t *txStore) ApplyMigrations() error     { return store.ErrNestedTx }
func (t *txStore) Ping(context.Context) error { return nil }
func (t *txStore) Close() error               { return nil }
