package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/obsx"
)

const DefaultRateLimitRetention = 24 * time.Hour

// HousekeepingService periodically deletes refresh tokens that can no
// longer be redeemed, rate-limit rows that no longer affect any decision and
// used captchas whose challenge has expired.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour, a non-positive retention to 24 hours.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultRateLimitRetention
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs cleanup immediately and then on every tick. Non-blocking.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs one cleanup pass. Each deletion is independent; a
// failure in one does not stop the others.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	s.Logger.Info("starting housekeeping cleanup")

	var successful int

	// Refresh tokens past expiry or flagged expired
	if n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
	} else {
		obsx.HousekeepingDeleted.WithLabelValues("refresh_tokens").Add(float64(n))
		s.Logger.Debug("deleted expired refresh tokens", "count", n)
		successful++
	}

	// Rate-limit rows older than the retention whose ban has lapsed
	if n, err := s.Store.RateLimits().DeleteRateLimitsBefore(ctx, now.Add(-s.Retention), now); err != nil {
		s.Logger.Error("failed to delete old rate limit rows", "error", err)
	} else {
		obsx.HousekeepingDeleted.WithLabelValues("rate_limits").Add(float64(n))
		s.Logger.Debug("deleted old rate limit rows", "count", n)
		successful++
	}

	// Used captchas whose token would no longer verify anyway
	if n, err := s.Store.Captchas().DeleteExpiredCaptchas(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired captchas", "error", err)
	} else {
		obsx.HousekeepingDeleted.WithLabelValues("used_captchas").Add(float64(n))
		s.Logger.Debug("deleted expired captchas", "count", n)
		successful++
	}

	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", successful)
}
