package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
)

// HousekeepingService periodically removes authorization codes that can no
// longer be redeemed and, when a retention is set, token rows whose
// refresh window ended more than Retention ago.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration
	Now       func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour. A zero retention keeps
// token rows forever.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "token_retention", s.Retention)
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

// RunOnce performs one cleanup pass. Each deletion is independent.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	now := clock(s.Now).UTC()

	codes, err := s.Store.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired authorization codes", "error", err)
	}

	var tokens int64
	if s.Retention > 0 {
		tokens, err = s.Store.Tokens().DeleteTokensBefore(ctx, now.Add(-s.Retention))
		if err != nil {
			s.Logger.Error("failed to delete retired tokens", "error", err)
		}
	}

	s.Logger.Info("housekeeping cleanup completed",
		"authorization_codes_deleted", codes,
		"tokens_deleted", tokens,
	)
}
