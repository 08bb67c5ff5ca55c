package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired sessions. SessionService implements it.
type Sweeper interface {
	SweepExpiredSessions(ctx context.Context) (int64, error)
}

// HousekeepingService periodically sweeps expired refresh tokens so the
// ledger does not grow without bound.
type HousekeepingService struct {
	Sweeper  Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	// Timeout bounds a single sweep. Defaults to one minute.
	Timeout time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(sweeper Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Sweeper:  sweeper,
		Logger:   logger,
		Interval: interval,
		Timeout:  time.Minute,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. It returns immediately; call Stop to
// shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	swept, err := s.Sweeper.SweepExpiredSessions(ctx)
	if err != nil {
		s.Logger.Error("failed to sweep expired refresh tokens", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "swept", swept)
}
