package detector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ProfileSource resolves the profile to evaluate on each tick
type ProfileSource func(ctx context.Context) (string, error)

// Scheduler runs the detector once on start and then on every interval
type Scheduler struct {
	detector *Detector
	profile  ProfileSource
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates the periodic runner
func NewScheduler(detector *Detector, profile ProfileSource, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		detector: detector,
		profile:  profile,
		interval: interval,
		logger:   logger,
	}
}

// Start blocks until ctx is done; failed passes are logged and the loop continues
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Missed-dose scheduler started",
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Missed-dose check failed on startup", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Missed-dose scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("Missed-dose check failed", zap.Error(err))
			}
		}
	}
}

// RunOnce single trigger entry point; a missing profile (signed out) is skipped
func (s *Scheduler) RunOnce(ctx context.Context) (*Result, error) {
	profileID, err := s.profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current profile: %w", err)
	}
	if profileID == "" {
		s.logger.Debug("No signed-in profile, skipping missed-dose check")
		return nil, nil
	}
	return s.detector.Run(ctx, profileID)
}

// StaticProfile always returns profileID
func StaticProfile(profileID string) ProfileSource {
	return func(context.Context) (string, error) { return profileID, nil }
}
