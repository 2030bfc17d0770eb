package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fredcamaral/texdeck/internal/domain/ports"
	"github.com/fredcamaral/texdeck/internal/logging"
)

// CleanupScheduler purges expired artifacts on a fixed interval while the
// service runs
type CleanupScheduler struct {
	converter ports.ConversionService
	notifier  ports.EventNotifier
	clock     ports.TimeProvider
	interval  time.Duration
	logger    *logging.Logger
}

// NewCleanupScheduler creates a scheduler. notifier may be nil.
func NewCleanupScheduler(converter ports.ConversionService, notifier ports.EventNotifier, clock ports.TimeProvider, interval time.Duration, logger *logging.Logger) *CleanupScheduler {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if logger == nil {
		logger = logging.New("cleanup")
	}
	return &CleanupScheduler{
		converter: converter,
		notifier:  notifier,
		clock:     clock,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks until ctx ends. A non-positive interval disables the
// schedule and Run returns at once.
func (s *CleanupScheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug("Purging expired artifacts every %v", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one purge and broadcasts it when anything was removed
func (s *CleanupScheduler) RunOnce(ctx context.Context) (int, error) {
	cleaned, err := s.converter.Cleanup(ctx)
	if err != nil {
		s.logger.Warn("Scheduled cleanup failed: %v", err)
		return 0, err
	}
	if cleaned == 0 {
		return 0, nil
	}

	message := fmt.Sprintf("Cleaned %d old files", cleaned)
	s.logger.Info("%s", message)

	if s.notifier != nil {
		err := s.notifier.NotifyClients(ports.UpdateEvent{
			Type:      ports.EventTypeCleanup,
			Timestamp: s.clock.Now(),
			Data:      map[string]interface{}{"cleaned": cleaned, "message": message},
		})
		if err != nil {
			s.logger.Debug("Cleanup event not broadcast: %v", err)
		}
	}
	return cleaned, nil
}
