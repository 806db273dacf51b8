package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	auditor  *Auditor
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
}

func NewScheduler(auditor *Auditor, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		auditor:  auditor,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Run audits once at start and then every interval until ctx is done or
// Stop is called. A failed run is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("starting stock audit scheduler", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if _, err := s.auditor.Run(ctx); err != nil {
		s.log.Error("initial stock audit failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.auditor.Run(ctx); err != nil {
				s.log.Error("stock audit failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("stock audit scheduler stopped")
			return nil
		case <-ctx.Done():
			s.log.Info("stock audit scheduler cancelled")
			return nil
		}
	}
}

func (s *Scheduler) Stop() {
	s.log.Info("stopping stock audit scheduler")
	close(s.stopCh)
}

// RunOnceNow runs a single audit immediately.
func (s *Scheduler) RunOnceNow(ctx context.Context) (*Report, error) {
	return s.auditor.Run(ctx)
}
