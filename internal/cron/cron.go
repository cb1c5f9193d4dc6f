package cron

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gscexport/internal/worker"
)

// Scheduler repeats the full export on a cron schedule. Used only when
// --schedule is given; the default mode is a single run.
type Scheduler struct {
	cron   *cron.Cron
	worker *worker.Worker
	logger *zap.Logger
}

func NewScheduler(logger *zap.Logger, w *worker.Worker) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		worker: w,
		logger: logger,
	}
}

func (s *Scheduler) Start(ctx context.Context, spec string) error {
	// First export runs immediately, then on the schedule.
	s.logger.Info("initial export run")
	if failed := s.worker.ProcessAllReports(ctx); failed > 0 {
		s.logger.Error("initial export finished with failures", zap.Int("failed", failed))
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("scheduled export run")
		if failed := s.worker.ProcessAllReports(ctx); failed > 0 {
			s.logger.Error("scheduled export finished with failures", zap.Int("failed", failed))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started", zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("cron scheduler stopped")
}
