package report

import (
	"context"

	"go.uber.org/zap"

	"gscexport/internal/client/google"
)

type Service struct {
	logger     *zap.Logger
	repository Repository
}

func NewService(logger *zap.Logger, repository Repository) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
	}
}

// SaveDaily partitions one report batch by day and writes one CSV file per
// distinct date. The first failed file aborts the combination; files already
// written stay on disk.
func (s *Service) SaveDaily(ctx context.Context, reportName string, dimensions []string, batch google.Batch) error {
	days, err := PartitionByDay(dimensions, batch)
	if err != nil {
		return err
	}

	s.logger.Info("splitting report into daily files",
		zap.String("report", reportName),
		zap.Int("rows", len(batch)),
		zap.Int("days", len(days)))

	for _, day := range days {
		if err := s.repository.WriteDay(ctx, reportName, dimensions, day); err != nil {
			s.logger.Error("failed to write daily file",
				zap.String("report", reportName),
				zap.String("date", day.Date),
				zap.Error(err))
			return err
		}
	}

	s.logger.Info("daily files saved",
		zap.String("report", reportName),
		zap.Int("files", len(days)))
	return nil
}
