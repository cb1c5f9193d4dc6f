package worker

import (
	"context"

	"go.uber.org/zap"

	"gscexport/config"
	"gscexport/internal/client/google"
	"gscexport/internal/report"
)

// Fetcher retrieves the complete row set for one bulk query.
type Fetcher interface {
	FetchAll(ctx context.Context, q google.Query) (google.Batch, error)
}

type Worker struct {
	logger  *zap.Logger
	fetcher Fetcher
	service *report.Service
	cfg     config.Config
}

func NewWorker(
	logger *zap.Logger,
	fetcher Fetcher,
	service *report.Service,
	cfg config.Config,
) *Worker {
	return &Worker{
		logger:  logger,
		fetcher: fetcher,
		service: service,
		cfg:     cfg,
	}
}

// ProcessAllReports fetches and writes each configured dimension combination
// in turn. A failed combination is logged and skipped so the remaining ones
// still run; the number of failures is returned.
func (w *Worker) ProcessAllReports(ctx context.Context) int {
	failed := 0

	for _, spec := range w.cfg.Reports {
		w.logger.Info("fetching report",
			zap.String("report", spec.Name),
			zap.String("property", w.cfg.Property),
			zap.String("start", w.cfg.StartDate),
			zap.String("end", w.cfg.EndDate))

		batch, err := w.fetcher.FetchAll(ctx, google.Query{
			Property:   w.cfg.Property,
			StartDate:  w.cfg.StartDate,
			EndDate:    w.cfg.EndDate,
			Dimensions: spec.Dimensions,
			RowLimit:   w.cfg.RowLimit,
		})
		if err != nil {
			w.logger.Error("failed to fetch report", zap.String("report", spec.Name), zap.Error(err))
			failed++
			continue
		}

		if len(batch) == 0 {
			w.logger.Warn("no data returned for report", zap.String("report", spec.Name))
			continue
		}

		if err := w.service.SaveDaily(ctx, spec.Name, spec.Dimensions, batch); err != nil {
			w.logger.Error("failed to save report", zap.String("report", spec.Name), zap.Error(err))
			failed++
			continue
		}

		w.logger.Info("report saved", zap.String("report", spec.Name), zap.Int("rows", len(batch)))
	}

	return failed
}
