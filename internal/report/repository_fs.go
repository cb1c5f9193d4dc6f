package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// WriteError names the file that could not be written. Already written files
// of the same combination are left in place.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("unable to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FSRepository writes daily CSV files under <outputDir>/<reportName>/.
type FSRepository struct {
	logger    *zap.Logger
	outputDir string
}

func NewFSRepository(logger *zap.Logger, outputDir string) *FSRepository {
	return &FSRepository{
		logger:    logger,
		outputDir: outputDir,
	}
}

// WriteDay writes one <date>.csv file, fully replacing any previous file so
// reruns with the same source data are byte-identical.
func (r *FSRepository) WriteDay(ctx context.Context, reportName string, dimensions []string, day DayGroup) error {
	dir := filepath.Join(r.outputDir, reportName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &WriteError{Path: dir, Err: err}
	}

	path := filepath.Join(dir, day.Date+".csv")
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append(append([]string{}, dimensions...), "clicks", "impressions", "ctr", "position")
	if err := w.Write(header); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	for _, row := range day.Rows {
		record := make([]string, 0, len(row.Values)+4)
		record = append(record, row.Values...)
		record = append(record,
			formatMetric(row.Clicks),
			formatMetric(row.Impressions),
			formatMetric(row.CTR),
			formatMetric(row.Position))
		if err := w.Write(record); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	r.logger.Debug("wrote daily file",
		zap.String("report", reportName),
		zap.String("path", path),
		zap.Int("rows", len(day.Rows)))
	return nil
}

// formatMetric renders a metric with the shortest exact decimal form, so
// whole counts come out as integers and reruns stay deterministic.
func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
