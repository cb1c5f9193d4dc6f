package report

import "context"

type Repository interface {
	WriteDay(ctx context.Context, reportName string, dimensions []string, day DayGroup) error
}
