package report

import (
	"fmt"
	"sort"

	"gscexport/internal/client/google"
)

// DayGroup holds all rows of a batch that share one date value, in the order
// the API returned them.
type DayGroup struct {
	Date string
	Rows []google.Row
}

// PartitionByDay splits a batch into one group per distinct date value.
// Groups come back sorted by date; rows keep their intra-day order. The
// dimension list must contain date.
func PartitionByDay(dimensions []string, batch google.Batch) ([]DayGroup, error) {
	dateIdx := -1
	for i, d := range dimensions {
		if d == "date" {
			dateIdx = i
			break
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("dimensions %v do not include date", dimensions)
	}

	byDate := make(map[string][]google.Row)
	for _, row := range batch {
		date := row.Values[dateIdx]
		byDate[date] = append(byDate[date], row)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	groups := make([]DayGroup, 0, len(dates))
	for _, date := range dates {
		groups = append(groups, DayGroup{Date: date, Rows: byDate[date]})
	}
	return groups, nil
}
