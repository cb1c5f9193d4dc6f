package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/searchconsole/v1"
)

// FetchError means one dimension combination could not be fetched. Other
// combinations are unaffected.
type FetchError struct {
	Property string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s: %v", e.Property, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchAll pages through one bulk searchanalytics query until a short or
// empty page signals exhaustion, concatenating pages in API order.
func (c *Client) FetchAll(ctx context.Context, q Query) (Batch, error) {
	var batch Batch
	var startRow int64

	for {
		req := &searchconsole.SearchAnalyticsQueryRequest{
			StartDate:  q.StartDate,
			EndDate:    q.EndDate,
			Dimensions: q.Dimensions,
			RowLimit:   q.RowLimit,
			StartRow:   startRow,
		}

		resp, err := c.queryPage(ctx, q.Property, req)
		if err != nil {
			return nil, &FetchError{Property: q.Property, Err: err}
		}

		for _, r := range resp.Rows {
			if len(r.Keys) != len(q.Dimensions) {
				return nil, &FetchError{
					Property: q.Property,
					Err: fmt.Errorf("response row has %d keys, expected %d for dimensions %v",
						len(r.Keys), len(q.Dimensions), q.Dimensions),
				}
			}
			batch = append(batch, Row{
				Values:      r.Keys,
				Clicks:      r.Clicks,
				Impressions: r.Impressions,
				CTR:         r.Ctr,
				Position:    r.Position,
			})
		}

		c.logger.Debug("fetched page",
			zap.Strings("dimensions", q.Dimensions),
			zap.Int64("startRow", startRow),
			zap.Int("rows", len(resp.Rows)))

		if int64(len(resp.Rows)) < q.RowLimit {
			break
		}
		startRow += int64(len(resp.Rows))
	}

	return batch, nil
}

// queryPage issues one page request, retrying transient failures with
// exponential backoff.
func (c *Client) queryPage(ctx context.Context, property string, req *searchconsole.SearchAnalyticsQueryRequest) (*searchconsole.SearchAnalyticsQueryResponse, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.service.Searchanalytics.Query(property, req).Context(ctx).Do()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn("transient error querying search analytics, retrying",
			zap.String("property", property),
			zap.Int64("startRow", req.StartRow),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

// retryable reports whether an error is worth another attempt: rate limits,
// server errors and transport failures. Client-side API errors are not.
func retryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
