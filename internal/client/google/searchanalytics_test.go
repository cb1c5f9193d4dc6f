package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"
)

type pageRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int64    `json:"rowLimit"`
	StartRow   int64    `json:"startRow"`
}

func newFakeClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := searchconsole.NewService(context.Background(),
		option.WithoutAuthentication(), option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	c := NewClientForService(zap.NewNop(), svc)
	c.retryDelay = time.Millisecond
	return c
}

func rowJSON(clicks float64, keys ...string) map[string]interface{} {
	return map[string]interface{}{
		"keys":        keys,
		"clicks":      clicks,
		"impressions": clicks * 10,
		"ctr":         0.1,
		"position":    1.5,
	}
}

func TestFetchAllPaginates(t *testing.T) {
	var startRows []int64

	client := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req pageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		startRows = append(startRows, req.StartRow)

		var rows []map[string]interface{}
		switch req.StartRow {
		case 0:
			rows = []map[string]interface{}{
				rowJSON(1, "a", "2025-10-01"),
				rowJSON(2, "b", "2025-10-01"),
			}
		case 2:
			rows = []map[string]interface{}{
				rowJSON(3, "c", "2025-10-02"),
				rowJSON(4, "d", "2025-10-02"),
			}
		case 4:
			rows = []map[string]interface{}{
				rowJSON(5, "e", "2025-10-02"),
			}
		default:
			t.Errorf("unexpected startRow %d", req.StartRow)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"rows": rows})
	})

	batch, err := client.FetchAll(context.Background(), Query{
		Property:   "sc-domain:example.com",
		StartDate:  "2025-10-01",
		EndDate:    "2025-10-02",
		Dimensions: []string{"query", "date"},
		RowLimit:   2,
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if len(batch) != 5 {
		t.Fatalf("got %d rows, want 5", len(batch))
	}
	wantStartRows := []int64{0, 2, 4}
	if len(startRows) != len(wantStartRows) {
		t.Fatalf("got %d requests, want %d", len(startRows), len(wantStartRows))
	}
	for i, want := range wantStartRows {
		if startRows[i] != want {
			t.Errorf("request %d startRow = %d, want %d", i, startRows[i], want)
		}
	}

	// API order must be preserved across pages.
	wantOrder := []string{"a", "b", "c", "d", "e"}
	for i, row := range batch {
		if row.Values[0] != wantOrder[i] {
			t.Errorf("row %d key = %q, want %q", i, row.Values[0], wantOrder[i])
		}
	}
	if batch[0].Clicks != 1 || batch[0].Impressions != 10 || batch[0].CTR != 0.1 || batch[0].Position != 1.5 {
		t.Errorf("row 0 metrics not converted: %+v", batch[0])
	}
}

func TestFetchAllEmptyResponse(t *testing.T) {
	requests := 0
	client := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})

	batch, err := client.FetchAll(context.Background(), Query{
		Property:   "sc-domain:example.com",
		StartDate:  "2025-10-01",
		EndDate:    "2025-10-02",
		Dimensions: []string{"query", "date"},
		RowLimit:   25000,
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("got %d rows, want 0", len(batch))
	}
	if requests != 1 {
		t.Errorf("got %d requests, want 1", requests)
	}
}

func TestFetchAllRetriesTransientErrors(t *testing.T) {
	requests := 0
	client := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			http.Error(w, "backend error", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rows": []map[string]interface{}{rowJSON(1, "a", "2025-10-01")},
		})
	})

	batch, err := client.FetchAll(context.Background(), Query{
		Property:   "sc-domain:example.com",
		StartDate:  "2025-10-01",
		EndDate:    "2025-10-01",
		Dimensions: []string{"query", "date"},
		RowLimit:   25000,
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(batch) != 1 {
		t.Errorf("got %d rows, want 1", len(batch))
	}
	if requests != 2 {
		t.Errorf("got %d requests, want 2", requests)
	}
}

func TestFetchAllGivesUpAfterMaxAttempts(t *testing.T) {
	requests := 0
	client := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "backend error", http.StatusInternalServerError)
	})

	_, err := client.FetchAll(context.Background(), Query{
		Property:   "sc-domain:example.com",
		StartDate:  "2025-10-01",
		EndDate:    "2025-10-01",
		Dimensions: []string{"query", "date"},
		RowLimit:   25000,
	})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if requests != client.maxAttempts {
		t.Errorf("got %d requests, want %d", requests, client.maxAttempts)
	}
}

func TestFetchAllNonRetryableError(t *testing.T) {
	requests := 0
	client := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := client.FetchAll(context.Background(), Query{
		Property:   "sc-domain:example.com",
		StartDate:  "2025-10-01",
		EndDate:    "2025-10-01",
		Dimensions: []string{"query", "date"},
		RowLimit:   25000,
	})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if requests != 1 {
		t.Errorf("got %d requests, want 1 (no retry on 403)", requests)
	}
}

func TestFetchAllSchemaMismatch(t *testing.T) {
	client := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rows":[{"keys":["only-one"],"clicks":1,"impressions":2,"ctr":0.5,"position":1}]}`)
	})

	_, err := client.FetchAll(context.Background(), Query{
		Property:   "sc-domain:example.com",
		StartDate:  "2025-10-01",
		EndDate:    "2025-10-01",
		Dimensions: []string{"query", "date"},
		RowLimit:   25000,
	})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError for key count mismatch, got %v", err)
	}
}
