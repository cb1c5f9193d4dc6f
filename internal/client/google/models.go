package google

// Query describes one bulk searchanalytics request: a fixed property, date
// range and dimension set, paged through via StartRow.
type Query struct {
	Property   string
	StartDate  string
	EndDate    string
	Dimensions []string
	RowLimit   int64
}

// Row is one metrics record from the API, typed at the boundary. Values
// holds one entry per requested dimension, in request order.
type Row struct {
	Values      []string
	Clicks      float64
	Impressions float64
	CTR         float64
	Position    float64
}

// Batch is the full ordered row set for one dimension combination across the
// whole date range, concatenated from successive pages.
type Batch []Row
