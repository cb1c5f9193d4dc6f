package config

// Config is the fully validated run configuration.
type Config struct {
	Property           string
	ServiceAccountFile string
	StartDate          string
	EndDate            string
	OutputDir          string
	RowLimit           int64
	Schedule           string
	Reports            []ReportSpec
}

// ReportSpec is one dimension combination requested as a single bulk query.
// Name doubles as the output subfolder for the combination's daily files.
type ReportSpec struct {
	Name       string
	Dimensions []string
}
