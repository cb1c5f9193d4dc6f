package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"gscexport/internal/client/google"
)

const (
	dateLayout = "2006-01-02"

	// Search Console caps searchanalytics queries at 25k rows per page.
	MaxRowLimit = 25000

	DefaultOutputDir = "search_console_reports"
)

// Dimensions the searchanalytics endpoint accepts.
var validDimensions = map[string]bool{
	"query":            true,
	"page":             true,
	"country":          true,
	"device":           true,
	"date":             true,
	"searchAppearance": true,
	"hour":             true,
}

// Report set used when no --dimensions groups are given. Every group carries
// the date dimension so results can be split into daily files.
var defaultReportGroups = []string{
	"query,date",
	"page,date",
	"country,date",
	"device,date",
	"query,page,date",
	"page,query,country,device,date",
	"searchAppearance,date",
}

// ConfigError reports invalid or missing run configuration. It is raised
// before any network call is made.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Read builds and validates a Config from the given viper instance. Flag
// bindings, env bindings and an optional config file are expected to be set
// up by the caller before Read is called.
func Read(v *viper.Viper) (Config, error) {
	cfg := Config{
		Property:           v.GetString("property"),
		ServiceAccountFile: v.GetString("sa_file"),
		StartDate:          v.GetString("start"),
		EndDate:            v.GetString("end"),
		OutputDir:          v.GetString("output_dir"),
		RowLimit:           v.GetInt64("limit"),
		Schedule:           v.GetString("schedule"),
	}

	if err := validateProperty(cfg.Property); err != nil {
		return Config{}, err
	}

	if cfg.ServiceAccountFile == "" {
		return Config{}, &ConfigError{Field: "sa_file", Reason: "required option is missing"}
	}
	if _, err := os.Stat(cfg.ServiceAccountFile); err != nil {
		return Config{}, &google.CredentialError{Err: fmt.Errorf("service account file %s: %w", cfg.ServiceAccountFile, err)}
	}

	if err := validateDateRange(cfg.StartDate, cfg.EndDate); err != nil {
		return Config{}, err
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.RowLimit < 1 || cfg.RowLimit > MaxRowLimit {
		return Config{}, &ConfigError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", MaxRowLimit, cfg.RowLimit),
		}
	}

	groups := v.GetStringSlice("dimensions")
	if len(groups) == 0 {
		groups = defaultReportGroups
	}
	reports, err := parseReportGroups(groups)
	if err != nil {
		return Config{}, err
	}
	cfg.Reports = reports

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return Config{}, &ConfigError{Field: "output_dir", Reason: err.Error()}
	}

	return cfg, nil
}

func validateProperty(property string) error {
	if property == "" {
		return &ConfigError{Field: "property", Reason: "required option is missing"}
	}
	if strings.HasPrefix(property, "sc-domain:") {
		if len(property) == len("sc-domain:") {
			return &ConfigError{Field: "property", Reason: "sc-domain: form needs a domain"}
		}
		return nil
	}
	u, err := url.Parse(property)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{
			Field:  "property",
			Reason: fmt.Sprintf("%q is neither a site URL nor an sc-domain: property", property),
		}
	}
	return nil
}

func validateDateRange(start, end string) error {
	if start == "" {
		return &ConfigError{Field: "start", Reason: "required option is missing"}
	}
	if end == "" {
		return &ConfigError{Field: "end", Reason: "required option is missing"}
	}
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return &ConfigError{Field: "start", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", start)}
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return &ConfigError{Field: "end", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", end)}
	}
	if from.After(to) {
		return &ConfigError{Field: "start", Reason: fmt.Sprintf("start date %s is after end date %s", start, end)}
	}
	return nil
}

// parseReportGroups turns comma separated dimension groups into report specs.
// Each group must name recognized dimensions, contain no duplicates, and
// include date, otherwise the per-day split is impossible.
func parseReportGroups(groups []string) ([]ReportSpec, error) {
	reports := make([]ReportSpec, 0, len(groups))
	for _, group := range groups {
		var dims []string
		for _, d := range strings.Split(group, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				dims = append(dims, d)
			}
		}
		if len(dims) == 0 {
			return nil, &ConfigError{Field: "dimensions", Reason: "empty dimension group"}
		}

		seen := make(map[string]bool, len(dims))
		hasDate := false
		for _, d := range dims {
			if !validDimensions[d] {
				return nil, &ConfigError{
					Field:  "dimensions",
					Reason: fmt.Sprintf("unknown dimension %q in group %q", d, group),
				}
			}
			if seen[d] {
				return nil, &ConfigError{
					Field:  "dimensions",
					Reason: fmt.Sprintf("dimension %q repeated in group %q", d, group),
				}
			}
			seen[d] = true
			if d == "date" {
				hasDate = true
			}
		}
		if !hasDate {
			return nil, &ConfigError{
				Field:  "dimensions",
				Reason: fmt.Sprintf("group %q lacks the date dimension, cannot split results by day", group),
			}
		}

		reports = append(reports, ReportSpec{
			Name:       strings.Join(dims, "_"),
			Dimensions: dims,
		})
	}
	return reports, nil
}
