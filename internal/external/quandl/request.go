package quandl

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// Request describes one dataset query. It is a value type: build it once and pass it along.
type Request struct {
	Database  string // Quandl database code, e.g. FSE
	Ticker    string // dataset code, e.g. AFX_X
	StartDate string // YYYY-MM-DD, optional
	EndDate   string // YYYY-MM-DD, optional
	Order     string // asc or desc
	Format    string // json or csv
}

// Validate checks codes, dates, order and format
func (r Request) Validate() error {
	if !codePattern.MatchString(r.Database) {
		return fmt.Errorf("invalid database code %q", r.Database)
	}
	if !codePattern.MatchString(r.Ticker) {
		return fmt.Errorf("invalid ticker code %q", r.Ticker)
	}

	var start, end time.Time
	var err error
	if r.StartDate != "" {
		if start, err = time.Parse(dateLayout, r.StartDate); err != nil {
			return fmt.Errorf("invalid start date %q: %w", r.StartDate, err)
		}
	}
	if r.EndDate != "" {
		if end, err = time.Parse(dateLayout, r.EndDate); err != nil {
			return fmt.Errorf("invalid end date %q: %w", r.EndDate, err)
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("start date %s is after end date %s", r.StartDate, r.EndDate)
	}

	switch r.Order {
	case "asc", "desc":
	default:
		return fmt.Errorf("invalid order %q (valid: asc, desc)", r.Order)
	}

	switch r.Format {
	case FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("invalid format %q (valid: json, csv)", r.Format)
	}

	return nil
}

// URL builds the dataset data endpoint for baseURL
func (r Request) URL(baseURL, apiKey string) string {
	params := url.Values{}
	if apiKey != "" {
		params.Set("api_key", apiKey)
	}
	if r.StartDate != "" {
		params.Set("start_date", r.StartDate)
	}
	if r.EndDate != "" {
		params.Set("end_date", r.EndDate)
	}
	params.Set("order", r.Order)

	return fmt.Sprintf("%s/datasets/%s/%s/data.%s?%s",
		baseURL, url.PathEscape(r.Database), url.PathEscape(r.Ticker), r.Format, params.Encode())
}

// Label renders the request for logs and cache keys
func (r Request) Label() string {
	return fmt.Sprintf("%s/%s [%s..%s]", r.Database, r.Ticker, r.StartDate, r.EndDate)
}
