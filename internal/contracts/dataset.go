package contracts

import "fmt"

// Semantic column names used by the statistics engine
const (
	ColumnDate         = "Date"
	ColumnOpen         = "Open"
	ColumnHigh         = "High"
	ColumnLow          = "Low"
	ColumnClose        = "Close"
	ColumnTradedVolume = "Traded Volume"
)

// Dataset is the payload of a Quandl `dataset_data` response
// ⭐ SSOT: fetcher → engine hand-off
type Dataset struct {
	DatabaseCode string   `json:"database_code,omitempty"`
	TickerCode   string   `json:"dataset_code,omitempty"`
	ColumnNames  []string `json:"column_names"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Frequency    string   `json:"frequency,omitempty"`
	Order        string   `json:"order,omitempty"`
	Data         []Record `json:"data"`
}

// ColumnIndex returns the position of name in ColumnNames, or -1
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.ColumnNames {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Data)
}

// Summary returns the descriptive header of the dataset
func (d *Dataset) Summary() DatasetSummary {
	cols := make([]string, len(d.ColumnNames))
	copy(cols, d.ColumnNames)
	return DatasetSummary{
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		ColumnNames: cols,
		Entries:     len(d.Data),
	}
}

// DatasetSummary describes a fetched dataset without its rows
type DatasetSummary struct {
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	ColumnNames []string `json:"column_names"`
	Entries     int      `json:"data_entries"`
}

// String renders the summary on one line
func (s DatasetSummary) String() string {
	return fmt.Sprintf("start=%s end=%s columns=%d entries=%d",
		s.StartDate, s.EndDate, len(s.ColumnNames), s.Entries)
}
