package commands

import (
	"github.com/spf13/cobra"

	"github.com/sv650s/springboard/internal/external/quandl"
	"github.com/sv650s/springboard/pkg/config"
)

// datasetFlags are the request flags shared by summary and stats
type datasetFlags struct {
	startDate string
	endDate   string
	database  string
	ticker    string
	order     string
	format    string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.startDate, "start_date", "", "start date to pull data (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end_date", "", "end date to pull data (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.database, "database", "", "Quandl database code (default QUANDL_DATABASE)")
	cmd.Flags().StringVar(&f.ticker, "ticker", "", "dataset code (default QUANDL_TICKER)")
	cmd.Flags().StringVar(&f.order, "order", "", "row order asc|desc (default QUANDL_ORDER)")
	cmd.Flags().StringVar(&f.format, "format", "", "response format json|csv (default QUANDL_FORMAT)")
}

// request merges the flags over the configured defaults
func (f *datasetFlags) request(cfg config.QuandlConfig) quandl.Request {
	req := quandl.DefaultRequest(cfg, f.startDate, f.endDate)
	if f.database != "" {
		req.Database = f.database
	}
	if f.ticker != "" {
		req.Ticker = f.ticker
	}
	if f.order != "" {
		req.Order = f.order
	}
	if f.format != "" {
		req.Format = f.format
	}
	return req
}
