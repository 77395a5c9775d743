package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Describe a dataset without computing statistics",
	Long: `Prints the start date, end date, column names and row count of a dataset.

Example:
  go run ./cmd/quandl summary --start_date 2017-01-01 --end_date 2017-12-31`,
	RunE: runSummary,
}

var summaryFlags datasetFlags

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryFlags.register(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	req := summaryFlags.request(a.cfg.Quandl)
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	summary, err := a.analyzer().Summary(ctx, req)
	if err != nil {
		return err
	}

	a.log.WithField("summary", summary.String()).Debug("Dataset summary")

	PrintHeader(out, "Dataset summary", req.Label())
	PrintSummary(out, summary)
	return nil
}
