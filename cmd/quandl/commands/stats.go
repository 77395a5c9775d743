package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute price statistics for a dataset",
	Long: `Fetches the daily rows of one dataset and computes:
- min / max open price
- largest daily High-Low range
- largest close-to-close rise
- average and median traded volume

Example:
  go run ./cmd/quandl stats --start_date 2017-01-01 --end_date 2017-12-31
  go run ./cmd/quandl stats --ticker AFX_X --format csv --save
  go run ./cmd/quandl stats --from-db --start_date 2017-06-01`,
	RunE: runStats,
}

var (
	statsFlags datasetFlags
	statsSave  bool
	statsJSON  bool
	statsDB    bool
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsFlags.register(statsCmd)
	statsCmd.Flags().BoolVar(&statsSave, "save", false, "persist rows and the stats run (requires DATABASE_URL)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the report as JSON")
	statsCmd.Flags().BoolVar(&statsDB, "from-db", false, "compute over rows saved by earlier --save runs instead of calling Quandl (requires DATABASE_URL)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if statsDB && statsSave {
		return fmt.Errorf("--from-db and --save cannot be combined")
	}

	a, err := newApp(ctx, statsSave || statsDB)
	if err != nil {
		return err
	}
	defer a.Close()

	req := statsFlags.request(a.cfg.Quandl)
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	analyzer := a.analyzer()
	if statsDB {
		analyzer = a.storedAnalyzer()
	}

	report, err := analyzer.Analyze(ctx, req)
	if err != nil {
		a.log.WithError(err).Error("Stats computation failed")
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	PrintHeader(out, "Dataset statistics", req.Label())
	PrintSummary(out, report.Summary)
	PrintSeparator(out)
	PrintStats(out, report.Stats)
	if report.Run != nil {
		PrintSeparator(out)
		PrintSuccess(out, fmt.Sprintf("Saved as stats run #%d", report.Run.ID))
	}
	return nil
}
