package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/sv650s/springboard/internal/contracts"
	"github.com/sv650s/springboard/internal/scheduler"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// Every command prints through these helpers
// ═══════════════════════════════════════════════════════════

const keyWidth = 24

// PrintHeader prints a boxed title with an optional subtitle
func PrintHeader(w io.Writer, title, subtitle string) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", title)
	if subtitle != "" {
		PrintSeparator(w)
		fmt.Fprintf(w, "  %s\n", subtitle)
	}
	PrintSeparator(w)
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintSummary prints the descriptive header of a dataset
func PrintSummary(w io.Writer, s contracts.DatasetSummary) {
	PrintKeyValue(w, "Start date", s.StartDate)
	PrintKeyValue(w, "End date", s.EndDate)
	PrintKeyValue(w, "Entries", fmt.Sprintf("%d", s.Entries))
	PrintKeyValue(w, "Columns", strings.Join(s.ColumnNames, ", "))
}

// PrintStats prints the six statistics, two decimals each
func PrintStats(w io.Writer, r contracts.StatsResult) {
	PrintKeyValue(w, "Min open", formatPrice(r.MinOpenPrice))
	PrintKeyValue(w, "Max open", formatPrice(r.MaxOpenPrice))
	PrintKeyValue(w, "Max daily change", formatPrice(r.MaxDailyChange))
	PrintKeyValue(w, "Max two-day change", formatPrice(r.MaxTwoDayChange))
	PrintKeyValue(w, "Average trading volume", formatPrice(r.AverageTradingVolume))
	PrintKeyValue(w, "Median volume", formatPrice(r.MedianVolume))
}

// PrintJobResult prints one scheduler run
func PrintJobResult(w io.Writer, r scheduler.JobResult) {
	PrintKeyValue(w, "Job", r.JobName)
	PrintKeyValue(w, "Started", r.StartTime.Format("2006-01-02 15:04:05"))
	PrintKeyValue(w, "Duration", r.Duration.String())
	PrintKeyValue(w, "Attempts", fmt.Sprintf("%d", r.Attempts))
	if r.Success {
		PrintSuccess(w, "Job succeeded")
		return
	}
	PrintError(w, "Job failed: "+r.Error)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
