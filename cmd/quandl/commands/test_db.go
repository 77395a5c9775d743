package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/sv650s/springboard/internal/store"
	"github.com/sv650s/springboard/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Check the PostgreSQL connection",
	Long: `Connects to DATABASE_URL, pings it, prints pool statistics and
creates the quandl.* tables when --migrate is set.

Example:
  go run ./cmd/quandl test-db
  go run ./cmd/quandl test-db --migrate`,
	RunE: runTestDB,
}

var testDBMigrate bool

func init() {
	rootCmd.AddCommand(testDBCmd)
	testDBCmd.Flags().BoolVar(&testDBMigrate, "migrate", false, "create the quandl schema and tables")
}

func runTestDB(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	PrintHeader(out, "Database connection test", "")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	PrintSuccess(out, fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))
	PrintKeyValue(out, "Database URL", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		PrintError(out, "Failed to connect to database")
		return err
	}
	defer db.Close()
	PrintSuccess(out, "Database connection established")

	status, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(out, "Health check failed")
		return err
	}

	PrintKeyValue(out, "Healthy", fmt.Sprintf("%v", status.Healthy))
	PrintKeyValue(out, "Response time", status.ResponseTime.String())
	PrintKeyValue(out, "Max connections", fmt.Sprintf("%d", status.MaxConns))
	PrintKeyValue(out, "Total connections", fmt.Sprintf("%d", status.TotalConns))
	PrintKeyValue(out, "Acquired connections", fmt.Sprintf("%d", status.AcquiredConns))
	PrintKeyValue(out, "Idle connections", fmt.Sprintf("%d", status.IdleConns))

	if testDBMigrate {
		if err := store.NewRepository(db.Pool).EnsureSchema(ctx); err != nil {
			PrintError(out, "Schema migration failed")
			return err
		}
		PrintSuccess(out, "Schema ready")
	}

	PrintSuccess(out, "All checks passed")
	return nil
}

// maskPassword hides the password of a connection URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
