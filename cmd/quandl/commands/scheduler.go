package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sv650s/springboard/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run or inspect scheduled jobs",
	Long: `Starts the scheduler daemon or runs a job on demand.

Subcommands:
  start   - start the scheduler
  list    - list registered jobs and their next run
  run     - run one job now and wait for it

Registered jobs:
  stats-refresh - recompute the configured dataset's stats over
                  SCHEDULE_LOOKBACK_DAYS (cron: SCHEDULE_CRON)

Example:
  go run ./cmd/quandl scheduler start
  go run ./cmd/quandl scheduler run stats-refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	sched, a, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	PrintHeader(out, "Scheduler", "")
	PrintSuccess(out, "Scheduler started")
	PrintList(out, sched.GetAllJobs())
	PrintInfo(out, "Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	PrintInfo(out, "Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	sched, a, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	// Entries only get a next run once the cron loop is running
	sched.Start()
	defer sched.Stop()

	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		next, err := sched.NextRun(name)
		if err != nil {
			return err
		}
		PrintKeyValue(out, name, fmt.Sprintf("%s (next: %s)", stats[name].Schedule, next.Format("2006-01-02 15:04:05")))
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	sched, a, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	result, err := sched.RunJob(args[0])
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintJobResult(out, result)
	if !result.Success {
		return fmt.Errorf("job %s failed", result.JobName)
	}
	return nil
}

func initScheduler(ctx context.Context) (*scheduler.Scheduler, *app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := newApp(ctx, cfg.Database.Enabled())
	if err != nil {
		return nil, nil, err
	}

	job, err := a.refreshJob(nil)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	if err := sched.AddJob(job); err != nil {
		a.Close()
		return nil, nil, err
	}

	return sched, a, nil
}
