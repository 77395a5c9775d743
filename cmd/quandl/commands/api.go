package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sv650s/springboard/internal/api"
	"github.com/sv650s/springboard/internal/api/handlers"
	"github.com/sv650s/springboard/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the HTTP API server.

Endpoints:
  GET /health                                     - Health check
  GET /api/datasets/{database}/{ticker}/stats     - Compute statistics
  GET /api/datasets/{database}/{ticker}/stats/latest - Last persisted run
  GET /api/datasets/{database}/{ticker}/summary   - Dataset summary
  GET /api/stream                                 - Websocket feed of scheduled refreshes

Query parameters: start_date, end_date (YYYY-MM-DD), order (asc|desc), format (json|csv)

Example:
  go run ./cmd/quandl api
  go run ./cmd/quandl api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "run the stats-refresh job in-process and stream its results")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg.Database.Enabled())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	analyzer := a.analyzer()

	var reader handlers.StatsReader
	if a.repo != nil {
		reader = a.repo
	}

	hub := api.NewHub(log)
	defer hub.Close()

	statsHandler := handlers.NewStatsHandler(analyzer, reader, a.cfg.Quandl, log)
	router := api.NewRouter(statsHandler, hub, log)
	server := api.New(a.cfg, log, router)

	if apiWithScheduler {
		job, err := a.refreshJob(hub)
		if err != nil {
			return err
		}
		sched := scheduler.New(log)
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	out := cmd.OutOrStdout()
	PrintSuccess(out, fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	PrintInfo(out, "Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
