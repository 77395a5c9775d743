package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sv650s/springboard/internal/external/quandl"
	"github.com/sv650s/springboard/internal/scheduler"
	"github.com/sv650s/springboard/internal/service"
	"github.com/sv650s/springboard/internal/stats"
	"github.com/sv650s/springboard/internal/watchlist"
	"github.com/sv650s/springboard/pkg/config"
	"github.com/sv650s/springboard/pkg/logger"
)

// EventStats is the stream event type carrying a refreshed report
const EventStats = "stats"

// Analyzer runs one dataset analysis
type Analyzer interface {
	Analyze(ctx context.Context, req quandl.Request) (*service.Report, error)
}

// Publisher pushes events to live subscribers
type Publisher interface {
	Publish(eventType string, data interface{})
}

// StatsRefreshJob recomputes dataset statistics over a rolling window.
// Without a watchlist it refreshes the configured default dataset.
// ⭐ SSOT: the periodic stats refresh is scheduled by this job only
type StatsRefreshJob struct {
	analyzer  Analyzer
	publisher Publisher
	config    *config.Config
	watchlist *watchlist.Watchlist
	logger    *logger.Logger
	now       func() time.Time
}

// NewStatsRefreshJob creates a new stats refresh job. publisher may be nil.
func NewStatsRefreshJob(analyzer Analyzer, publisher Publisher, cfg *config.Config, log *logger.Logger) *StatsRefreshJob {
	return &StatsRefreshJob{
		analyzer:  analyzer,
		publisher: publisher,
		config:    cfg,
		logger:    log,
		now:       time.Now,
	}
}

// WithWatchlist makes the job refresh every dataset of wl
func (j *StatsRefreshJob) WithWatchlist(wl *watchlist.Watchlist) *StatsRefreshJob {
	j.watchlist = wl
	return j
}

// Name returns the job name
func (j *StatsRefreshJob) Name() string {
	return "stats-refresh"
}

// Schedule returns the configured cron schedule
func (j *StatsRefreshJob) Schedule() string {
	return j.config.Schedule.Cron
}

// Requests returns one request per refreshed dataset for the current window
func (j *StatsRefreshJob) Requests() []quandl.Request {
	if j.watchlist == nil {
		return []quandl.Request{j.request(j.config.Quandl.Database, j.config.Quandl.Ticker, 0, "")}
	}

	reqs := make([]quandl.Request, 0, len(j.watchlist.Datasets))
	for _, d := range j.watchlist.Datasets {
		reqs = append(reqs, j.request(d.Database, d.Ticker, d.LookbackDays, d.Format))
	}
	return reqs
}

func (j *StatsRefreshJob) request(database, ticker string, lookbackDays int, format string) quandl.Request {
	if lookbackDays <= 0 {
		lookbackDays = j.config.Schedule.LookbackDays
	}
	end := j.now()
	start := end.AddDate(0, 0, -lookbackDays)

	req := quandl.DefaultRequest(j.config.Quandl, start.Format("2006-01-02"), end.Format("2006-01-02"))
	req.Database = database
	req.Ticker = ticker
	if format != "" {
		req.Format = format
	}
	return req
}

// Run refreshes every dataset. One failing dataset does not stop the others;
// the run is permanent-failed only when every failure is deterministic.
func (j *StatsRefreshJob) Run(ctx context.Context) error {
	reqs := j.Requests()
	j.logger.WithField("datasets", len(reqs)).Info("Starting scheduled stats refresh")

	var (
		errs      []error
		permanent = true
	)
	for _, req := range reqs {
		if err := j.refresh(ctx, req); err != nil {
			j.logger.WithError(err).WithField("request", req.Label()).Warn("Dataset refresh failed")
			errs = append(errs, err)
			permanent = permanent && deterministic(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if len(errs) == 0 {
		j.logger.WithField("datasets", len(reqs)).Info("Scheduled stats refresh completed")
		return nil
	}

	err := errors.Join(errs...)
	if permanent {
		return scheduler.Permanent(err)
	}
	return err
}

func (j *StatsRefreshJob) refresh(ctx context.Context, req quandl.Request) error {
	report, err := j.analyzer.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", req.Label(), err)
	}

	if j.publisher != nil {
		j.publisher.Publish(EventStats, report)
	}

	j.logger.WithFields(map[string]interface{}{
		"ticker":  req.Ticker,
		"entries": report.Summary.Entries,
	}).Debug("Dataset refreshed")
	return nil
}

// deterministic reports errors that will recur on retry with the same request
func deterministic(err error) bool {
	var (
		missing    *stats.MissingColumnError
		outOfRange *stats.IndexOutOfRangeError
		invalid    *stats.InvalidValueError
		apiErr     *quandl.APIError
	)
	switch {
	case errors.Is(err, stats.ErrNoData), errors.Is(err, stats.ErrNonFiniteResult),
		errors.As(err, &missing), errors.As(err, &outOfRange), errors.As(err, &invalid):
		return true
	case errors.Is(err, quandl.ErrMalformedResponse):
		return true
	case errors.As(err, &apiErr):
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429
	}
	return false
}
