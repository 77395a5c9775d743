package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sv650s/springboard/internal/contracts"
	"github.com/sv650s/springboard/internal/external/quandl"
	"github.com/sv650s/springboard/internal/stats"
	"github.com/sv650s/springboard/pkg/logger"
)

// Store persists fetched datasets and stats runs
type Store interface {
	SaveDataset(ctx context.Context, ds *contracts.Dataset) error
	SaveStats(ctx context.Context, run *contracts.StatsRun) error
}

// Report is the outcome of one analysis
type Report struct {
	Request quandl.Request           `json:"request"`
	Summary contracts.DatasetSummary `json:"summary"`
	Stats   contracts.StatsResult    `json:"stats"`
	Run     *contracts.StatsRun      `json:"run,omitempty"`
}

// Analyzer fetches a dataset and computes its statistics
// ⭐ SSOT: fetch → compute → persist flow lives here only
type Analyzer struct {
	fetcher quandl.Fetcher
	engine  *stats.Engine
	store   Store
	logger  *logger.Logger
}

// NewAnalyzer creates a new analyzer. store may be nil to skip persistence.
func NewAnalyzer(fetcher quandl.Fetcher, store Store, log *logger.Logger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		engine:  stats.NewEngine(),
		store:   store,
		logger:  log,
	}
}

// Summary fetches a dataset and describes it without computing statistics
func (a *Analyzer) Summary(ctx context.Context, req quandl.Request) (contracts.DatasetSummary, error) {
	ds, err := a.fetcher.FetchDataset(ctx, req)
	if err != nil {
		return contracts.DatasetSummary{}, fmt.Errorf("fetch %s: %w", req.Label(), err)
	}
	return ds.Summary(), nil
}

// Analyze fetches a dataset, computes its statistics and saves both when a store is set
func (a *Analyzer) Analyze(ctx context.Context, req quandl.Request) (*Report, error) {
	start := time.Now()

	ds, err := a.fetcher.FetchDataset(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Label(), err)
	}

	result, err := a.engine.Compute(ds.Data, ds.ColumnNames)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", req.Label(), err)
	}

	report := &Report{
		Request: req,
		Summary: ds.Summary(),
		Stats:   result,
	}

	if a.store != nil {
		run, err := a.persist(ctx, req, ds, result)
		if err != nil {
			return nil, err
		}
		report.Run = run
	}

	a.logger.WithFields(map[string]interface{}{
		"database": req.Database,
		"ticker":   req.Ticker,
		"entries":  report.Summary.Entries,
		"duration": time.Since(start),
	}).Info("Dataset analyzed")

	return report, nil
}

func (a *Analyzer) persist(ctx context.Context, req quandl.Request, ds *contracts.Dataset, result contracts.StatsResult) (*contracts.StatsRun, error) {
	if err := a.store.SaveDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("save dataset %s: %w", req.Label(), err)
	}

	run := &contracts.StatsRun{
		Database:  req.Database,
		Ticker:    req.Ticker,
		StartDate: ds.StartDate,
		EndDate:   ds.EndDate,
		Entries:   ds.Len(),
		Stats:     result,
	}
	if err := a.store.SaveStats(ctx, run); err != nil {
		return nil, fmt.Errorf("save stats %s: %w", req.Label(), err)
	}
	return run, nil
}
