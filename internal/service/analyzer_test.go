package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sv650s/springboard/internal/contracts"
	"github.com/sv650s/springboard/internal/external/quandl"
	"github.com/sv650s/springboard/internal/stats"
	"github.com/sv650s/springboard/pkg/logger"
)

type stubFetcher struct {
	ds  *contracts.Dataset
	err error
	got quandl.Request
}

func (f *stubFetcher) FetchDataset(ctx context.Context, req quandl.Request) (*contracts.Dataset, error) {
	f.got = req
	return f.ds, f.err
}

type memoryStore struct {
	datasets []*contracts.Dataset
	runs     []*contracts.StatsRun
	err      error
}

func (s *memoryStore) SaveDataset(ctx context.Context, ds *contracts.Dataset) error {
	if s.err != nil {
		return s.err
	}
	s.datasets = append(s.datasets, ds)
	return nil
}

func (s *memoryStore) SaveStats(ctx context.Context, run *contracts.StatsRun) error {
	if s.err != nil {
		return s.err
	}
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return nil
}

func testRequest() quandl.Request {
	return quandl.Request{Database: "FSE", Ticker: "AFX_X", StartDate: "2017-01-01", EndDate: "2017-12-31", Order: "asc", Format: "json"}
}

func testDataset() *contracts.Dataset {
	return &contracts.Dataset{
		DatabaseCode: "FSE",
		TickerCode:   "AFX_X",
		ColumnNames:  []string{"Date", "Open", "High", "Low", "Close", "Traded Volume"},
		StartDate:    "2017-01-02",
		EndDate:      "2017-01-03",
		Data: []contracts.Record{
			{contracts.Text("2017-01-02"), contracts.Number(34.99), contracts.Number(35.94), contracts.Number(34.99), contracts.Number(35.8), contracts.Number(44700)},
			{contracts.Text("2017-01-03"), contracts.Number(35.9), contracts.Number(35.93), contracts.Number(35.34), contracts.Number(35.48), contracts.Number(70618)},
		},
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	fetcher := &stubFetcher{ds: testDataset()}
	analyzer := NewAnalyzer(fetcher, nil, logger.Nop())

	report, err := analyzer.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, testRequest(), fetcher.got)
	assert.Equal(t, 2, report.Summary.Entries)
	assert.Equal(t, "2017-01-02", report.Summary.StartDate)
	assert.Equal(t, 34.99, report.Stats.MinOpenPrice)
	assert.Equal(t, 35.9, report.Stats.MaxOpenPrice)
	assert.Equal(t, 0.95, report.Stats.MaxDailyChange)
	assert.Equal(t, 57659.0, report.Stats.AverageTradingVolume)
	assert.Nil(t, report.Run)
}

func TestAnalyzer_Analyze_Persists(t *testing.T) {
	store := &memoryStore{}
	analyzer := NewAnalyzer(&stubFetcher{ds: testDataset()}, store, logger.Nop())

	report, err := analyzer.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, store.datasets, 1)
	require.Len(t, store.runs, 1)
	require.NotNil(t, report.Run)
	assert.Equal(t, int64(1), report.Run.ID)
	assert.Equal(t, "AFX_X", report.Run.Ticker)
	assert.Equal(t, 2, report.Run.Entries)
	assert.Equal(t, report.Stats, report.Run.Stats)
}

func TestAnalyzer_Analyze_Errors(t *testing.T) {
	t.Run("fetch error", func(t *testing.T) {
		boom := errors.New("network down")
		analyzer := NewAnalyzer(&stubFetcher{err: boom}, nil, logger.Nop())

		_, err := analyzer.Analyze(context.Background(), testRequest())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("missing column", func(t *testing.T) {
		ds := testDataset()
		ds.ColumnNames = []string{"Date", "Open", "High", "Low", "Close", "Volume"}
		analyzer := NewAnalyzer(&stubFetcher{ds: ds}, nil, logger.Nop())

		_, err := analyzer.Analyze(context.Background(), testRequest())
		var missing *stats.MissingColumnError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "Traded Volume", missing.Name)
	})

	t.Run("empty dataset", func(t *testing.T) {
		ds := testDataset()
		ds.Data = nil
		analyzer := NewAnalyzer(&stubFetcher{ds: ds}, nil, logger.Nop())

		_, err := analyzer.Analyze(context.Background(), testRequest())
		assert.ErrorIs(t, err, stats.ErrNoData)
	})

	t.Run("store error", func(t *testing.T) {
		boom := errors.New("db down")
		analyzer := NewAnalyzer(&stubFetcher{ds: testDataset()}, &memoryStore{err: boom}, logger.Nop())

		_, err := analyzer.Analyze(context.Background(), testRequest())
		assert.ErrorIs(t, err, boom)
	})
}

func TestAnalyzer_Summary(t *testing.T) {
	analyzer := NewAnalyzer(&stubFetcher{ds: testDataset()}, nil, logger.Nop())

	summary, err := analyzer.Summary(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Entries)
	assert.Equal(t, "2017-01-03", summary.EndDate)
	assert.Len(t, summary.ColumnNames, 6)
}
