package stats

import (
	"fmt"

	"github.com/sv650s/springboard/internal/contracts"
)

// Engine computes descriptive statistics over daily price records (pure calculator)
// ⭐ SSOT: fetching and request parameters live in internal/external/quandl; this package only computes
type Engine struct{}

// NewEngine creates a new statistics engine
func NewEngine() *Engine {
	return &Engine{}
}

// Compute delegates to the package-level Compute
func (e *Engine) Compute(records []contracts.Record, columnNames []string) (contracts.StatsResult, error) {
	return Compute(records, columnNames)
}

// ColumnIndexMap holds the positions of the semantic columns in one dataset
type ColumnIndexMap struct {
	Date   int
	Open   int
	High   int
	Low    int
	Close  int
	Volume int
}

// ResolveColumns looks up every required column in columnNames
func ResolveColumns(columnNames []string) (ColumnIndexMap, error) {
	lookup := func(name string) (int, error) {
		for i, c := range columnNames {
			if c == name {
				return i, nil
			}
		}
		return -1, &MissingColumnError{Name: name}
	}

	var (
		m   ColumnIndexMap
		err error
	)
	if m.Open, err = lookup(contracts.ColumnOpen); err != nil {
		return m, err
	}
	if m.High, err = lookup(contracts.ColumnHigh); err != nil {
		return m, err
	}
	if m.Low, err = lookup(contracts.ColumnLow); err != nil {
		return m, err
	}
	if m.Close, err = lookup(contracts.ColumnClose); err != nil {
		return m, err
	}
	if m.Volume, err = lookup(contracts.ColumnTradedVolume); err != nil {
		return m, err
	}
	if m.Date, err = lookup(contracts.ColumnDate); err != nil {
		return m, err
	}
	return m, nil
}

// maxIndex is the widest position a record must cover
func (m ColumnIndexMap) maxIndex() int {
	return max(m.Date, m.Open, m.High, m.Low, m.Close, m.Volume)
}

// optional is a float that may not have been observed yet
type optional struct {
	value float64
	set   bool
}

// Compute derives the six summary statistics from date-ordered records.
//
// One pass collects open extrema, the widest High-Low spread, the largest
// close-to-close increase and the volume sum; the median volume is then taken
// with MedianOfColumn. Records are never modified.
func Compute(records []contracts.Record, columnNames []string) (contracts.StatsResult, error) {
	var result contracts.StatsResult

	if len(records) == 0 {
		return result, fmt.Errorf("compute stats: %w", ErrNoData)
	}

	cols, err := ResolveColumns(columnNames)
	if err != nil {
		return result, err
	}
	if err := checkWidth(records, cols.maxIndex()); err != nil {
		return result, err
	}
	if err := checkFinite(records, cols.Open, cols.High, cols.Low, cols.Close, cols.Volume); err != nil {
		return result, err
	}

	var (
		minOpen, maxOpen optional
		previousClose    optional
		maxDailyChange   float64
		maxTwoDayChange  float64
		totalVolume      float64
		volumeCount      int
	)

	for _, r := range records {
		if open, ok := r[cols.Open].Float(); ok {
			if !minOpen.set || open < minOpen.value {
				minOpen = optional{value: open, set: true}
			}
			if !maxOpen.set || open > maxOpen.value {
				maxOpen = optional{value: open, set: true}
			}
		}

		high, okHigh := r[cols.High].Float()
		low, okLow := r[cols.Low].Float()
		if okHigh && okLow {
			if change := high - low; change > maxDailyChange {
				maxDailyChange = change
			}
		}

		// Signed increase only: a falling close never raises the maximum.
		closePrice, okClose := r[cols.Close].Float()
		if okClose && previousClose.set {
			if delta := closePrice - previousClose.value; delta > maxTwoDayChange {
				maxTwoDayChange = delta
			}
		}
		previousClose = optional{value: closePrice, set: okClose}

		if volume, ok := r[cols.Volume].Float(); ok {
			totalVolume += volume
			volumeCount++
		}
	}

	medianVolume, err := MedianOfColumn(records, cols.Volume)
	if err != nil {
		return result, fmt.Errorf("median volume: %w", err)
	}

	averageVolume := 0.0
	if volumeCount > 1 {
		averageVolume = round2(totalVolume / float64(volumeCount))
	}

	// Finite inputs can still overflow (a huge High-Low spread or volume sum).
	for _, v := range []float64{maxDailyChange, maxTwoDayChange, totalVolume} {
		if !finite(v) {
			return result, fmt.Errorf("compute stats: %w", ErrNonFiniteResult)
		}
	}

	return contracts.StatsResult{
		MinOpenPrice:         minOpen.value,
		MaxOpenPrice:         maxOpen.value,
		MaxDailyChange:       round2(maxDailyChange),
		MaxTwoDayChange:      round2(maxTwoDayChange),
		AverageTradingVolume: averageVolume,
		MedianVolume:         medianVolume,
	}, nil
}
