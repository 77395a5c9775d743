package stats

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sv650s/springboard/internal/contracts"
)

var fseColumns = []string{
	"Date", "Open", "High", "Low", "Close", "Change", "Traded Volume",
	"Turnover", "Last Price of the Day", "Daily Traded Units", "Daily Turnover",
}

// row builds an FSE-style row; NaN stands for a null cell.
func row(date string, open, high, low, closePrice, volume float64) contracts.Record {
	num := func(v float64) contracts.Field {
		if math.IsNaN(v) {
			return contracts.Null()
		}
		return contracts.Number(v)
	}
	return contracts.Record{
		contracts.Text(date), num(open), num(high), num(low), num(closePrice),
		contracts.Null(), num(volume), contracts.Number(1590561), contracts.Null(), contracts.Null(), contracts.Null(),
	}
}

var null = math.NaN()

func fourDays() []contracts.Record {
	return []contracts.Record{
		row("2017-01-02", 34.99, 35.94, 34.99, 35.8, 44700),
		row("2017-01-03", 35.9, 35.93, 35.34, 35.48, 70618),
		row("2017-01-04", 35.48, 35.51, 34.75, 35.19, 54408),
		row("2017-01-05", 35.48, 50.00, 50.00, 35.19, 54408),
	}
}

func TestCompute_FourDays(t *testing.T) {
	got, err := Compute(fourDays(), fseColumns)
	require.NoError(t, err)

	assert.Equal(t, 34.99, got.MinOpenPrice)
	assert.Equal(t, 35.9, got.MaxOpenPrice)
	// 2017-01-05 has High == Low, so the widest spread is 2017-01-02.
	assert.Equal(t, 0.95, got.MaxDailyChange)
	// Closes only fall or stay flat.
	assert.Equal(t, 0.0, got.MaxTwoDayChange)
	assert.Equal(t, round2((44700.0+70618+54408+54408)/4), got.AverageTradingVolume)
	assert.Equal(t, 56033.5, got.AverageTradingVolume)
	assert.Equal(t, 54408.0, got.MedianVolume)
}

func TestCompute_PicksWidestSpread(t *testing.T) {
	records := fourDays()
	records[3] = row("2017-01-05", 35.48, 50.00, 35.00, 35.19, 54408)

	got, err := Compute(records, fseColumns)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.MaxDailyChange)
}

func TestCompute_TwoDayChangeIsSignedIncrease(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"largest rise wins", []float64{10, 12, 9, 15}, 6},
		{"falls are ignored", []float64{20, 15, 10, 5}, 0},
		{"null close breaks the chain", []float64{10, null, 20}, 0},
		{"chain resumes after null", []float64{10, null, 20, 23.5}, 3.5},
		{"single day", []float64{10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]contracts.Record, len(tt.closes))
			for i, c := range tt.closes {
				records[i] = row("2017-01-02", 1, 2, 1, c, 100)
			}

			got, err := Compute(records, fseColumns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.MaxTwoDayChange)
		})
	}
}

func TestCompute_NullOpenIsSkipped(t *testing.T) {
	records := []contracts.Record{
		row("2017-01-02", 30, 31, 30, 30.5, 100),
		row("2017-01-03", null, 40, 20, 31, 300),
		row("2017-01-04", 32, 33, 32, 32.5, 200),
	}

	got, err := Compute(records, fseColumns)
	require.NoError(t, err)

	assert.Equal(t, 30.0, got.MinOpenPrice)
	assert.Equal(t, 32.0, got.MaxOpenPrice)
	assert.Equal(t, 20.0, got.MaxDailyChange, "row with null Open still counts for the spread")
	assert.Equal(t, 200.0, got.AverageTradingVolume, "row with null Open still counts for volume")
	assert.Equal(t, 200.0, got.MedianVolume)
}

func TestCompute_OpenBelowZeroSentinel(t *testing.T) {
	// A zero or negative open must not be mistaken for "unset".
	records := []contracts.Record{
		row("2017-01-02", 5, 6, 5, 5, 100),
		row("2017-01-03", 0, 6, 5, 5, 100),
		row("2017-01-04", -2, 6, 5, 5, 100),
	}

	got, err := Compute(records, fseColumns)
	require.NoError(t, err)
	assert.Equal(t, -2.0, got.MinOpenPrice)
	assert.Equal(t, 5.0, got.MaxOpenPrice)
}

func TestCompute_NoOpenObserved(t *testing.T) {
	records := []contracts.Record{
		row("2017-01-02", null, 6, 5, 5, 100),
		row("2017-01-03", null, 6, 5, 5, 100),
	}

	got, err := Compute(records, fseColumns)
	require.NoError(t, err)
	assert.Zero(t, got.MinOpenPrice)
	assert.Zero(t, got.MaxOpenPrice)
}

func TestCompute_AverageNeedsTwoVolumes(t *testing.T) {
	records := []contracts.Record{
		row("2017-01-02", 5, 6, 5, 5, 1234),
		row("2017-01-03", 5, 6, 5, 5, null),
	}

	got, err := Compute(records, fseColumns)
	require.NoError(t, err)
	assert.Zero(t, got.AverageTradingVolume)
	assert.Equal(t, 1234.0, got.MedianVolume)
}

func TestCompute_AllVolumesNull(t *testing.T) {
	records := []contracts.Record{row("2017-01-02", 5, 6, 5, 5, null)}

	_, err := Compute(records, fseColumns)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCompute_EmptyInput(t *testing.T) {
	got, err := Compute(nil, fseColumns)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, contracts.StatsResult{}, got)

	_, err = Compute([]contracts.Record{}, fseColumns)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCompute_MissingColumn(t *testing.T) {
	for _, name := range []string{"Open", "High", "Low", "Close", "Traded Volume", "Date"} {
		t.Run(name, func(t *testing.T) {
			columns := make([]string, 0, len(fseColumns))
			for _, c := range fseColumns {
				if c != name {
					columns = append(columns, c)
				}
			}

			_, err := Compute(fourDays(), columns)
			var missing *MissingColumnError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, name, missing.Name)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestCompute_RaggedRecord(t *testing.T) {
	records := fourDays()
	records[2] = records[2][:5] // drops Change and Traded Volume

	_, err := Compute(records, fseColumns)
	var idxErr *IndexOutOfRangeError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, 6, idxErr.Index)
	assert.Equal(t, 2, idxErr.Row)
	assert.Equal(t, 5, idxErr.Width)
}

func TestCompute_NonFiniteCell(t *testing.T) {
	columns := map[string]int{"Open": 1, "High": 2, "Low": 3, "Close": 4, "Traded Volume": 6}
	values := map[string]float64{"NaN": math.NaN(), "+Inf": math.Inf(1), "-Inf": math.Inf(-1)}

	for colName, col := range columns {
		for valueName, v := range values {
			t.Run(colName+"/"+valueName, func(t *testing.T) {
				records := fourDays()
				records[1] = records[1].Clone()
				records[1][col] = contracts.Number(v)

				var got contracts.StatsResult
				var err error
				require.NotPanics(t, func() { got, err = Compute(records, fseColumns) })

				var invalid *InvalidValueError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, col, invalid.Index)
				assert.Equal(t, 1, invalid.Row)
				assert.Equal(t, contracts.StatsResult{}, got)
			})
		}
	}
}

func TestCompute_NonFiniteIgnoredOutsideUsedColumns(t *testing.T) {
	records := fourDays()
	records[0] = records[0].Clone()
	records[0][7] = contracts.Number(math.Inf(1)) // Turnover is not read

	_, err := Compute(records, fseColumns)
	assert.NoError(t, err)
}

func TestCompute_Overflow(t *testing.T) {
	tests := []struct {
		name    string
		records []contracts.Record
	}{
		{"daily spread", []contracts.Record{
			row("2017-01-02", 1, math.MaxFloat64, -math.MaxFloat64, 1, 10),
			row("2017-01-03", 1, 2, 1, 1, 20),
		}},
		{"two day change", []contracts.Record{
			row("2017-01-02", 1, 2, 1, -math.MaxFloat64, 10),
			row("2017-01-03", 1, 2, 1, math.MaxFloat64, 20),
		}},
		{"volume sum", []contracts.Record{
			row("2017-01-02", 1, 2, 1, 1, math.MaxFloat64),
			row("2017-01-03", 1, 2, 1, 1, 1),
			row("2017-01-04", 1, 2, 1, 1, math.MaxFloat64),
		}},
		{"median of two volumes", []contracts.Record{
			row("2017-01-02", 1, 2, 1, 1, math.MaxFloat64),
			row("2017-01-03", 1, 2, 1, 1, math.MaxFloat64),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = Compute(tt.records, fseColumns) })
			assert.ErrorIs(t, err, ErrNonFiniteResult)
		})
	}
}

func TestCompute_Idempotent(t *testing.T) {
	records := fourDays()
	snapshot := make([]contracts.Record, len(records))
	for i, r := range records {
		snapshot[i] = r.Clone()
	}

	first, err := Compute(records, fseColumns)
	require.NoError(t, err)
	second, err := Compute(records, fseColumns)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, records, "records must not be mutated")
}

func TestCompute_Concurrent(t *testing.T) {
	records := fourDays()
	want, err := Compute(records, fseColumns)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]contracts.StatsResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Compute(records, fseColumns)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestEngine_Compute(t *testing.T) {
	engine := NewEngine()
	got, err := engine.Compute(fourDays(), fseColumns)
	require.NoError(t, err)
	assert.Equal(t, 34.99, got.MinOpenPrice)
}

func TestResolveColumns(t *testing.T) {
	cols, err := ResolveColumns(fseColumns)
	require.NoError(t, err)
	assert.Equal(t, ColumnIndexMap{Date: 0, Open: 1, High: 2, Low: 3, Close: 4, Volume: 6}, cols)
	assert.Equal(t, 6, cols.maxIndex())
}

func TestRound2_NonFinite(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, math.IsNaN(round2(math.NaN())))
		assert.True(t, math.IsInf(round2(math.Inf(-1)), -1))
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.95, round2(35.94-34.99))
	assert.Equal(t, 0.59, round2(35.93-35.34))
	assert.Equal(t, 1.01, round2(1.005))
	assert.Equal(t, -1.01, round2(-1.005))
}
