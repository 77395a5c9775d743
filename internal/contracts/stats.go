package contracts

import "time"

// StatsResult holds the descriptive statistics of one dataset
// ⭐ SSOT: engine → CLI/API/store result shape
type StatsResult struct {
	MinOpenPrice         float64 `json:"min_open_price"`
	MaxOpenPrice         float64 `json:"max_open_price"`
	MaxDailyChange       float64 `json:"max_daily_change"`
	MaxTwoDayChange      float64 `json:"max_two_day_change"`
	AverageTradingVolume float64 `json:"average_trading_volume"`
	MedianVolume         float64 `json:"median_volume"`
}

// StatsRun is a persisted StatsResult with the request that produced it
type StatsRun struct {
	ID         int64       `json:"id"`
	Database   string      `json:"database"`
	Ticker     string      `json:"ticker"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
	Entries    int         `json:"entries"`
	Stats      StatsResult `json:"stats"`
	ComputedAt time.Time   `json:"computed_at"`
}
