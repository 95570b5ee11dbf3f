package domain

import "time"

// Kline represents a single daily candlestick used to derive volatility and moving averages.
type Kline struct {
	OpenTime  time.Time // Start time of the interval
	CloseTime time.Time // End time of the interval
	Symbol    string    // Instrument symbol
	Interval  string    // Kline interval (e.g., "1d")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume
	IsFinal   bool      // Whether this kline is closed
}
