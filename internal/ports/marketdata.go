package ports

import (
	"context"
	"time"

	"waveRider/internal/domain"
)

// MarketDataSource abstracts a provider of prices and daily candles.
// Implementations wrap provider errors with the market data errors above.
type MarketDataSource interface {
	// Name identifies the provider in logs.
	Name() string

	// LastPrice retrieves the latest traded price for a symbol.
	LastPrice(ctx context.Context, symbol string) (float64, error)

	// DailyKlines retrieves daily candles with open time in [from, to], oldest first.
	DailyKlines(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Kline, error)
}
