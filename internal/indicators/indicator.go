package indicators

import (
	"context"
	"fmt"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// Indicator represents a technical indicator that can be calculated from daily price data
type Indicator interface {
	// Calculate computes the indicator value as of the last kline
	Calculate(ctx context.Context, klines []*domain.Kline) (float64, error)

	// RequiredDataPoints returns the minimum number of klines needed for calculation
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of klines needed for calculation
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}

func checkHistory(name string, klines []*domain.Kline, need int) error {
	if len(klines) < need {
		return fmt.Errorf("%s needs %d klines, got %d: %w", name, need, len(klines), ports.ErrInsufficientHistory)
	}
	return nil
}
