package indicators

import (
	"context"
	"fmt"
	"math"

	"waveRider/internal/domain"
)

// ATRSmoothing selects how true ranges are averaged.
type ATRSmoothing string

const (
	// SimpleSmoothing is the plain mean of the last Period true ranges.
	SimpleSmoothing ATRSmoothing = "simple"
	// WilderSmoothing seeds with a simple mean and then applies Wilder's recursive average.
	WilderSmoothing ATRSmoothing = "wilder"
)

// ATRConfig holds configuration for the Average True Range indicator
type ATRConfig struct {
	IndicatorConfig
	Smoothing ATRSmoothing
}

// ATR implements the Average True Range indicator
type ATR struct {
	BaseIndicator
	config ATRConfig
}

// NewATR creates a new Average True Range indicator instance
func NewATR(config ATRConfig) *ATR {
	if config.Smoothing == "" {
		config.Smoothing = SimpleSmoothing
	}
	return &ATR{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (a *ATR) Name() string {
	return fmt.Sprintf("ATR%d", a.config.Period)
}

// RequiredDataPoints returns the minimum number of klines needed for calculation.
// Wilder smoothing needs one extra kline so the seed window has a previous close.
func (a *ATR) RequiredDataPoints() int {
	if a.config.Smoothing == WilderSmoothing {
		return a.config.Period + 1
	}
	return a.config.Period
}

// Calculate computes the Average True Range value for the given klines
func (a *ATR) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	period := a.config.Period
	if period <= 0 {
		return 0, fmt.Errorf("invalid ATR period %d", period)
	}
	if err := checkHistory(a.Name(), klines, a.RequiredDataPoints()); err != nil {
		return 0, err
	}

	trueRanges := TrueRanges(klines)

	switch a.config.Smoothing {
	case SimpleSmoothing:
		total := 0.0
		for _, tr := range trueRanges[len(trueRanges)-period:] {
			total += tr
		}
		return total / float64(period), nil
	case WilderSmoothing:
		// Seed with the mean of the first full window after the first kline.
		atr := 0.0
		for i := 1; i <= period; i++ {
			atr += trueRanges[i]
		}
		atr /= float64(period)
		for i := period + 1; i < len(trueRanges); i++ {
			atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
		}
		return atr, nil
	default:
		return 0, fmt.Errorf("unsupported ATR smoothing: %s", a.config.Smoothing)
	}
}

// TrueRanges returns the true range of every kline. The first kline has no previous
// close, so its true range is its high-low range.
func TrueRanges(klines []*domain.Kline) []float64 {
	trueRanges := make([]float64, len(klines))
	if len(klines) == 0 {
		return trueRanges
	}
	trueRanges[0] = klines[0].High - klines[0].Low

	for i := 1; i < len(klines); i++ {
		high := klines[i].High
		low := klines[i].Low
		prevClose := klines[i-1].Close

		// Greatest of the day's range and the gaps from the previous close.
		tr1 := high - low
		tr2 := math.Abs(high - prevClose)
		tr3 := math.Abs(low - prevClose)

		trueRanges[i] = math.Max(tr1, math.Max(tr2, tr3))
	}
	return trueRanges
}
