package indicators

import (
	"context"
	"fmt"

	"waveRider/internal/domain"
)

// MovingAverageType defines the type of moving average
type MovingAverageType string

const (
	// SimpleMovingAverage represents a simple moving average
	SimpleMovingAverage MovingAverageType = "SMA"
	// ExponentialMovingAverage represents an exponential moving average
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// MovingAverageConfig holds configuration for moving average indicators
type MovingAverageConfig struct {
	IndicatorConfig
	Type MovingAverageType
}

// MovingAverage implements both SMA and EMA indicators over closing prices
type MovingAverage struct {
	BaseIndicator
	config MovingAverageConfig
}

// NewMovingAverage creates a new moving average indicator instance
func NewMovingAverage(config MovingAverageConfig) *MovingAverage {
	if config.Type == "" {
		config.Type = SimpleMovingAverage
	}
	return &MovingAverage{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator, e.g. SMA50
func (m *MovingAverage) Name() string {
	return fmt.Sprintf("%s%d", m.config.Type, m.config.Period)
}

// Calculate computes the moving average value based on the configured type
func (m *MovingAverage) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	if m.Config.Period <= 0 {
		return 0, fmt.Errorf("invalid moving average period %d", m.Config.Period)
	}
	switch m.config.Type {
	case SimpleMovingAverage:
		return m.calculateSMA(klines)
	case ExponentialMovingAverage:
		return m.calculateEMA(klines)
	default:
		return 0, fmt.Errorf("unsupported moving average type: %s", m.config.Type)
	}
}

// calculateSMA computes the Simple Moving Average
func (m *MovingAverage) calculateSMA(klines []*domain.Kline) (float64, error) {
	if err := checkHistory(m.Name(), klines, m.Config.Period); err != nil {
		return 0, err
	}

	total := 0.0
	for i := len(klines) - m.Config.Period; i < len(klines); i++ {
		total += klines[i].Close
	}
	return total / float64(m.Config.Period), nil
}

// calculateEMA computes the Exponential Moving Average
func (m *MovingAverage) calculateEMA(klines []*domain.Kline) (float64, error) {
	if err := checkHistory(m.Name(), klines, m.Config.Period); err != nil {
		return 0, err
	}

	multiplier := 2.0 / float64(m.Config.Period+1)

	// Seed with the SMA of the first window
	initialSMA, err := m.calculateSMA(klines[:m.Config.Period])
	if err != nil {
		return 0, fmt.Errorf("failed to calculate initial SMA for EMA: %w", err)
	}
	ema := initialSMA

	for i := m.Config.Period; i < len(klines); i++ {
		closePrice := klines[i].Close
		ema = (closePrice-ema)*multiplier + ema
	}

	return ema, nil
}
