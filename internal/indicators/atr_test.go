package indicators

import (
	"context"
	"errors"
	"testing"
	"time"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

func ohlc(day int, high, low, closePrice float64) *domain.Kline {
	open := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return &domain.Kline{OpenTime: open, CloseTime: open.Add(24*time.Hour - time.Millisecond), Interval: "1d", High: high, Low: low, Close: closePrice}
}

func sampleKlines() []*domain.Kline {
	return []*domain.Kline{
		ohlc(1, 10, 8, 9),     // TR 2
		ohlc(2, 11, 9, 10),    // TR 2
		ohlc(3, 12, 10, 11.5), // TR 2
		ohlc(4, 13, 11.5, 12), // TR 1.5
		ohlc(5, 12.5, 9, 10),  // TR 3.5
	}
}

func TestTrueRanges(t *testing.T) {
	klines := []*domain.Kline{
		ohlc(1, 10, 9, 9),
		ohlc(2, 15, 14, 14.5), // gap up from 9
		ohlc(3, 14, 10, 11),
	}
	expected := []float64{1, 6, 4.5}

	got := TrueRanges(klines)
	if len(got) != len(expected) {
		t.Fatalf("Expected %d true ranges, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("TR[%d]: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestATR_Calculate(t *testing.T) {
	tests := []struct {
		name          string
		config        ATRConfig
		klines        []*domain.Kline
		expectedValue float64
		expectError   bool
	}{
		{
			name:          "simple mean of last window",
			config:        ATRConfig{IndicatorConfig: IndicatorConfig{Period: 3}, Smoothing: SimpleSmoothing},
			klines:        sampleKlines(),
			expectedValue: 2.333333, // (2 + 1.5 + 3.5) / 3
		},
		{
			name:          "default smoothing is simple",
			config:        ATRConfig{IndicatorConfig: IndicatorConfig{Period: 5}},
			klines:        sampleKlines(),
			expectedValue: 2.2,
		},
		{
			name:          "wilder smoothing",
			config:        ATRConfig{IndicatorConfig: IndicatorConfig{Period: 3}, Smoothing: WilderSmoothing},
			klines:        sampleKlines(),
			expectedValue: 2.388889, // seed 1.833333, then (1.833333*2 + 3.5) / 3
		},
		{
			name:        "wilder needs one more kline",
			config:      ATRConfig{IndicatorConfig: IndicatorConfig{Period: 5}, Smoothing: WilderSmoothing},
			klines:      sampleKlines(),
			expectError: true,
		},
		{
			name:        "insufficient data",
			config:      ATRConfig{IndicatorConfig: IndicatorConfig{Period: 14}},
			klines:      sampleKlines(),
			expectError: true,
		},
		{
			name:        "invalid smoothing",
			config:      ATRConfig{IndicatorConfig: IndicatorConfig{Period: 3}, Smoothing: "ema"},
			klines:      sampleKlines(),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atr := NewATR(tt.config)
			value, err := atr.Calculate(context.Background(), tt.klines)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if value-tt.expectedValue > 0.0001 || value-tt.expectedValue < -0.0001 {
				t.Errorf("Expected value %f, got %f", tt.expectedValue, value)
			}
		})
	}
}

func TestATR_InsufficientHistoryError(t *testing.T) {
	atr := NewATR(ATRConfig{IndicatorConfig: IndicatorConfig{Period: 14}})
	_, err := atr.Calculate(context.Background(), sampleKlines())
	if !errors.Is(err, ports.ErrInsufficientHistory) {
		t.Errorf("Expected ErrInsufficientHistory, got %v", err)
	}
	if atr.Name() != "ATR14" {
		t.Errorf("Expected name ATR14, got %s", atr.Name())
	}
}
