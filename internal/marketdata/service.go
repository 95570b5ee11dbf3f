// Package marketdata turns a provider's prices and daily candles into the current-market
// and entry-snapshot values a trade carries.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
	"waveRider/internal/indicators"
	"waveRider/internal/ports"
)

// indicatorScale matches the precision of stored indicator values.
const indicatorScale = 4

// Config selects indicator periods and how much history is fetched.
type Config struct {
	ATRPeriod      int
	ATRSmoothing   indicators.ATRSmoothing
	MAType         indicators.MovingAverageType
	SMAShortPeriod int
	SMALongPeriod  int
	LookbackDays   int // Calendar days of candles requested before the reference date
}

// DefaultConfig returns ATR14 (simple), SMA10, SMA50 over 120 calendar days of candles.
func DefaultConfig() Config {
	return Config{
		ATRPeriod:      14,
		ATRSmoothing:   indicators.SimpleSmoothing,
		MAType:         indicators.SimpleMovingAverage,
		SMAShortPeriod: 10,
		SMALongPeriod:  50,
		LookbackDays:   120,
	}
}

// Service computes market snapshots from a MarketDataSource.
type Service struct {
	source  ports.MarketDataSource
	logger  ports.Logger
	cfg     Config
	atr     indicators.Indicator
	maShort indicators.Indicator
	maLong  indicators.Indicator
}

// NewService creates a market data service. A nil source yields a service whose snapshots
// are all unknown.
func NewService(source ports.MarketDataSource, logger ports.Logger, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.ATRSmoothing == "" {
		cfg.ATRSmoothing = def.ATRSmoothing
	}
	if cfg.MAType == "" {
		cfg.MAType = def.MAType
	}
	if cfg.SMAShortPeriod <= 0 {
		cfg.SMAShortPeriod = def.SMAShortPeriod
	}
	if cfg.SMALongPeriod <= 0 {
		cfg.SMALongPeriod = def.SMALongPeriod
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = def.LookbackDays
	}

	return &Service{
		source: source,
		logger: logger,
		cfg:    cfg,
		atr: indicators.NewATR(indicators.ATRConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: cfg.ATRPeriod},
			Smoothing:       cfg.ATRSmoothing,
		}),
		maShort: indicators.NewMovingAverage(indicators.MovingAverageConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: cfg.SMAShortPeriod},
			Type:            cfg.MAType,
		}),
		maLong: indicators.NewMovingAverage(indicators.MovingAverageConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: cfg.SMALongPeriod},
			Type:            cfg.MAType,
		}),
	}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s.source != nil
}

// Current fetches the latest price and recomputes ATR and both moving averages as of asOf.
// Whatever could not be fetched or computed is left unknown. An error is returned only when
// nothing at all could be obtained; the returned snapshot is usable either way.
func (s *Service) Current(ctx context.Context, symbol string, asOf time.Time) (domain.CurrentMarket, error) {
	market := domain.CurrentMarket{UpdatedAt: asOf}
	if s.source == nil {
		return market, fmt.Errorf("no market data provider configured: %w", ports.ErrMarketDataUnavailable)
	}

	price, priceErr := s.source.LastPrice(ctx, symbol)
	if priceErr == nil && price > 0 {
		market.Price = toDecimal(price)
	} else if priceErr != nil {
		s.logger.Warn(ctx, "Failed to fetch current price", map[string]interface{}{
			"symbol": symbol, "provider": s.source.Name(), "error": priceErr.Error(),
		})
	}

	klines, klineErr := s.history(ctx, symbol, asOf)
	if klineErr != nil {
		s.logger.Warn(ctx, "Failed to fetch daily history", map[string]interface{}{
			"symbol": symbol, "provider": s.source.Name(), "error": klineErr.Error(),
		})
	} else {
		market.Volatility = s.compute(ctx, s.atr, symbol, klines)
		market.MAShort = s.compute(ctx, s.maShort, symbol, klines)
		market.MALong = s.compute(ctx, s.maLong, symbol, klines)
		// Fall back to the last close when the quote endpoint failed.
		if !market.Price.Valid && len(klines) > 0 && klines[len(klines)-1].Close > 0 {
			market.Price = toDecimal(klines[len(klines)-1].Close)
		}
	}

	if priceErr != nil && klineErr != nil {
		return market, errors.Join(priceErr, klineErr)
	}
	return market, nil
}

// EntrySnapshot computes ATR and the long moving average using only candles on or before the
// entry date. It is meant to be called exactly once, when a trade is created.
func (s *Service) EntrySnapshot(ctx context.Context, symbol string, entryDate, now time.Time) (domain.EntrySnapshot, error) {
	if s.source == nil {
		return domain.NewEntrySnapshot(decimal.NullDecimal{}, decimal.NullDecimal{}, now),
			fmt.Errorf("no market data provider configured: %w", ports.ErrMarketDataUnavailable)
	}

	klines, err := s.history(ctx, symbol, entryDate)
	if err != nil {
		return domain.NewEntrySnapshot(decimal.NullDecimal{}, decimal.NullDecimal{}, now), err
	}

	volatility := s.compute(ctx, s.atr, symbol, klines)
	maLong := s.compute(ctx, s.maLong, symbol, klines)
	return domain.NewEntrySnapshot(volatility, maLong, now), nil
}

// history returns daily candles with open date on or before asOf, oldest first.
func (s *Service) history(ctx context.Context, symbol string, asOf time.Time) ([]*domain.Kline, error) {
	end := endOfDay(asOf)
	start := end.AddDate(0, 0, -s.cfg.LookbackDays)

	klines, err := s.source.DailyKlines(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily klines for %s: %w", symbol, err)
	}

	filtered := klines[:0:0]
	for _, k := range klines {
		if !k.OpenTime.After(end) {
			filtered = append(filtered, k)
		}
	}
	return filtered, nil
}

func (s *Service) compute(ctx context.Context, ind indicators.Indicator, symbol string, klines []*domain.Kline) decimal.NullDecimal {
	v, err := ind.Calculate(ctx, klines)
	if err != nil {
		s.logger.Debug(ctx, "Indicator unavailable", map[string]interface{}{
			"symbol": symbol, "indicator": ind.Name(), "error": err.Error(),
		})
		return decimal.NullDecimal{}
	}
	if v <= 0 {
		return decimal.NullDecimal{}
	}
	return toDecimal(v)
}

func toDecimal(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(indicatorScale))
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}
