// Package calc is the trade-risk calculation engine. It turns a trade's inputs, its exit
// ledger and a market snapshot into every derived field of the 3-stop method.
//
// The engine is pure: no I/O, no logging, no shared mutable state. Recalculating different
// trades concurrently is safe; serialising updates to a single trade is the caller's job.
package calc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// Config is the explicit configuration threaded into every calculation.
type Config struct {
	// DefaultPortfolioSize is used when a trade carries no portfolio-size snapshot.
	DefaultPortfolioSize decimal.NullDecimal
	// FloorBufferPct lowers an entry-day-low floor by this percentage before it becomes Stop3.
	FloorBufferPct decimal.Decimal
	// Clock supplies the reference date when Input.AsOf is zero. Defaults to time.Now.
	Clock func() time.Time
}

// Input is everything one recalculation needs.
type Input struct {
	Terms        domain.Terms
	Entry        domain.EntrySnapshot
	Market       domain.CurrentMarket
	Transactions []*domain.Transaction
	AsOf         time.Time // Reference date for trading days
}

// Result is the output of a recalculation.
type Result struct {
	Derived domain.Derived
	Issues  []Issue
}

// Engine runs the calculators in dependency order.
type Engine struct {
	cfg Config
}

// New creates an engine.
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Engine{cfg: cfg}
}

// Run executes the pipeline:
//
//	rollup → stops/targets → price → portfolio → risk/ATR → R-multiple → trading days
//
// Price metrics need the rollup's sold price, portfolio impact needs the gain/loss %, and the
// risk metrics and R-multiple need the risk unit. Running twice on the same Input yields the
// same Result. Only malformed inputs return an error.
func (e *Engine) Run(in Input) (Result, error) {
	if err := checkShape(in); err != nil {
		return Result{}, err
	}
	t := in.Terms
	var res Result

	rollup, err := Rollup(RollupInput{
		EntryPrice:   t.EntryPrice,
		Quantity:     t.Quantity,
		Current:      in.Market.Price,
		Transactions: in.Transactions,
	})
	if err != nil {
		return Result{}, fmt.Errorf("trade %s: %w: %w", t.TradeID, ports.ErrInvalidRequest, err)
	}
	res.Issues = append(res.Issues, rollup.Issues...)

	stops := StopsAndTargets(StopsInput{
		EntryPrice:     t.EntryPrice,
		Floor:          t.FloorPrice,
		Override:       t.StopOverride,
		FloorBufferPct: e.cfg.FloorBufferPct,
	})
	res.Issues = append(res.Issues, stops.Issues...)

	prices := PriceMetrics(PriceInput{
		EntryPrice:   t.EntryPrice,
		Current:      in.Market.Price,
		Floor:        t.FloorPrice,
		AvgExitPrice: rollup.AvgExitPrice,
		Status:       rollup.Status,
	})
	res.Issues = append(res.Issues, prices.Issues...)

	portfolioSize := t.PortfolioSize
	if !portfolioSize.Valid {
		portfolioSize = e.cfg.DefaultPortfolioSize
	}
	portfolio := PortfolioMetrics(PortfolioInput{
		EntryPrice:       t.EntryPrice,
		Quantity:         t.Quantity,
		RemainingShares:  rollup.RemainingShares,
		Current:          in.Market.Price,
		PortfolioSize:    portfolioSize,
		TradeGainLossPct: prices.TradeGainLossPct,
	})
	res.Issues = append(res.Issues, portfolio.Issues...)

	risk := RiskATRMetrics(RiskInput{
		OneR:              stops.OneR,
		EntryPrice:        t.EntryPrice,
		Current:           in.Market.Price,
		EntryVolatility:   in.Entry.Volatility(),
		CurrentVolatility: in.Market.Volatility,
		EntryMALong:       in.Entry.MALong(),
		CurrentMALong:     in.Market.MALong,
	})
	res.Issues = append(res.Issues, risk.Issues...)

	outcome := RMultiple(rollup.TotalPnL, stops.OneR, t.Quantity)

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = e.cfg.Clock()
	}

	res.Derived = domain.Derived{
		Stop3:              stops.Stop3,
		Stop2:              stops.Stop2,
		Stop1:              stops.Stop1,
		OneR:               stops.OneR,
		TP1:                stops.TP1,
		TP2:                stops.TP2,
		TP3:                stops.TP3,
		EntryPctAboveStop3: stops.EntryPctAboveStop3,

		DayPctMoved:       prices.DayPctMoved,
		CurrentVsEntryPct: prices.CurrentVsEntryPct,
		SoldPrice:         prices.SoldPrice,
		TradeGainLossPct:  prices.TradeGainLossPct,

		ExitedShares:    rollup.ExitedShares,
		RemainingShares: rollup.RemainingShares,
		TotalProceeds:   rollup.TotalProceeds,
		TotalFees:       rollup.TotalFees,
		AvgExitPrice:    rollup.AvgExitPrice,
		RealizedPnL:     rollup.RealizedPnL,
		UnrealizedPnL:   rollup.UnrealizedPnL,
		TotalPnL:        rollup.TotalPnL,
		Status:          rollup.Status,

		PctPortfolioAtEntry: portfolio.PctPortfolioAtEntry,
		PctPortfolioCurrent: portfolio.PctPortfolioCurrent,
		PortfolioImpact:     portfolio.PortfolioImpact,

		RiskPctOfVolatility: risk.RiskPctOfVolatility,
		RiskVolatilityUnits: risk.RiskVolatilityUnits,
		MAMultipleAtEntry:   risk.MAMultipleAtEntry,
		MAMultipleCurrent:   risk.MAMultipleCurrent,

		InitialRisk: outcome.InitialRisk,
		RMultiple:   outcome.RMultiple,

		TradingDaysOpen: TradingDays(t.EntryDate, asOf),
	}
	return res, nil
}

// Recalculate runs the engine for a stored trade and overwrites its derived fields.
// Inputs, market data and the entry snapshot are left as they are.
func (e *Engine) Recalculate(trade *domain.Trade, txns []*domain.Transaction, asOf time.Time) (Result, error) {
	res, err := e.Run(Input{
		Terms:        trade.Terms,
		Entry:        trade.Entry(),
		Market:       trade.Market,
		Transactions: txns,
		AsOf:         asOf,
	})
	if err != nil {
		return Result{}, err
	}
	trade.Derived = res.Derived
	return res, nil
}

// checkShape rejects inputs that are not a valid call rather than a data-quality problem.
func checkShape(in Input) error {
	t := in.Terms
	if !t.EntryPrice.IsPositive() {
		return fmt.Errorf("trade %s: entry price must be positive: %w", t.TradeID, ports.ErrInvalidRequest)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("trade %s: quantity must be positive: %w", t.TradeID, ports.ErrInvalidRequest)
	}
	for _, txn := range in.Transactions {
		if txn == nil {
			return fmt.Errorf("trade %s: nil transaction: %w", t.TradeID, ports.ErrInvalidRequest)
		}
		if txn.TradeID != t.TradeID {
			return fmt.Errorf("transaction %s references trade %s, not %s: %w: %w",
				txn.ID, txn.TradeID, t.TradeID, ports.ErrInvalidRequest, ports.ErrTradeMismatch)
		}
		if txn.Quantity <= 0 || !txn.Price.IsPositive() {
			return fmt.Errorf("transaction %s: quantity and price must be positive: %w", txn.ID, ports.ErrInvalidRequest)
		}
	}
	return nil
}
