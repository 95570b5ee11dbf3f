package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Terms are the user supplied inputs of a trade.
// Symbol, EntryPrice, Quantity and EntryDate are fixed at creation;
// FloorPrice, StopOverride and PortfolioSize may be edited later.
type Terms struct {
	TradeID       string              // User-chosen key (e.g., "AAPL-001")
	Symbol        string              // Instrument symbol
	EntryPrice    decimal.Decimal     // Purchase price (PP)
	Quantity      int64               // Shares bought
	EntryDate     time.Time           // Purchase date
	FloorPrice    decimal.NullDecimal // Entry-day low (LoD)
	StopOverride  decimal.NullDecimal // Manual Stop3 override
	PortfolioSize decimal.NullDecimal // Total capital when the trade was opened
}

// TermsEdit carries the user-editable optional fields. Nil pointers leave the field untouched;
// a pointer to an invalid NullDecimal clears it.
type TermsEdit struct {
	FloorPrice    *decimal.NullDecimal
	StopOverride  *decimal.NullDecimal
	PortfolioSize *decimal.NullDecimal
}

// EntrySnapshot holds indicator values as of the entry date.
// It is captured once when the trade is created and never refreshed.
type EntrySnapshot struct {
	volatility decimal.NullDecimal
	maLong     decimal.NullDecimal
	capturedAt time.Time
}

// NewEntrySnapshot builds the write-once entry snapshot.
func NewEntrySnapshot(volatility, maLong decimal.NullDecimal, capturedAt time.Time) EntrySnapshot {
	return EntrySnapshot{volatility: volatility, maLong: maLong, capturedAt: capturedAt}
}

// Volatility returns the volatility indicator (ATR) as of the entry date.
func (e EntrySnapshot) Volatility() decimal.NullDecimal { return e.volatility }

// MALong returns the long moving average as of the entry date.
func (e EntrySnapshot) MALong() decimal.NullDecimal { return e.maLong }

// CapturedAt returns when the snapshot was taken.
func (e EntrySnapshot) CapturedAt() time.Time { return e.capturedAt }

// CurrentMarket holds refreshable market data. Any field may be unknown.
type CurrentMarket struct {
	Price      decimal.NullDecimal // Current price (CP)
	Volatility decimal.NullDecimal // Current ATR
	MAShort    decimal.NullDecimal // Short moving average (SMA10)
	MALong     decimal.NullDecimal // Long moving average (SMA50)
	UpdatedAt  time.Time           // Zero if never refreshed
}

// Derived holds every field computed by the calculation engine. It is rewritten wholesale
// on each recalculation.
type Derived struct {
	// Stop ladder and targets
	Stop3              decimal.NullDecimal
	Stop2              decimal.NullDecimal
	Stop1              decimal.NullDecimal
	OneR               decimal.NullDecimal
	TP1                decimal.NullDecimal
	TP2                decimal.NullDecimal
	TP3                decimal.NullDecimal
	EntryPctAboveStop3 decimal.NullDecimal

	// Price metrics
	DayPctMoved       decimal.NullDecimal
	CurrentVsEntryPct decimal.NullDecimal
	SoldPrice         decimal.NullDecimal
	TradeGainLossPct  decimal.NullDecimal

	// Ledger rollup
	ExitedShares    int64
	RemainingShares int64
	TotalProceeds   decimal.Decimal
	TotalFees       decimal.Decimal
	AvgExitPrice    decimal.NullDecimal
	RealizedPnL     decimal.Decimal
	UnrealizedPnL   decimal.NullDecimal
	TotalPnL        decimal.NullDecimal
	Status          TradeStatus

	// Portfolio
	PctPortfolioAtEntry decimal.NullDecimal
	PctPortfolioCurrent decimal.NullDecimal
	PortfolioImpact     decimal.NullDecimal

	// Volatility-normalised risk
	RiskPctOfVolatility decimal.NullDecimal
	RiskVolatilityUnits decimal.NullDecimal
	MAMultipleAtEntry   decimal.NullDecimal
	MAMultipleCurrent   decimal.NullDecimal

	// Outcome
	InitialRisk decimal.NullDecimal
	RMultiple   decimal.NullDecimal

	TradingDaysOpen int
}

// Trade is one position and everything known about it.
type Trade struct {
	Terms
	entry     EntrySnapshot
	Market    CurrentMarket
	Derived   Derived
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrade creates a trade and fixes its entry snapshot for the rest of its life.
func NewTrade(terms Terms, entry EntrySnapshot, market CurrentMarket) *Trade {
	return &Trade{
		Terms:  terms,
		entry:  entry,
		Market: market,
		Derived: Derived{
			RemainingShares: terms.Quantity,
			Status:          StatusOpen,
		},
	}
}

// Entry returns the write-once entry snapshot.
func (t *Trade) Entry() EntrySnapshot {
	return t.entry
}

// ApplyEdit updates the editable optional inputs.
func (t *Trade) ApplyEdit(e TermsEdit) {
	if e.FloorPrice != nil {
		t.FloorPrice = *e.FloorPrice
	}
	if e.StopOverride != nil {
		t.StopOverride = *e.StopOverride
	}
	if e.PortfolioSize != nil {
		t.PortfolioSize = *e.PortfolioSize
	}
}

// RefreshMarket replaces the current market data. The entry snapshot is not touched.
func (t *Trade) RefreshMarket(m CurrentMarket) {
	t.Market = m
}

// IsOpen reports whether the trade still holds shares.
func (t *Trade) IsOpen() bool {
	return t.Derived.Status != StatusClosed
}
