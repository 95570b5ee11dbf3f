package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// RollupInput feeds the ledger aggregation.
type RollupInput struct {
	EntryPrice   decimal.Decimal
	Quantity     int64
	Current      decimal.NullDecimal
	Transactions []*domain.Transaction
}

// LedgerRollup summarises a trade's exits.
type LedgerRollup struct {
	ExitedShares    int64
	RemainingShares int64
	TotalProceeds   decimal.Decimal
	TotalFees       decimal.Decimal
	AvgExitPrice    decimal.NullDecimal // Unknown until the first exit
	RealizedPnL     decimal.Decimal
	UnrealizedPnL   decimal.NullDecimal // Unknown when shares remain and the price is unknown
	TotalPnL        decimal.NullDecimal
	Status          domain.TradeStatus
	Issues          []Issue
}

// Rollup aggregates the ledger into share counts, proceeds, PnL and lifecycle status.
// The ledger is only read. A ledger exiting more than the entry quantity is rejected
// with ports.ErrOverExit; callers are expected to have validated it already.
func Rollup(in RollupInput) (LedgerRollup, error) {
	var (
		out       LedgerRollup
		exitValue = decimal.Zero // Σ quantity·price
	)
	out.TotalProceeds = decimal.Zero
	out.TotalFees = decimal.Zero

	for _, txn := range in.Transactions {
		out.ExitedShares += txn.Quantity
		exitValue = exitValue.Add(decimal.NewFromInt(txn.Quantity).Mul(txn.Price))
		out.TotalProceeds = out.TotalProceeds.Add(txn.Proceeds())
		out.TotalFees = out.TotalFees.Add(txn.Fee)
	}

	out.RemainingShares = in.Quantity - out.ExitedShares
	if out.RemainingShares < 0 {
		return LedgerRollup{}, fmt.Errorf("entry quantity %d, exited %d: %w", in.Quantity, out.ExitedShares, ports.ErrOverExit)
	}

	if out.ExitedShares > 0 {
		out.AvgExitPrice = knownRounded(exitValue.Div(decimal.NewFromInt(out.ExitedShares)), priceScale)
	}

	costExited := decimal.NewFromInt(out.ExitedShares).Mul(in.EntryPrice)
	out.RealizedPnL = out.TotalProceeds.Sub(costExited).Round(moneyScale)

	switch {
	case out.RemainingShares == 0:
		out.UnrealizedPnL = known(decimal.Zero)
	case in.Current.Valid:
		move := in.Current.Decimal.Sub(in.EntryPrice)
		out.UnrealizedPnL = knownRounded(decimal.NewFromInt(out.RemainingShares).Mul(move), moneyScale)
	default:
		out.Issues = append(out.Issues, issue(IssueMissingCurrentPrice, "unrealized_pnl", "total_pnl"))
	}

	if out.UnrealizedPnL.Valid {
		out.TotalPnL = known(out.RealizedPnL.Add(out.UnrealizedPnL.Decimal))
	}

	out.Status = statusOf(in.Quantity, out.RemainingShares)
	return out, nil
}

func statusOf(quantity, remaining int64) domain.TradeStatus {
	switch {
	case remaining == 0:
		return domain.StatusClosed
	case remaining == quantity:
		return domain.StatusOpen
	default:
		return domain.StatusPartial
	}
}
