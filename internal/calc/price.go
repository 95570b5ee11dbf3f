package calc

import (
	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
)

// PriceInput feeds the price movement metrics.
type PriceInput struct {
	EntryPrice   decimal.Decimal
	Current      decimal.NullDecimal
	Floor        decimal.NullDecimal // Entry-day low, not the override
	AvgExitPrice decimal.NullDecimal // From the ledger rollup
	Status       domain.TradeStatus  // From the ledger rollup
}

// Prices holds movement metrics. Percent fields are fractions (0.10 = 10%).
type Prices struct {
	DayPctMoved       decimal.NullDecimal // (C − L) / L
	CurrentVsEntryPct decimal.NullDecimal // (C − P) / P
	SoldPrice         decimal.NullDecimal // Avg exit price once closed, else C
	TradeGainLossPct  decimal.NullDecimal // (SoldPrice − P) / P
	Issues            []Issue
}

// PriceMetrics derives same-day movement and gain/loss against the entry price.
func PriceMetrics(in PriceInput) Prices {
	var out Prices
	p := in.EntryPrice

	if !in.Current.Valid {
		out.Issues = append(out.Issues, issue(IssueMissingCurrentPrice, "day_pct_moved", "current_vs_entry_pct"))
	} else {
		c := in.Current.Decimal
		if positive(in.Floor) {
			l := in.Floor.Decimal
			out.DayPctMoved = knownRounded(c.Sub(l).Div(l), ratioScale)
		} else {
			out.Issues = append(out.Issues, issue(IssueMissingFloor, "day_pct_moved"))
		}
		if v, ok := div(c.Sub(p), p); ok {
			out.CurrentVsEntryPct = knownRounded(v, ratioScale)
		}
	}

	out.SoldPrice = soldPrice(in)
	if out.SoldPrice.Valid {
		if v, ok := div(out.SoldPrice.Decimal.Sub(p), p); ok {
			out.TradeGainLossPct = knownRounded(v, ratioScale)
		}
	} else {
		out.Issues = append(out.Issues, issue(IssueMissingCurrentPrice, "sold_price", "trade_gain_loss_pct"))
	}
	return out
}

func soldPrice(in PriceInput) decimal.NullDecimal {
	if in.Status == domain.StatusClosed && in.AvgExitPrice.Valid {
		return in.AvgExitPrice
	}
	if in.Current.Valid {
		return knownRounded(in.Current.Decimal, priceScale)
	}
	return unknown
}
