package calc

import "github.com/shopspring/decimal"

// PortfolioInput feeds the sizing metrics.
type PortfolioInput struct {
	EntryPrice       decimal.Decimal
	Quantity         int64
	RemainingShares  int64
	Current          decimal.NullDecimal
	PortfolioSize    decimal.NullDecimal
	TradeGainLossPct decimal.NullDecimal // Fraction from PriceMetrics
}

// Portfolio expresses the position against total capital, on a 0–100 scale.
type Portfolio struct {
	PctPortfolioAtEntry decimal.NullDecimal // Q·P / S × 100
	PctPortfolioCurrent decimal.NullDecimal // Remaining·C / S × 100
	PortfolioImpact     decimal.NullDecimal // G × PctPortfolioAtEntry
	Issues              []Issue
}

// PortfolioMetrics derives position sizing and the trade's contribution to portfolio return.
func PortfolioMetrics(in PortfolioInput) Portfolio {
	var out Portfolio
	if !positive(in.PortfolioSize) {
		out.Issues = append(out.Issues, issue(IssueMissingPortfolioSize,
			"pct_portfolio_at_entry", "pct_portfolio_current", "portfolio_impact"))
		return out
	}
	s := in.PortfolioSize.Decimal

	atEntry := decimal.NewFromInt(in.Quantity).Mul(in.EntryPrice).Div(s).Mul(hundred)
	out.PctPortfolioAtEntry = knownRounded(atEntry, priceScale)

	if in.Current.Valid {
		current := decimal.NewFromInt(in.RemainingShares).Mul(in.Current.Decimal).Div(s).Mul(hundred)
		out.PctPortfolioCurrent = knownRounded(current, priceScale)
	} else {
		out.Issues = append(out.Issues, issue(IssueMissingCurrentPrice, "pct_portfolio_current"))
	}

	if in.TradeGainLossPct.Valid {
		impact := in.TradeGainLossPct.Decimal.Mul(out.PctPortfolioAtEntry.Decimal)
		out.PortfolioImpact = knownRounded(impact, priceScale)
	}
	return out
}
