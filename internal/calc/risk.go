package calc

import "github.com/shopspring/decimal"

// RiskInput feeds the volatility-normalised risk metrics.
type RiskInput struct {
	OneR              decimal.NullDecimal
	EntryPrice        decimal.Decimal
	Current           decimal.NullDecimal
	EntryVolatility   decimal.NullDecimal // ATR at entry
	CurrentVolatility decimal.NullDecimal // ATR now
	EntryMALong       decimal.NullDecimal // SMA50 at entry
	CurrentMALong     decimal.NullDecimal // SMA50 now
}

// RiskMetrics relates the risk unit and price distance from the moving average to volatility.
type RiskMetrics struct {
	RiskPctOfVolatility decimal.NullDecimal // R / ATRₑ × 100
	RiskVolatilityUnits decimal.NullDecimal // R / ATRₑ
	MAMultipleAtEntry   decimal.NullDecimal // ((P − MAₑ)/MAₑ) / (ATRₑ/P)
	MAMultipleCurrent   decimal.NullDecimal // ((C − MAc)/MAc) / (ATRc/C)
	Issues              []Issue
}

// RiskATRMetrics derives the ATR-based ratios. Every division is guarded; a missing or
// non-positive denominator yields unknown.
func RiskATRMetrics(in RiskInput) RiskMetrics {
	var out RiskMetrics

	switch {
	case !in.EntryVolatility.Valid:
		out.Issues = append(out.Issues, issue(IssueMissingEntryVolatility,
			"risk_pct_of_volatility", "risk_volatility_units", "ma_multiple_at_entry"))
	case !in.EntryVolatility.Decimal.IsPositive():
		out.Issues = append(out.Issues, issue(IssueNonPositiveVolatility,
			"risk_pct_of_volatility", "risk_volatility_units", "ma_multiple_at_entry"))
	case positive(in.OneR):
		units := in.OneR.Decimal.Div(in.EntryVolatility.Decimal)
		out.RiskVolatilityUnits = knownRounded(units, priceScale)
		out.RiskPctOfVolatility = knownRounded(units.Mul(hundred), priceScale)
	}

	if in.EntryVolatility.Valid && !in.EntryMALong.Valid {
		out.Issues = append(out.Issues, issue(IssueMissingEntryMA, "ma_multiple_at_entry"))
	}
	out.MAMultipleAtEntry = maMultiple(known(in.EntryPrice), in.EntryMALong, in.EntryVolatility)

	switch {
	case !in.Current.Valid:
		out.Issues = append(out.Issues, issue(IssueMissingCurrentPrice, "ma_multiple_current"))
	case !in.CurrentVolatility.Valid:
		out.Issues = append(out.Issues, issue(IssueMissingCurrentVolatility, "ma_multiple_current"))
	case !in.CurrentMALong.Valid:
		out.Issues = append(out.Issues, issue(IssueMissingCurrentMA, "ma_multiple_current"))
	}
	out.MAMultipleCurrent = maMultiple(in.Current, in.CurrentMALong, in.CurrentVolatility)

	return out
}

// maMultiple expresses the percentage distance of price from its moving average in units of
// ATR-as-percent-of-price.
func maMultiple(price, ma, atr decimal.NullDecimal) decimal.NullDecimal {
	if !allKnown(price, ma, atr) || !atr.Decimal.IsPositive() {
		return unknown
	}
	distance, ok := div(price.Decimal.Sub(ma.Decimal), ma.Decimal)
	if !ok {
		return unknown
	}
	atrPct, ok := div(atr.Decimal, price.Decimal)
	if !ok {
		return unknown
	}
	v, ok := div(distance, atrPct)
	if !ok {
		return unknown
	}
	return knownRounded(v, priceScale)
}
