package calc

import "github.com/shopspring/decimal"

// Outcome is the trade result in risk units.
type Outcome struct {
	InitialRisk decimal.NullDecimal // Q × R
	RMultiple   decimal.NullDecimal // TotalPnL / InitialRisk
}

// RMultiple divides total PnL by the initial dollar risk. Unknown when R is unknown or ≤ 0,
// or when total PnL is unknown.
func RMultiple(totalPnL, oneR decimal.NullDecimal, quantity int64) Outcome {
	var out Outcome
	if !positive(oneR) || quantity <= 0 {
		return out
	}
	risk := decimal.NewFromInt(quantity).Mul(oneR.Decimal)
	out.InitialRisk = knownRounded(risk, moneyScale)
	if totalPnL.Valid {
		out.RMultiple = knownRounded(totalPnL.Decimal.Div(risk), priceScale)
	}
	return out
}
