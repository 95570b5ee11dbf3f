package calc

import "github.com/shopspring/decimal"

// StopsInput feeds the stop ladder.
type StopsInput struct {
	EntryPrice     decimal.Decimal
	Floor          decimal.NullDecimal // Entry-day low
	Override       decimal.NullDecimal // Manual Stop3, wins over Floor
	FloorBufferPct decimal.Decimal     // Pushes a day-low floor down by this percentage; ignored for overrides
}

// Stops is the three-tier stop ladder plus take-profit targets.
type Stops struct {
	Stop3              decimal.NullDecimal
	Stop2              decimal.NullDecimal
	Stop1              decimal.NullDecimal
	OneR               decimal.NullDecimal
	TP1                decimal.NullDecimal
	TP2                decimal.NullDecimal
	TP3                decimal.NullDecimal
	EntryPctAboveStop3 decimal.NullDecimal
	Issues             []Issue
}

var stopLadderFields = []string{"stop3", "stop2", "stop1", "one_r", "tp1", "tp2", "tp3", "entry_pct_above_stop3"}

// StopsAndTargets derives Stop3 from the effective floor and hangs the rest of the ladder off
// the risk unit R = entry − Stop3:
//
//	Stop2 = P − 2R/3, Stop1 = P − R/3, TPn = P + n·R, Entry% above Stop3 = R/Stop3·100
//
// With no floor and no override everything is unknown. A risk unit ≤ 0 (floor at or above
// entry) keeps Stop3 but leaves every R-dependent field unknown.
func StopsAndTargets(in StopsInput) Stops {
	floor := effectiveFloor(in)
	if !floor.Valid {
		return Stops{Issues: []Issue{issue(IssueMissingFloor, stopLadderFields...)}}
	}

	p := in.EntryPrice
	stop3 := floor.Decimal
	out := Stops{Stop3: knownRounded(stop3, priceScale)}

	r := p.Sub(stop3)
	if !r.IsPositive() {
		out.Issues = append(out.Issues, issue(IssueNonPositiveRiskUnit, stopLadderFields[1:]...))
		return out
	}

	out.OneR = knownRounded(r, priceScale)
	out.Stop2 = knownRounded(p.Sub(r.Mul(two).Div(three)), priceScale)
	out.Stop1 = knownRounded(p.Sub(r.Div(three)), priceScale)
	out.TP1 = knownRounded(p.Add(r), priceScale)
	out.TP2 = knownRounded(p.Add(r.Mul(two)), priceScale)
	out.TP3 = knownRounded(p.Add(r.Mul(three)), priceScale)

	if pct, ok := div(r, stop3); ok && stop3.IsPositive() {
		out.EntryPctAboveStop3 = knownRounded(pct.Mul(hundred), priceScale)
	} else {
		out.Issues = append(out.Issues, issue(IssueZeroDenominator, "entry_pct_above_stop3"))
	}
	return out
}

func effectiveFloor(in StopsInput) decimal.NullDecimal {
	if in.Override.Valid {
		return in.Override
	}
	if !in.Floor.Valid {
		return unknown
	}
	if in.FloorBufferPct.IsPositive() {
		factor := decimal.NewFromInt(1).Sub(in.FloorBufferPct.Div(hundred))
		return known(in.Floor.Decimal.Mul(factor))
	}
	return in.Floor
}
