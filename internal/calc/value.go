package calc

import "github.com/shopspring/decimal"

// Output scales. Prices and 0–100 percentages keep four places like the sheet;
// fractional ratios keep six so that a 0.1234% move survives; money keeps cents.
const (
	priceScale = 4
	ratioScale = 6
	moneyScale = 2
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
	three   = decimal.NewFromInt(3)
)

// unknown is the blank cell.
var unknown = decimal.NullDecimal{}

func known(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

func knownRounded(d decimal.Decimal, places int32) decimal.NullDecimal {
	return decimal.NewNullDecimal(d.Round(places))
}

// div returns num/den, or false when den is zero.
func div(num, den decimal.Decimal) (decimal.Decimal, bool) {
	if den.IsZero() {
		return decimal.Zero, false
	}
	return num.Div(den), true
}

// positive reports whether v is known and strictly greater than zero.
func positive(v decimal.NullDecimal) bool {
	return v.Valid && v.Decimal.IsPositive()
}

func allKnown(vals ...decimal.NullDecimal) bool {
	for _, v := range vals {
		if !v.Valid {
			return false
		}
	}
	return true
}
