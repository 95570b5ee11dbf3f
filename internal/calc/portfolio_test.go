package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPortfolioMetrics(t *testing.T) {
	tests := []struct {
		name            string
		input           PortfolioInput
		expectedEntry   string
		expectedCurrent string
		expectedImpact  string
	}{
		{
			name: "ten percent gain on a five percent position",
			input: PortfolioInput{
				EntryPrice:       dec("100"),
				Quantity:         100,
				RemainingShares:  100,
				Current:          nd("110"),
				PortfolioSize:    nd("200000"),
				TradeGainLossPct: nd("0.10"),
			},
			expectedEntry:   "5",
			expectedCurrent: "5.5",
			expectedImpact:  "0.5",
		},
		{
			name: "half exited position",
			input: PortfolioInput{
				EntryPrice:       dec("50"),
				Quantity:         200,
				RemainingShares:  100,
				Current:          nd("45"),
				PortfolioSize:    nd("100000"),
				TradeGainLossPct: nd("-0.1"),
			},
			expectedEntry:   "10",
			expectedCurrent: "4.5",
			expectedImpact:  "-1",
		},
		{
			name: "fully exited position keeps entry weight",
			input: PortfolioInput{
				EntryPrice:       dec("20"),
				Quantity:         300,
				RemainingShares:  0,
				Current:          nd("25"),
				PortfolioSize:    nd("30000"),
				TradeGainLossPct: nd("0.2"),
			},
			expectedEntry:   "20",
			expectedCurrent: "0",
			expectedImpact:  "4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := PortfolioMetrics(tt.input)
			assertDec(t, tt.expectedEntry, out.PctPortfolioAtEntry, "pct_portfolio_at_entry")
			assertDec(t, tt.expectedCurrent, out.PctPortfolioCurrent, "pct_portfolio_current")
			assertDec(t, tt.expectedImpact, out.PortfolioImpact, "portfolio_impact")
			assert.Empty(t, out.Issues)
		})
	}
}

func TestPortfolioMetrics_UnknownSize(t *testing.T) {
	for _, size := range []decimal.NullDecimal{unknown, nd("0"), nd("-1000")} {
		out := PortfolioMetrics(PortfolioInput{
			EntryPrice:       dec("100"),
			Quantity:         100,
			RemainingShares:  100,
			Current:          nd("110"),
			PortfolioSize:    size,
			TradeGainLossPct: nd("0.1"),
		})
		assertUnknown(t, out.PctPortfolioAtEntry, "pct_portfolio_at_entry")
		assertUnknown(t, out.PctPortfolioCurrent, "pct_portfolio_current")
		assertUnknown(t, out.PortfolioImpact, "portfolio_impact")
		assert.True(t, hasIssue(out.Issues, IssueMissingPortfolioSize))
	}
}

func TestPortfolioMetrics_UnknownPriceAndGain(t *testing.T) {
	out := PortfolioMetrics(PortfolioInput{
		EntryPrice:      dec("100"),
		Quantity:        100,
		RemainingShares: 100,
		PortfolioSize:   nd("200000"),
	})
	assertDec(t, "5", out.PctPortfolioAtEntry, "pct_portfolio_at_entry")
	assertUnknown(t, out.PctPortfolioCurrent, "pct_portfolio_current")
	assertUnknown(t, out.PortfolioImpact, "portfolio_impact")
	assert.True(t, hasIssue(out.Issues, IssueMissingCurrentPrice))
}
