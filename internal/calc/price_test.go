package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"waveRider/internal/domain"
)

func TestPriceMetrics(t *testing.T) {
	tests := []struct {
		name        string
		in          PriceInput
		wantDay     string // "" means unknown
		wantVsEntry string
		wantSold    string
		wantGain    string
	}{
		{
			name:        "open trade uses current price",
			in:          PriceInput{EntryPrice: dec("100"), Current: nd("110"), Floor: nd("95"), Status: domain.StatusOpen},
			wantDay:     "0.157895",
			wantVsEntry: "0.1",
			wantSold:    "110",
			wantGain:    "0.1",
		},
		{
			name: "closed trade uses average exit price",
			in: PriceInput{EntryPrice: dec("100"), Current: nd("90"), Floor: nd("95"),
				AvgExitPrice: nd("120"), Status: domain.StatusClosed},
			wantDay:     "-0.052632",
			wantVsEntry: "-0.1",
			wantSold:    "120",
			wantGain:    "0.2",
		},
		{
			name: "partial trade still marks to current price",
			in: PriceInput{EntryPrice: dec("100"), Current: nd("105"),
				AvgExitPrice: nd("120"), Status: domain.StatusPartial},
			wantVsEntry: "0.05",
			wantSold:    "105",
			wantGain:    "0.05",
		},
		{
			name: "closed trade without current price",
			in: PriceInput{EntryPrice: dec("100"), Floor: nd("95"),
				AvgExitPrice: nd("97.5"), Status: domain.StatusClosed},
			wantSold: "97.5",
			wantGain: "-0.025",
		},
		{
			name: "open trade without current price",
			in:   PriceInput{EntryPrice: dec("100"), Floor: nd("95"), Status: domain.StatusOpen},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := PriceMetrics(tt.in)
			check := func(want string, got decimal.NullDecimal, field string) {
				if want == "" {
					assertUnknown(t, got, field)
					return
				}
				assertDec(t, want, got, field)
			}
			check(tt.wantDay, out.DayPctMoved, "day_pct_moved")
			check(tt.wantVsEntry, out.CurrentVsEntryPct, "current_vs_entry_pct")
			check(tt.wantSold, out.SoldPrice, "sold_price")
			check(tt.wantGain, out.TradeGainLossPct, "trade_gain_loss_pct")
		})
	}
}

func TestPriceMetrics_MissingCurrentPriceIssue(t *testing.T) {
	out := PriceMetrics(PriceInput{EntryPrice: dec("100"), Floor: nd("95"), Status: domain.StatusOpen})
	assert.True(t, hasIssue(out.Issues, IssueMissingCurrentPrice))
}
