package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
)

// Summary holds journal-wide metrics across every trade.
type Summary struct {
	// Counts
	TotalTrades   int
	OpenTrades    int
	PartialTrades int
	ClosedTrades  int

	// PnL
	RealizedPnL    decimal.Decimal
	UnrealizedPnL  decimal.Decimal // Sum over trades whose unrealized PnL is known
	TotalPnL       decimal.Decimal
	UnpricedTrades int // Trades holding shares with no current price

	// Closed-trade outcomes
	WinningTrades        int
	LosingTrades         int
	WinRate              decimal.NullDecimal // Fraction of closed trades with positive total PnL
	AverageRMultiple     decimal.NullDecimal // Mean over closed trades with a known R
	AverageWin           decimal.NullDecimal
	AverageLoss          decimal.NullDecimal
	ProfitFactor         decimal.NullDecimal // Gross wins / gross losses
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageTradingDays   decimal.NullDecimal

	// Exposure
	OpenExposure         decimal.NullDecimal // Σ remaining shares × current price
	PctPortfolioInvested decimal.NullDecimal // Σ current % of portfolio over open and partial trades
}

// Summarize aggregates trades whose derived fields are already calculated.
// The input slice is not reordered.
func Summarize(trades []*domain.Trade) *Summary {
	s := &Summary{}
	if len(trades) == 0 {
		return s
	}

	var (
		closed              []*domain.Trade
		rSum, winSum        decimal.Decimal
		lossSum, exposure   decimal.Decimal
		invested            decimal.Decimal
		rCount, dayTotal    int
		exposed, investedOK bool
	)

	for _, t := range trades {
		d := t.Derived
		s.TotalTrades++
		switch d.Status {
		case domain.StatusOpen:
			s.OpenTrades++
		case domain.StatusPartial:
			s.PartialTrades++
		case domain.StatusClosed:
			s.ClosedTrades++
			closed = append(closed, t)
		}

		s.RealizedPnL = s.RealizedPnL.Add(d.RealizedPnL)
		if d.UnrealizedPnL.Valid {
			s.UnrealizedPnL = s.UnrealizedPnL.Add(d.UnrealizedPnL.Decimal)
		}

		if d.RemainingShares > 0 {
			if !t.Market.Price.Valid {
				s.UnpricedTrades++
			} else {
				exposure = exposure.Add(decimal.NewFromInt(d.RemainingShares).Mul(t.Market.Price.Decimal))
				exposed = true
			}
			if d.PctPortfolioCurrent.Valid {
				invested = invested.Add(d.PctPortfolioCurrent.Decimal)
				investedOK = true
			}
		}
	}
	s.TotalPnL = s.RealizedPnL.Add(s.UnrealizedPnL)
	if exposed {
		s.OpenExposure = decimal.NewNullDecimal(exposure.Round(2))
	}
	if investedOK {
		s.PctPortfolioInvested = decimal.NewNullDecimal(invested.Round(4))
	}

	if len(closed) == 0 {
		return s
	}

	// Streaks follow the order trades were entered
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].EntryDate.Before(closed[j].EntryDate)
	})

	var consecutiveWins, consecutiveLosses int
	for _, t := range closed {
		d := t.Derived
		dayTotal += d.TradingDaysOpen
		if d.RMultiple.Valid {
			rSum = rSum.Add(d.RMultiple.Decimal)
			rCount++
		}

		pnl := d.RealizedPnL
		if pnl.IsPositive() {
			s.WinningTrades++
			winSum = winSum.Add(pnl)
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			s.LosingTrades++
			lossSum = lossSum.Add(pnl)
			consecutiveLosses++
			consecutiveWins = 0
		}
		if consecutiveWins > s.MaxConsecutiveWins {
			s.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > s.MaxConsecutiveLosses {
			s.MaxConsecutiveLosses = consecutiveLosses
		}
	}

	n := decimal.NewFromInt(int64(len(closed)))
	s.WinRate = decimal.NewNullDecimal(decimal.NewFromInt(int64(s.WinningTrades)).DivRound(n, 4))
	s.AverageTradingDays = decimal.NewNullDecimal(decimal.NewFromInt(int64(dayTotal)).DivRound(n, 2))
	if rCount > 0 {
		s.AverageRMultiple = decimal.NewNullDecimal(rSum.DivRound(decimal.NewFromInt(int64(rCount)), 4))
	}
	if s.WinningTrades > 0 {
		s.AverageWin = decimal.NewNullDecimal(winSum.DivRound(decimal.NewFromInt(int64(s.WinningTrades)), 2))
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = decimal.NewNullDecimal(lossSum.DivRound(decimal.NewFromInt(int64(s.LosingTrades)), 2))
	}
	if lossSum.IsNegative() {
		s.ProfitFactor = decimal.NewNullDecimal(winSum.DivRound(lossSum.Neg(), 4))
	}

	return s
}
