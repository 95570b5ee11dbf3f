package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
)

// TradeHeader is the column layout of the trade export. Unknown values are written as empty cells.
var TradeHeader = []string{
	"trade_id", "symbol", "entry_date", "entry_price", "quantity",
	"floor_price", "stop_override", "portfolio_size",
	"entry_volatility", "entry_ma_long",
	"current_price", "current_volatility", "ma_short", "ma_long", "market_updated_at",
	"stop3", "stop2", "stop1", "one_r", "tp1", "tp2", "tp3", "entry_pct_above_stop3",
	"day_pct_moved", "current_vs_entry_pct", "sold_price", "trade_gain_loss_pct",
	"exited_shares", "remaining_shares", "total_proceeds", "total_fees", "avg_exit_price",
	"realized_pnl", "unrealized_pnl", "total_pnl", "status",
	"pct_portfolio_at_entry", "pct_portfolio_current", "portfolio_impact",
	"risk_pct_of_volatility", "risk_volatility_units", "ma_multiple_at_entry", "ma_multiple_current",
	"initial_risk", "r_multiple", "trading_days_open",
}

// WriteTrades writes every input and derived field of each trade.
func WriteTrades(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := writer.Write(tradeRecord(t)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func tradeRecord(t *domain.Trade) []string {
	d := t.Derived
	entry := t.Entry()
	updated := ""
	if !t.Market.UpdatedAt.IsZero() {
		updated = t.Market.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		t.TradeID, t.Symbol, t.EntryDate.Format(time.DateOnly), t.EntryPrice.String(), strconv.FormatInt(t.Quantity, 10),
		nullable(t.FloorPrice), nullable(t.StopOverride), nullable(t.PortfolioSize),
		nullable(entry.Volatility()), nullable(entry.MALong()),
		nullable(t.Market.Price), nullable(t.Market.Volatility), nullable(t.Market.MAShort), nullable(t.Market.MALong), updated,
		nullable(d.Stop3), nullable(d.Stop2), nullable(d.Stop1), nullable(d.OneR),
		nullable(d.TP1), nullable(d.TP2), nullable(d.TP3), nullable(d.EntryPctAboveStop3),
		nullable(d.DayPctMoved), nullable(d.CurrentVsEntryPct), nullable(d.SoldPrice), nullable(d.TradeGainLossPct),
		strconv.FormatInt(d.ExitedShares, 10), strconv.FormatInt(d.RemainingShares, 10),
		d.TotalProceeds.StringFixed(2), d.TotalFees.StringFixed(2), nullable(d.AvgExitPrice),
		d.RealizedPnL.StringFixed(2), nullable(d.UnrealizedPnL), nullable(d.TotalPnL), string(d.Status),
		nullable(d.PctPortfolioAtEntry), nullable(d.PctPortfolioCurrent), nullable(d.PortfolioImpact),
		nullable(d.RiskPctOfVolatility), nullable(d.RiskVolatilityUnits), nullable(d.MAMultipleAtEntry), nullable(d.MAMultipleCurrent),
		nullable(d.InitialRisk), nullable(d.RMultiple), strconv.Itoa(d.TradingDaysOpen),
	}
}

func nullable(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
