package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"waveRider/internal/analytics"
	"waveRider/internal/app"
	"waveRider/internal/calc"
	"waveRider/internal/domain"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

const dateLayout = "2006-01-02"

// tradeDoc is the serialised form of a trade view. Unknown values are null.
type tradeDoc struct {
	TradeID       string  `json:"trade_id" yaml:"trade_id"`
	Symbol        string  `json:"symbol" yaml:"symbol"`
	EntryDate     string  `json:"entry_date" yaml:"entry_date"`
	EntryPrice    string  `json:"entry_price" yaml:"entry_price"`
	Quantity      int64   `json:"quantity" yaml:"quantity"`
	FloorPrice    *string `json:"floor_price" yaml:"floor_price"`
	StopOverride  *string `json:"stop_override" yaml:"stop_override"`
	PortfolioSize *string `json:"portfolio_size" yaml:"portfolio_size"`

	EntryVolatility *string `json:"entry_volatility" yaml:"entry_volatility"`
	EntryMALong     *string `json:"entry_ma_long" yaml:"entry_ma_long"`

	CurrentPrice      *string `json:"current_price" yaml:"current_price"`
	CurrentVolatility *string `json:"current_volatility" yaml:"current_volatility"`
	CurrentMAShort    *string `json:"current_ma_short" yaml:"current_ma_short"`
	CurrentMALong     *string `json:"current_ma_long" yaml:"current_ma_long"`
	MarketUpdatedAt   *string `json:"market_updated_at" yaml:"market_updated_at"`

	Stop3              *string `json:"stop3" yaml:"stop3"`
	Stop2              *string `json:"stop2" yaml:"stop2"`
	Stop1              *string `json:"stop1" yaml:"stop1"`
	OneR               *string `json:"one_r" yaml:"one_r"`
	TP1                *string `json:"tp1" yaml:"tp1"`
	TP2                *string `json:"tp2" yaml:"tp2"`
	TP3                *string `json:"tp3" yaml:"tp3"`
	EntryPctAboveStop3 *string `json:"entry_pct_above_stop3" yaml:"entry_pct_above_stop3"`

	DayPctMoved       *string `json:"day_pct_moved" yaml:"day_pct_moved"`
	CurrentVsEntryPct *string `json:"current_vs_entry_pct" yaml:"current_vs_entry_pct"`
	SoldPrice         *string `json:"sold_price" yaml:"sold_price"`
	TradeGainLossPct  *string `json:"trade_gain_loss_pct" yaml:"trade_gain_loss_pct"`

	Status          string  `json:"status" yaml:"status"`
	ExitedShares    int64   `json:"exited_shares" yaml:"exited_shares"`
	RemainingShares int64   `json:"remaining_shares" yaml:"remaining_shares"`
	TotalProceeds   string  `json:"total_proceeds" yaml:"total_proceeds"`
	TotalFees       string  `json:"total_fees" yaml:"total_fees"`
	AvgExitPrice    *string `json:"avg_exit_price" yaml:"avg_exit_price"`
	RealizedPnL     string  `json:"realized_pnl" yaml:"realized_pnl"`
	UnrealizedPnL   *string `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	TotalPnL        *string `json:"total_pnl" yaml:"total_pnl"`

	PctPortfolioAtEntry *string `json:"pct_portfolio_at_entry" yaml:"pct_portfolio_at_entry"`
	PctPortfolioCurrent *string `json:"pct_portfolio_current" yaml:"pct_portfolio_current"`
	PortfolioImpact     *string `json:"portfolio_impact" yaml:"portfolio_impact"`

	RiskPctOfVolatility *string `json:"risk_pct_of_volatility" yaml:"risk_pct_of_volatility"`
	RiskVolatilityUnits *string `json:"risk_volatility_units" yaml:"risk_volatility_units"`
	MAMultipleAtEntry   *string `json:"ma_multiple_at_entry" yaml:"ma_multiple_at_entry"`
	MAMultipleCurrent   *string `json:"ma_multiple_current" yaml:"ma_multiple_current"`

	InitialRisk     *string `json:"initial_risk" yaml:"initial_risk"`
	RMultiple       *string `json:"r_multiple" yaml:"r_multiple"`
	TradingDaysOpen int     `json:"trading_days_open" yaml:"trading_days_open"`

	Transactions []txnDoc   `json:"transactions,omitempty" yaml:"transactions,omitempty"`
	Issues       []issueDoc `json:"issues,omitempty" yaml:"issues,omitempty"`
}

type txnDoc struct {
	ID       string `json:"id" yaml:"id"`
	TradeID  string `json:"trade_id" yaml:"trade_id"`
	ExitDate string `json:"exit_date" yaml:"exit_date"`
	Reason   string `json:"reason" yaml:"reason"`
	Quantity int64  `json:"quantity" yaml:"quantity"`
	Price    string `json:"price" yaml:"price"`
	Fee      string `json:"fee" yaml:"fee"`
	Proceeds string `json:"proceeds" yaml:"proceeds"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}

type issueDoc struct {
	Code   string   `json:"code" yaml:"code"`
	Fields []string `json:"fields" yaml:"fields"`
}

type summaryDoc struct {
	TotalTrades          int     `json:"total_trades" yaml:"total_trades"`
	OpenTrades           int     `json:"open_trades" yaml:"open_trades"`
	PartialTrades        int     `json:"partial_trades" yaml:"partial_trades"`
	ClosedTrades         int     `json:"closed_trades" yaml:"closed_trades"`
	RealizedPnL          string  `json:"realized_pnl" yaml:"realized_pnl"`
	UnrealizedPnL        string  `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	TotalPnL             string  `json:"total_pnl" yaml:"total_pnl"`
	UnpricedTrades       int     `json:"unpriced_trades" yaml:"unpriced_trades"`
	WinningTrades        int     `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades         int     `json:"losing_trades" yaml:"losing_trades"`
	WinRate              *string `json:"win_rate" yaml:"win_rate"`
	AverageRMultiple     *string `json:"average_r_multiple" yaml:"average_r_multiple"`
	AverageWin           *string `json:"average_win" yaml:"average_win"`
	AverageLoss          *string `json:"average_loss" yaml:"average_loss"`
	ProfitFactor         *string `json:"profit_factor" yaml:"profit_factor"`
	MaxConsecutiveWins   int     `json:"max_consecutive_wins" yaml:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`
	AverageTradingDays   *string `json:"average_trading_days" yaml:"average_trading_days"`
	OpenExposure         *string `json:"open_exposure" yaml:"open_exposure"`
	PctPortfolioInvested *string `json:"pct_portfolio_invested" yaml:"pct_portfolio_invested"`
}

type refreshDoc struct {
	TradeID string    `json:"trade_id" yaml:"trade_id"`
	Error   string    `json:"error,omitempty" yaml:"error,omitempty"`
	Trade   *tradeDoc `json:"trade,omitempty" yaml:"trade,omitempty"`
}

func opt(v decimal.NullDecimal) *string {
	if !v.Valid {
		return nil
	}
	s := v.Decimal.String()
	return &s
}

func newTradeDoc(view *app.TradeView, withLedger bool) tradeDoc {
	t := view.Trade
	d := t.Derived
	doc := tradeDoc{
		TradeID:       t.TradeID,
		Symbol:        t.Symbol,
		EntryDate:     t.EntryDate.Format(dateLayout),
		EntryPrice:    t.EntryPrice.String(),
		Quantity:      t.Quantity,
		FloorPrice:    opt(t.FloorPrice),
		StopOverride:  opt(t.StopOverride),
		PortfolioSize: opt(t.PortfolioSize),

		EntryVolatility: opt(t.Entry().Volatility()),
		EntryMALong:     opt(t.Entry().MALong()),

		CurrentPrice:      opt(t.Market.Price),
		CurrentVolatility: opt(t.Market.Volatility),
		CurrentMAShort:    opt(t.Market.MAShort),
		CurrentMALong:     opt(t.Market.MALong),

		Stop3:              opt(d.Stop3),
		Stop2:              opt(d.Stop2),
		Stop1:              opt(d.Stop1),
		OneR:               opt(d.OneR),
		TP1:                opt(d.TP1),
		TP2:                opt(d.TP2),
		TP3:                opt(d.TP3),
		EntryPctAboveStop3: opt(d.EntryPctAboveStop3),

		DayPctMoved:       opt(d.DayPctMoved),
		CurrentVsEntryPct: opt(d.CurrentVsEntryPct),
		SoldPrice:         opt(d.SoldPrice),
		TradeGainLossPct:  opt(d.TradeGainLossPct),

		Status:          string(d.Status),
		ExitedShares:    d.ExitedShares,
		RemainingShares: d.RemainingShares,
		TotalProceeds:   d.TotalProceeds.StringFixed(2),
		TotalFees:       d.TotalFees.StringFixed(2),
		AvgExitPrice:    opt(d.AvgExitPrice),
		RealizedPnL:     d.RealizedPnL.StringFixed(2),
		UnrealizedPnL:   opt(d.UnrealizedPnL),
		TotalPnL:        opt(d.TotalPnL),

		PctPortfolioAtEntry: opt(d.PctPortfolioAtEntry),
		PctPortfolioCurrent: opt(d.PctPortfolioCurrent),
		PortfolioImpact:     opt(d.PortfolioImpact),

		RiskPctOfVolatility: opt(d.RiskPctOfVolatility),
		RiskVolatilityUnits: opt(d.RiskVolatilityUnits),
		MAMultipleAtEntry:   opt(d.MAMultipleAtEntry),
		MAMultipleCurrent:   opt(d.MAMultipleCurrent),

		InitialRisk:     opt(d.InitialRisk),
		RMultiple:       opt(d.RMultiple),
		TradingDaysOpen: d.TradingDaysOpen,
	}
	if !t.Market.UpdatedAt.IsZero() {
		ts := t.Market.UpdatedAt.UTC().Format(time.RFC3339)
		doc.MarketUpdatedAt = &ts
	}
	if withLedger {
		for _, txn := range view.Transactions {
			doc.Transactions = append(doc.Transactions, newTxnDoc(txn))
		}
	}
	for _, is := range view.Issues {
		doc.Issues = append(doc.Issues, issueDoc{Code: string(is.Code), Fields: is.Fields})
	}
	return doc
}

func newTxnDoc(txn *domain.Transaction) txnDoc {
	return txnDoc{
		ID:       txn.ID,
		TradeID:  txn.TradeID,
		ExitDate: txn.ExitDate.Format(dateLayout),
		Reason:   string(txn.Reason),
		Quantity: txn.Quantity,
		Price:    txn.Price.String(),
		Fee:      txn.Fee.StringFixed(2),
		Proceeds: txn.Proceeds().StringFixed(2),
		Note:     txn.Note,
	}
}

func newSummaryDoc(s *analytics.Summary) summaryDoc {
	return summaryDoc{
		TotalTrades:          s.TotalTrades,
		OpenTrades:           s.OpenTrades,
		PartialTrades:        s.PartialTrades,
		ClosedTrades:         s.ClosedTrades,
		RealizedPnL:          s.RealizedPnL.StringFixed(2),
		UnrealizedPnL:        s.UnrealizedPnL.StringFixed(2),
		TotalPnL:             s.TotalPnL.StringFixed(2),
		UnpricedTrades:       s.UnpricedTrades,
		WinningTrades:        s.WinningTrades,
		LosingTrades:         s.LosingTrades,
		WinRate:              opt(s.WinRate),
		AverageRMultiple:     opt(s.AverageRMultiple),
		AverageWin:           opt(s.AverageWin),
		AverageLoss:          opt(s.AverageLoss),
		ProfitFactor:         opt(s.ProfitFactor),
		MaxConsecutiveWins:   s.MaxConsecutiveWins,
		MaxConsecutiveLosses: s.MaxConsecutiveLosses,
		AverageTradingDays:   opt(s.AverageTradingDays),
		OpenExposure:         opt(s.OpenExposure),
		PctPortfolioInvested: opt(s.PctPortfolioInvested),
	}
}

// encode writes v as JSON or YAML. It reports false for the table format.
func encode(w io.Writer, format string, v interface{}) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func cell(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.String()
}

func moneyCell(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.StringFixed(2)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// renderTrades prints one row per trade.
func renderTrades(w io.Writer, format string, views []*app.TradeView) error {
	docs := make([]tradeDoc, 0, len(views))
	for _, v := range views {
		docs = append(docs, newTradeDoc(v, false))
	}
	if done, err := encode(w, format, docs); done {
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSYMBOL\tSTATUS\tENTRY\tQTY\tLEFT\tSTOP3\tSTOP2\tSTOP1\tTP1\tPRICE\tTOTAL P&L\tR")
	for _, v := range views {
		t, d := v.Trade, v.Trade.Derived
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.TradeID, t.Symbol, d.Status, t.EntryPrice, t.Quantity, d.RemainingShares,
			cell(d.Stop3), cell(d.Stop2), cell(d.Stop1), cell(d.TP1),
			cell(t.Market.Price), moneyCell(d.TotalPnL), cell(d.RMultiple))
	}
	return tw.Flush()
}

// renderTrade prints the full detail of one trade, its ledger and any issues.
func renderTrade(w io.Writer, format string, view *app.TradeView) error {
	if done, err := encode(w, format, newTradeDoc(view, true)); done {
		return err
	}

	t, d := view.Trade, view.Trade.Derived
	tw := newTable(w)
	rows := [][2]string{
		{"Trade", t.TradeID},
		{"Symbol", t.Symbol},
		{"Status", string(d.Status)},
		{"Entry", fmt.Sprintf("%s x %d on %s", t.EntryPrice, t.Quantity, t.EntryDate.Format(dateLayout))},
		{"Floor (LoD)", cell(t.FloorPrice)},
		{"Stop override", cell(t.StopOverride)},
		{"Portfolio size", moneyCell(t.PortfolioSize)},
		{"Stops 3 / 2 / 1", fmt.Sprintf("%s / %s / %s", cell(d.Stop3), cell(d.Stop2), cell(d.Stop1))},
		{"1R", cell(d.OneR)},
		{"TP 1 / 2 / 3", fmt.Sprintf("%s / %s / %s", cell(d.TP1), cell(d.TP2), cell(d.TP3))},
		{"Entry % above Stop3", cell(d.EntryPctAboveStop3)},
		{"Current price", cell(t.Market.Price)},
		{"Day % moved", cell(d.DayPctMoved)},
		{"Current vs entry", cell(d.CurrentVsEntryPct)},
		{"Sold price", cell(d.SoldPrice)},
		{"Gain/loss %", cell(d.TradeGainLossPct)},
		{"Exited / remaining", fmt.Sprintf("%d / %d", d.ExitedShares, d.RemainingShares)},
		{"Avg exit price", cell(d.AvgExitPrice)},
		{"Realized P&L", d.RealizedPnL.StringFixed(2)},
		{"Unrealized P&L", moneyCell(d.UnrealizedPnL)},
		{"Total P&L", moneyCell(d.TotalPnL)},
		{"% portfolio entry / now", fmt.Sprintf("%s / %s", cell(d.PctPortfolioAtEntry), cell(d.PctPortfolioCurrent))},
		{"Portfolio impact %", cell(d.PortfolioImpact)},
		{"ATR entry / now", fmt.Sprintf("%s / %s", cell(t.Entry().Volatility()), cell(t.Market.Volatility))},
		{"Risk % of ATR", cell(d.RiskPctOfVolatility)},
		{"Risk in ATRs", cell(d.RiskVolatilityUnits)},
		{"SMA50 multiple entry / now", fmt.Sprintf("%s / %s", cell(d.MAMultipleAtEntry), cell(d.MAMultipleCurrent))},
		{"Initial risk", moneyCell(d.InitialRisk)},
		{"R-multiple", cell(d.RMultiple)},
		{"Trading days open", fmt.Sprint(d.TradingDaysOpen)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(view.Transactions) > 0 {
		fmt.Fprintln(w)
		if err := renderTransactions(w, view.Transactions); err != nil {
			return err
		}
	}
	renderIssues(w, view.Issues)
	return nil
}

func renderTransactions(w io.Writer, txns []*domain.Transaction) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TXN\tDATE\tREASON\tQTY\tPRICE\tFEE\tPROCEEDS\tNOTE")
	for _, txn := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			txn.ID, txn.ExitDate.Format(dateLayout), txn.Reason, txn.Quantity,
			txn.Price, txn.Fee.StringFixed(2), txn.Proceeds().StringFixed(2), txn.Note)
	}
	return tw.Flush()
}

func renderIssues(w io.Writer, issues []calc.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, is := range issues {
		fmt.Fprintf(w, "! %s: %s\n", is.Code, strings.Join(is.Fields, ", "))
	}
}

// renderSummary prints journal-wide metrics.
func renderSummary(w io.Writer, format string, s *analytics.Summary) error {
	doc := newSummaryDoc(s)
	if done, err := encode(w, format, doc); done {
		return err
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Trades:\t%d (open %d, partial %d, closed %d)\n", s.TotalTrades, s.OpenTrades, s.PartialTrades, s.ClosedTrades)
	fmt.Fprintf(tw, "Realized P&L:\t%s\n", doc.RealizedPnL)
	fmt.Fprintf(tw, "Unrealized P&L:\t%s\n", doc.UnrealizedPnL)
	fmt.Fprintf(tw, "Total P&L:\t%s\n", doc.TotalPnL)
	if s.UnpricedTrades > 0 {
		fmt.Fprintf(tw, "Unpriced trades:\t%d\n", s.UnpricedTrades)
	}
	fmt.Fprintf(tw, "Win rate:\t%s (%d won, %d lost)\n", cell(s.WinRate), s.WinningTrades, s.LosingTrades)
	fmt.Fprintf(tw, "Average R:\t%s\n", cell(s.AverageRMultiple))
	fmt.Fprintf(tw, "Average win / loss:\t%s / %s\n", moneyCell(s.AverageWin), moneyCell(s.AverageLoss))
	fmt.Fprintf(tw, "Profit factor:\t%s\n", cell(s.ProfitFactor))
	fmt.Fprintf(tw, "Max consecutive wins / losses:\t%d / %d\n", s.MaxConsecutiveWins, s.MaxConsecutiveLosses)
	fmt.Fprintf(tw, "Average trading days:\t%s\n", cell(s.AverageTradingDays))
	fmt.Fprintf(tw, "Open exposure:\t%s\n", moneyCell(s.OpenExposure))
	fmt.Fprintf(tw, "%% portfolio invested:\t%s\n", cell(s.PctPortfolioInvested))
	return tw.Flush()
}

// renderRefresh prints one line per refreshed trade.
func renderRefresh(w io.Writer, format string, results []app.RefreshResult) error {
	docs := make([]refreshDoc, 0, len(results))
	for _, r := range results {
		doc := refreshDoc{TradeID: r.TradeID}
		if r.Err != nil {
			doc.Error = r.Err.Error()
		}
		if r.View != nil {
			td := newTradeDoc(r.View, false)
			doc.Trade = &td
		}
		docs = append(docs, doc)
	}
	if done, err := encode(w, format, docs); done {
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tPRICE\tATR\tSMA10\tSMA50\tTOTAL P&L\tRESULT")
	for _, r := range results {
		if r.View == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t%v\n", r.TradeID, r.Err)
			continue
		}
		t := r.View.Trade
		result := "ok"
		if r.Err != nil {
			result = r.Err.Error()
		} else if len(r.View.Issues) > 0 {
			result = fmt.Sprintf("%d issue(s)", len(r.View.Issues))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.TradeID,
			cell(t.Market.Price), cell(t.Market.Volatility), cell(t.Market.MAShort), cell(t.Market.MALong),
			moneyCell(t.Derived.TotalPnL), result)
	}
	return tw.Flush()
}
