package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

func TestReadTransactions(t *testing.T) {
	input := `exit_date,trade_id,action,ticker,shares,price,fees,notes
2024-01-20,AAPL-001,TP1,aapl,50,190.25,1.00,Partial exit at TP1

2024-01-21,TSLA-002,stop2,,100,245.80,,Hit Stop2
`
	rows, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "AAPL", first.Ticker)
	assert.Equal(t, "AAPL-001", first.Transaction.TradeID)
	assert.Equal(t, domain.ExitTP1, first.Transaction.Reason)
	assert.Equal(t, int64(50), first.Transaction.Quantity)
	assert.True(t, decimal.RequireFromString("190.25").Equal(first.Transaction.Price))
	assert.True(t, decimal.RequireFromString("1").Equal(first.Transaction.Fee))
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), first.Transaction.ExitDate)
	assert.Equal(t, "Partial exit at TP1", first.Transaction.Note)

	second := rows[1]
	assert.Equal(t, 4, second.Line)
	assert.Equal(t, domain.ExitStop2, second.Transaction.Reason)
	assert.True(t, second.Transaction.Fee.IsZero())
	assert.Empty(t, second.Ticker)
}

func TestReadTransactions_ColumnOrderAndOptionalColumns(t *testing.T) {
	input := "trade_id,shares,price,action,exit_date\nNVDA-1,10,500,Manual,2024-03-01\n"
	rows, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NVDA-1", rows[0].Transaction.TradeID)
	assert.Equal(t, domain.ExitManual, rows[0].Transaction.Reason)
	assert.Empty(t, rows[0].Transaction.Note)
}

func TestReadTransactions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg []string
	}{
		{name: "empty file", input: "", wantMsg: []string{"empty file"}},
		{name: "missing columns", input: "trade_id,shares\nA,1\n", wantMsg: []string{"exit_date", "action", "price"}},
		{name: "header only", input: "exit_date,trade_id,action,shares,price\n", wantMsg: []string{"no transactions"}},
		{
			name: "all bad rows reported",
			input: `exit_date,trade_id,action,shares,price
20-01-2024,A,TP1,1,10
2024-01-20,,TP1,1,10
2024-01-20,A,Sell,1,10
2024-01-20,A,TP1,1.5,10
2024-01-20,A,TP1,1,abc
2024-01-20,A,TP1,1,10
`,
			wantMsg: []string{"row 2", "row 3", "row 4", "row 5", "row 6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadTransactions(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, rows)
			assert.True(t, errors.Is(err, ports.ErrInvalidRequest))
			for _, msg := range tt.wantMsg {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestReadTransactions_RowError(t *testing.T) {
	_, err := ReadTransactions(strings.NewReader("exit_date,trade_id,action,shares,price\n2024-01-20,A,TP1,x,10\n"))
	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 2, rowErr.Line)
}

func TestWriteTransactions_RoundTripsThroughImport(t *testing.T) {
	txns := []*domain.Transaction{{
		TradeID:  "AAPL-001",
		ExitDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Reason:   domain.ExitTP1,
		Quantity: 50,
		Price:    decimal.RequireFromString("190.25"),
		Fee:      decimal.RequireFromString("1"),
		Note:     "first, partial",
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, "AAPL", txns))

	rows, err := ReadTransactions(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AAPL", rows[0].Ticker)
	assert.Equal(t, "first, partial", rows[0].Transaction.Note)
	assert.True(t, txns[0].Price.Equal(rows[0].Transaction.Price))
}

func TestWriteTrades(t *testing.T) {
	trade := domain.NewTrade(domain.Terms{
		TradeID:    "AAPL-001",
		Symbol:     "AAPL",
		EntryPrice: decimal.RequireFromString("100"),
		Quantity:   100,
		EntryDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		FloorPrice: decimal.NewNullDecimal(decimal.RequireFromString("95")),
	}, domain.NewEntrySnapshot(decimal.NullDecimal{}, decimal.NullDecimal{}, time.Time{}), domain.CurrentMarket{})
	trade.Derived.Stop3 = decimal.NewNullDecimal(decimal.RequireFromString("95"))
	trade.Derived.TradingDaysOpen = 3

	var buf bytes.Buffer
	require.NoError(t, WriteTrades(&buf, []*domain.Trade{trade}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, records[1], len(TradeHeader))

	row := make(map[string]string, len(TradeHeader))
	for i, name := range records[0] {
		row[name] = records[1][i]
	}
	assert.Equal(t, "AAPL-001", row["trade_id"])
	assert.Equal(t, "2024-01-15", row["entry_date"])
	assert.Equal(t, "95", row["floor_price"])
	assert.Equal(t, "", row["stop_override"])
	assert.Equal(t, "", row["current_price"])
	assert.Equal(t, "95", row["stop3"])
	assert.Equal(t, "", row["r_multiple"])
	assert.Equal(t, "100", row["remaining_shares"])
	assert.Equal(t, "OPEN", row["status"])
	assert.Equal(t, "0.00", row["realized_pnl"])
	assert.Equal(t, "3", row["trading_days_open"])
}

func TestWriteKlines(t *testing.T) {
	open := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	klines := []*domain.Kline{{
		OpenTime: open, CloseTime: open.Add(24*time.Hour - time.Millisecond),
		Symbol: "BTCUSDT", Interval: "1d",
		Open: 42000.5, High: 43000, Low: 41000, Close: 42500.25, Volume: 1234.5,
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteKlines(&buf, klines))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "open_time,close_time,symbol,interval,open,high,low,close,volume", lines[0])
	assert.Equal(t, "2024-01-02T00:00:00Z,2024-01-02T23:59:59Z,BTCUSDT,1d,42000.5,43000,41000,42500.25,1234.5", lines[1])
}
