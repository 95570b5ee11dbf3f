package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "waverider-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func date(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

func newTestTrade(id, symbol, entryDate string) *domain.Trade {
	terms := domain.Terms{
		TradeID:       id,
		Symbol:        symbol,
		EntryPrice:    decimal.RequireFromString("185.50"),
		Quantity:      100,
		EntryDate:     date(entryDate),
		FloorPrice:    nd("184.20"),
		PortfolioSize: nd("50000"),
	}
	captured := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	entry := domain.NewEntrySnapshot(nd("3.1234"), nd("180.5"), captured)
	return domain.NewTrade(terms, entry, domain.CurrentMarket{})
}

func newTestTxn(id, tradeID, exitDate string, qty int64) *domain.Transaction {
	return &domain.Transaction{
		ID:       id,
		TradeID:  tradeID,
		ExitDate: date(exitDate),
		Reason:   domain.ExitTP1,
		Quantity: qty,
		Price:    decimal.RequireFromString("190.25"),
		Fee:      decimal.RequireFromString("1.50"),
		Note:     "first target",
	}
}

func TestRepository_CreateAndFindTrade(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := newTestTrade("AAPL-001", "AAPL", "2024-01-15")
	require.NoError(t, repo.CreateTrade(ctx, trade))
	assert.False(t, trade.CreatedAt.IsZero())

	found, err := repo.FindTrade(ctx, "AAPL-001")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "AAPL", found.Symbol)
	assert.True(t, trade.EntryPrice.Equal(found.EntryPrice))
	assert.Equal(t, int64(100), found.Quantity)
	assert.Equal(t, "2024-01-15", found.EntryDate.Format(dateLayout))
	assert.True(t, found.FloorPrice.Valid)
	assert.True(t, decimal.RequireFromString("184.2").Equal(found.FloorPrice.Decimal))
	assert.False(t, found.StopOverride.Valid)
	assert.Equal(t, "3.1234", found.Entry().Volatility().Decimal.String())
	assert.Equal(t, "180.5", found.Entry().MALong().Decimal.String())
	assert.True(t, found.Entry().CapturedAt().Equal(trade.Entry().CapturedAt()))
	assert.False(t, found.Market.Price.Valid)
	assert.True(t, found.Market.UpdatedAt.IsZero())
	assert.Equal(t, domain.StatusOpen, found.Derived.Status)
	assert.Equal(t, int64(100), found.Derived.RemainingShares)

	missing, err := repo.FindTrade(ctx, "NOPE")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_CreateTradeDuplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateTrade(ctx, newTestTrade("AAPL-001", "AAPL", "2024-01-15")))
	err := repo.CreateTrade(ctx, newTestTrade("AAPL-001", "MSFT", "2024-01-16"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrDuplicateEntry)
}

func TestRepository_UpdateTradeKeepsEntrySnapshot(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := newTestTrade("AAPL-001", "AAPL", "2024-01-15")
	require.NoError(t, repo.CreateTrade(ctx, trade))

	override := nd("183")
	trade.ApplyEdit(domain.TermsEdit{StopOverride: &override})
	updatedAt := time.Date(2024, 2, 1, 22, 0, 0, 0, time.UTC)
	trade.RefreshMarket(domain.CurrentMarket{
		Price:      nd("195.1"),
		Volatility: nd("3.5"),
		MAShort:    nd("192"),
		MALong:     nd("186.25"),
		UpdatedAt:  updatedAt,
	})
	trade.Derived.Status = domain.StatusPartial
	trade.Derived.RemainingShares = 40
	require.NoError(t, repo.UpdateTrade(ctx, trade))

	found, err := repo.FindTrade(ctx, "AAPL-001")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "183", found.StopOverride.Decimal.String())
	assert.Equal(t, "195.1", found.Market.Price.Decimal.String())
	assert.Equal(t, "186.25", found.Market.MALong.Decimal.String())
	assert.True(t, found.Market.UpdatedAt.Equal(updatedAt))
	assert.Equal(t, domain.StatusPartial, found.Derived.Status)
	assert.Equal(t, int64(40), found.Derived.RemainingShares)
	assert.Equal(t, "3.1234", found.Entry().Volatility().Decimal.String())

	// Clearing an optional input stores NULL.
	cleared := decimal.NullDecimal{}
	found.ApplyEdit(domain.TermsEdit{StopOverride: &cleared})
	require.NoError(t, repo.UpdateTrade(ctx, found))
	again, err := repo.FindTrade(ctx, "AAPL-001")
	require.NoError(t, err)
	assert.False(t, again.StopOverride.Valid)

	missing := newTestTrade("NOPE", "AAPL", "2024-01-15")
	assert.ErrorIs(t, repo.UpdateTrade(ctx, missing), ports.ErrNotFound)
}

func TestRepository_ListTrades(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	older := newTestTrade("AAPL-001", "AAPL", "2024-01-15")
	newer := newTestTrade("MSFT-001", "MSFT", "2024-03-01")
	closed := newTestTrade("AAPL-002", "AAPL", "2024-02-10")
	closed.Derived.Status = domain.StatusClosed
	closed.Derived.RemainingShares = 0
	for _, tr := range []*domain.Trade{older, newer, closed} {
		require.NoError(t, repo.CreateTrade(ctx, tr))
	}

	tests := []struct {
		name     string
		filter   ports.TradeFilter
		expected []string
	}{
		{name: "all, newest first", filter: ports.TradeFilter{}, expected: []string{"MSFT-001", "AAPL-002", "AAPL-001"}},
		{name: "by status", filter: ports.TradeFilter{Status: domain.StatusOpen}, expected: []string{"MSFT-001", "AAPL-001"}},
		{name: "by symbol", filter: ports.TradeFilter{Symbol: "AAPL"}, expected: []string{"AAPL-002", "AAPL-001"}},
		{name: "by both", filter: ports.TradeFilter{Status: domain.StatusClosed, Symbol: "AAPL"}, expected: []string{"AAPL-002"}},
		{name: "no match", filter: ports.TradeFilter{Symbol: "TSLA"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades, err := repo.ListTrades(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(trades))
			for _, tr := range trades {
				ids = append(ids, tr.TradeID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestRepository_Transactions(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateTrade(ctx, newTestTrade("AAPL-001", "AAPL", "2024-01-15")))

	later := newTestTxn("01B", "AAPL-001", "2024-02-10", 30)
	earlier := newTestTxn("01C", "AAPL-001", "2024-02-01", 20)
	sameDay := newTestTxn("01A", "AAPL-001", "2024-02-10", 10)
	require.NoError(t, repo.ApplyLedgerChange(ctx, ports.LedgerChange{Create: []*domain.Transaction{later}}))
	require.NoError(t, repo.ApplyLedgerChange(ctx, ports.LedgerChange{Create: []*domain.Transaction{earlier, sameDay}}))

	txns, err := repo.ListTransactions(ctx, "AAPL-001")
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, "01C", txns[0].ID)
	assert.Equal(t, "01A", txns[1].ID)
	assert.Equal(t, "01B", txns[2].ID)
	assert.Equal(t, domain.ExitTP1, txns[0].Reason)
	assert.True(t, decimal.RequireFromString("190.25").Equal(txns[0].Price))
	assert.True(t, decimal.RequireFromString("1.5").Equal(txns[0].Fee))
	assert.Equal(t, "first target", txns[0].Note)

	later.Quantity = 35
	later.Reason = domain.ExitManual
	require.NoError(t, repo.ApplyLedgerChange(ctx, ports.LedgerChange{Update: []*domain.Transaction{later}}))
	found, err := repo.FindTransaction(ctx, "01B")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(35), found.Quantity)
	assert.Equal(t, domain.ExitManual, found.Reason)

	require.NoError(t, repo.ApplyLedgerChange(ctx, ports.LedgerChange{Delete: []string{"01A"}}))
	missing, err := repo.FindTransaction(ctx, "01A")
	assert.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, repo.ApplyLedgerChange(ctx, ports.LedgerChange{Delete: []string{"01A"}}), ports.ErrNotFound)
}

func TestRepository_ApplyLedgerChangeWritesTrade(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := newTestTrade("AAPL-001", "AAPL", "2024-01-15")
	require.NoError(t, repo.CreateTrade(ctx, trade))

	trade.Derived.Status = domain.StatusPartial
	trade.Derived.RemainingShares = 60
	require.NoError(t, repo.ApplyLedgerChange(ctx, ports.LedgerChange{
		Create: []*domain.Transaction{newTestTxn("01A", "AAPL-001", "2024-02-01", 40)},
		Trades: []*domain.Trade{trade},
	}))

	stored, err := repo.FindTrade(ctx, "AAPL-001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.StatusPartial, stored.Derived.Status)
	assert.Equal(t, int64(60), stored.Derived.RemainingShares)

	partial, err := repo.ListTrades(ctx, ports.TradeFilter{Status: domain.StatusPartial})
	require.NoError(t, err)
	assert.Len(t, partial, 1)
}

func TestRepository_ApplyLedgerChangeIsAtomic(t *testing.T) {
	tests := []struct {
		name    string
		change  func(trade *domain.Trade) ports.LedgerChange
		wantErr error
	}{
		{
			name: "foreign key violation in batch",
			change: func(trade *domain.Trade) ports.LedgerChange {
				return ports.LedgerChange{Create: []*domain.Transaction{
					newTestTxn("01A", "AAPL-001", "2024-02-01", 10),
					newTestTxn("01B", "MISSING", "2024-02-01", 10), // Violates the foreign key
				}}
			},
			wantErr: ports.ErrNotFound,
		},
		{
			name: "trade update fails after exit insert",
			change: func(trade *domain.Trade) ports.LedgerChange {
				gone := newTestTrade("GONE", "AAPL", "2024-01-15")
				trade.Derived.Status = domain.StatusPartial
				return ports.LedgerChange{
					Create: []*domain.Transaction{newTestTxn("01A", "AAPL-001", "2024-02-01", 10)},
					Trades: []*domain.Trade{trade, gone},
				}
			},
			wantErr: ports.ErrNotFound,
		},
		{
			name: "delete of unknown exit",
			change: func(trade *domain.Trade) ports.LedgerChange {
				return ports.LedgerChange{
					Create: []*domain.Transaction{newTestTxn("01A", "AAPL-001", "2024-02-01", 10)},
					Delete: []string{"NOPE"},
				}
			},
			wantErr: ports.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, cleanup := setupTestDB(t)
			defer cleanup()
			ctx := context.Background()

			trade := newTestTrade("AAPL-001", "AAPL", "2024-01-15")
			require.NoError(t, repo.CreateTrade(ctx, trade))

			err := repo.ApplyLedgerChange(ctx, tt.change(trade))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			txns, err := repo.ListTransactions(ctx, "AAPL-001")
			require.NoError(t, err)
			assert.Empty(t, txns)
			stored, err := repo.FindTrade(ctx, "AAPL-001")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusOpen, stored.Derived.Status)
		})
	}
}

func TestRepository_DeleteTradeCascades(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateTrade(ctx, newTestTrade("AAPL-001", "AAPL", "2024-01-15")))
	require.NoError(t, repo.ApplyLedgerChange(ctx, ports.LedgerChange{
		Create: []*domain.Transaction{newTestTxn("01A", "AAPL-001", "2024-02-01", 10)},
	}))

	require.NoError(t, repo.DeleteTrade(ctx, "AAPL-001"))

	trade, err := repo.FindTrade(ctx, "AAPL-001")
	assert.NoError(t, err)
	assert.Nil(t, trade)
	txn, err := repo.FindTransaction(ctx, "01A")
	assert.NoError(t, err)
	assert.Nil(t, txn)

	assert.ErrorIs(t, repo.DeleteTrade(ctx, "AAPL-001"), ports.ErrNotFound)
}
