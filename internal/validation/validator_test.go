package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

func validTerms() domain.Terms {
	return domain.Terms{
		TradeID:    "AAPL-001",
		Symbol:     "aapl",
		EntryPrice: decimal.RequireFromString("185.50"),
		Quantity:   100,
		EntryDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		FloorPrice: decimal.NewNullDecimal(decimal.RequireFromString("184.20")),
	}
}

func TestValidateTerms(t *testing.T) {
	v := NewValidator(Config{})

	tests := []struct {
		name    string
		mutate  func(*domain.Terms)
		wantErr bool
	}{
		{name: "valid", mutate: func(*domain.Terms) {}},
		{name: "share class symbol", mutate: func(tr *domain.Terms) { tr.Symbol = "BRK.B" }},
		{name: "index symbol", mutate: func(tr *domain.Terms) { tr.Symbol = "^GSPC" }},
		{name: "empty trade id", mutate: func(tr *domain.Terms) { tr.TradeID = "  " }, wantErr: true},
		{name: "long trade id", mutate: func(tr *domain.Terms) { tr.TradeID = string(make([]byte, 51)) }, wantErr: true},
		{name: "empty symbol", mutate: func(tr *domain.Terms) { tr.Symbol = "" }, wantErr: true},
		{name: "long symbol", mutate: func(tr *domain.Terms) { tr.Symbol = "ABCDEFGHIJKLMNOPQRSTU" }, wantErr: true},
		{name: "symbol with space", mutate: func(tr *domain.Terms) { tr.Symbol = "AA PL" }, wantErr: true},
		{name: "zero entry price", mutate: func(tr *domain.Terms) { tr.EntryPrice = decimal.Zero }, wantErr: true},
		{name: "negative quantity", mutate: func(tr *domain.Terms) { tr.Quantity = -5 }, wantErr: true},
		{name: "missing entry date", mutate: func(tr *domain.Terms) { tr.EntryDate = time.Time{} }, wantErr: true},
		{
			name:    "negative floor",
			mutate:  func(tr *domain.Terms) { tr.FloorPrice = decimal.NewNullDecimal(decimal.NewFromInt(-1)) },
			wantErr: true,
		},
		{
			name:    "zero portfolio size",
			mutate:  func(tr *domain.Terms) { tr.PortfolioSize = decimal.NewNullDecimal(decimal.Zero) },
			wantErr: true,
		},
		{
			name:   "override above entry is allowed",
			mutate: func(tr *domain.Terms) { tr.StopOverride = decimal.NewNullDecimal(decimal.NewFromInt(190)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := validTerms()
			tt.mutate(&terms)
			err := v.ValidateTerms(terms)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ports.ErrInvalidRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEdit(t *testing.T) {
	v := NewValidator(Config{})
	cleared := decimal.NullDecimal{}
	negative := decimal.NewNullDecimal(decimal.NewFromInt(-10))

	assert.NoError(t, v.ValidateEdit(domain.TermsEdit{}))
	assert.NoError(t, v.ValidateEdit(domain.TermsEdit{StopOverride: &cleared}))
	assert.ErrorIs(t, v.ValidateEdit(domain.TermsEdit{PortfolioSize: &negative}), ports.ErrInvalidRequest)
}

func TestValidateTransaction(t *testing.T) {
	v := NewValidator(Config{})
	trade := domain.NewTrade(validTerms(), domain.EntrySnapshot{}, domain.CurrentMarket{})

	valid := func() *domain.Transaction {
		return &domain.Transaction{
			TradeID:  "AAPL-001",
			ExitDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Reason:   domain.ExitTP1,
			Quantity: 50,
			Price:    decimal.RequireFromString("190"),
			Fee:      decimal.RequireFromString("1.25"),
		}
	}

	tests := []struct {
		name        string
		mutate      func(*domain.Transaction)
		expectedErr error
	}{
		{name: "valid", mutate: func(*domain.Transaction) {}},
		{name: "same day exit", mutate: func(tx *domain.Transaction) { tx.ExitDate = trade.EntryDate.Add(5 * time.Hour) }},
		{name: "wrong trade", mutate: func(tx *domain.Transaction) { tx.TradeID = "MSFT-001" }, expectedErr: ports.ErrTradeMismatch},
		{name: "zero quantity", mutate: func(tx *domain.Transaction) { tx.Quantity = 0 }, expectedErr: ports.ErrInvalidRequest},
		{name: "zero price", mutate: func(tx *domain.Transaction) { tx.Price = decimal.Zero }, expectedErr: ports.ErrInvalidRequest},
		{name: "negative fee", mutate: func(tx *domain.Transaction) { tx.Fee = decimal.NewFromInt(-1) }, expectedErr: ports.ErrInvalidRequest},
		{name: "unknown reason", mutate: func(tx *domain.Transaction) { tx.Reason = "Profit" }, expectedErr: ports.ErrInvalidRequest},
		{name: "missing date", mutate: func(tx *domain.Transaction) { tx.ExitDate = time.Time{} }, expectedErr: ports.ErrInvalidRequest},
		{
			name:        "exit before entry",
			mutate:      func(tx *domain.Transaction) { tx.ExitDate = time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC) },
			expectedErr: ports.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid()
			tt.mutate(txn)
			err := v.ValidateTransaction(trade, txn)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestValidateLedger(t *testing.T) {
	v := NewValidator(Config{})
	txns := []*domain.Transaction{{Quantity: 60}, {Quantity: 40}}

	assert.NoError(t, v.ValidateLedger(100, txns))
	assert.NoError(t, v.ValidateLedger(100, nil))
	assert.ErrorIs(t, v.ValidateLedger(99, txns), ports.ErrOverExit)
}

func TestNewValidator_CustomLimits(t *testing.T) {
	v := NewValidator(Config{MaxTradeIDLength: 5, MaxSymbolLength: 3})
	terms := validTerms()
	terms.TradeID = "T-1"

	assert.ErrorIs(t, v.ValidateTerms(terms), ports.ErrInvalidRequest) // AAPL is 4 chars
	terms.Symbol = "IBM"
	assert.NoError(t, v.ValidateTerms(terms))
}
